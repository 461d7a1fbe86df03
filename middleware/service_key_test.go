package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serviceKeyRouter() *gin.Engine {
	router := gin.New()
	router.POST("/events", ServiceKeyMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestServiceKeyMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("collector-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	t.Setenv("SERVICE_KEY_HASH", string(hash))

	router := serviceKeyRouter()

	cases := []struct {
		name string
		key  string
		want int
	}{
		{"valid key", "collector-key", http.StatusOK},
		{"wrong key", "guessed-key", http.StatusUnauthorized},
		{"missing key", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/events", nil)
		if tc.key != "" {
			req.Header.Set("X-Service-Key", tc.key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.want)
		}
	}
}

func TestServiceKeyMiddlewareUnconfigured(t *testing.T) {
	t.Setenv("SERVICE_KEY_HASH", "")

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set("X-Service-Key", "anything")
	w := httptest.NewRecorder()
	serviceKeyRouter().ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when no hash is configured", w.Code)
	}
}

func TestRateLimitMiddlewareThrottlesBursts(t *testing.T) {
	router := gin.New()
	router.POST("/events", RateLimitMiddleware(1, 2), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/events", nil)
		req.RemoteAddr = "10.1.2.3:4000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst requests rejected: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", codes[2])
	}

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.RemoteAddr = "10.9.9.9:4000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("independent client throttled: %d", w.Code)
	}
}
