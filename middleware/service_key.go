package middleware

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ServiceKeyMiddleware authenticates machine producers (metric collector,
// log shipper, CI, matching service) on the event intake endpoints. The key
// is presented in X-Service-Key and checked against the bcrypt hash in
// SERVICE_KEY_HASH, so the plaintext key never lives in the environment of
// this process.
func ServiceKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		hash := os.Getenv("SERVICE_KEY_HASH")
		if hash == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Event intake is not configured"})
			c.Abort()
			return
		}

		key := c.GetHeader("X-Service-Key")
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Service-Key header is required"})
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid service key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
