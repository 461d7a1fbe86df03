package middleware

import (
	"net/http"
	"os"
	"strings"

	"content-platform-api/config"
	"content-platform-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	RecipientID string `json:"recipient_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the JWT issued by the platform's auth service and
// places the caller's recipient identity and role into the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		// Check the account still exists
		var account models.Account
		if err := config.DB.Where("recipient_id = ? AND delete_at IS NULL", claims.RecipientID).First(&account).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
			c.Abort()
			return
		}

		c.Set("recipientID", claims.RecipientID)
		c.Set("email", claims.Email)
		c.Set("role", account.Role)

		c.Next()
	}
}

// RequireRole checks if the caller holds one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerRole, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Role not found"})
			c.Abort()
			return
		}

		role := callerRole.(string)
		allowed := false
		for _, r := range roles {
			if role == r {
				allowed = true
				break
			}
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentRecipient returns the authenticated caller's recipient identity.
func CurrentRecipient(c *gin.Context) (string, bool) {
	if v, ok := c.Get("recipientID"); ok {
		if id, ok := v.(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}

// CurrentRole returns the authenticated caller's role.
func CurrentRole(c *gin.Context) (string, bool) {
	if v, ok := c.Get("role"); ok {
		if role, ok := v.(string); ok && role != "" {
			return role, true
		}
	}
	return "", false
}
