package middleware

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminKeyMiddleware gates admin routes behind the X-Admin-Key header,
// checked against the bcrypt hash in ADMIN_KEY_HASH. With no hash
// configured the admin surface is closed entirely.
func AdminKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		hash := os.Getenv("ADMIN_KEY_HASH")
		if hash == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access is not configured"})
			c.Abort()
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid admin key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
