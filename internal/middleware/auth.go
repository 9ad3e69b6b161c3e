package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carpool/internal/auth"
)

const userIDKey = "authUserID"

// AuthMiddleware authenticates the bearer credential and stores the resolved
// user id in the request context. The acting identity always comes from
// here; request-body ids are only ever targets.
func AuthMiddleware(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "no token provided",
			})
			return
		}

		userID, err := provider.Authenticate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
