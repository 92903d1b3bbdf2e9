package middleware

import (
	"net/http"
	"strings"

	"github.com/Mayank9056-MM/social-post-application/internal/utils"

	"github.com/gin-gonic/gin"
)

const userIDContextKey = "user_id"

// UserIDFromContext returns the authenticated user id stored by Auth, or
// false when the request is unauthenticated.
func UserIDFromContext(c *gin.Context) (int, bool) {
	value, ok := c.Get(userIDContextKey)
	if !ok {
		return 0, false
	}
	userID, ok := value.(int)
	return userID, ok
}

// SetUserID stores an authenticated user id in the request context. Exists
// mainly so tests can simulate an authenticated request.
func SetUserID(c *gin.Context, userID int) {
	c.Set(userIDContextKey, userID)
}

// Auth verifies the bearer token and stores the caller's user id in the
// request context.
func Auth(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			abortUnauthorized(c, "Authorization header must be in the format 'Bearer {token}'")
			return
		}

		claims, err := tokens.Validate(tokenParts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		SetUserID(c, claims.UserID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"status":  http.StatusUnauthorized,
		"message": message,
		"error":   message,
	})
	c.Abort()
}
