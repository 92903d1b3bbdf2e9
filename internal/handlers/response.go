package handlers

import (
	"net/http"

	"github.com/Mayank9056-MM/social-post-application/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Every endpoint answers with the same envelope: {status, message, data} on
// success, {status, message, error} on failure.

func respond(c *gin.Context, code int, message string, data any) {
	c.JSON(code, gin.H{
		"status":  code,
		"message": message,
		"data":    data,
	})
}

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"status":  code,
		"message": message,
		"error":   message,
	})
}

// respondInternal logs the underlying error and reports a generic message.
// The error detail is only exposed outside production-like configuration.
func (a *API) respondInternal(c *gin.Context, err error, message string) {
	a.log.Error(c.Request.Context(), message, "error", err)

	if !a.cfg.IsProduction() {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  http.StatusInternalServerError,
			"message": message,
			"error":   err.Error(),
		})
		return
	}
	respondError(c, http.StatusInternalServerError, message)
}

// authedUserID pulls the user id the auth middleware stored. A missing id
// means the route was wired without the middleware; answer 401 like an
// unauthenticated request.
func authedUserID(c *gin.Context) (int, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	return userID, true
}
