package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) HealthCheck(c *gin.Context) {
	respond(c, http.StatusOK, "OK", gin.H{"healthy": true})
}

func (a *API) Status(c *gin.Context) {
	respond(c, http.StatusOK, "Service status", gin.H{
		"service": "snapfeed API",
		"version": "0.1.0",
		"status":  "operational",
	})
}
