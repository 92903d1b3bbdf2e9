package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *API) checkMonitoringKey(c *gin.Context) bool {
	expected := a.cfg.MonitoringAPIKey
	if expected == "" {
		respondError(c, http.StatusServiceUnavailable, "Monitoring API is disabled")
		return false
	}

	provided := strings.TrimSpace(c.GetHeader("X-Monitoring-Key"))
	if provided == "" || provided != expected {
		respondError(c, http.StatusUnauthorized, "Invalid monitoring key")
		return false
	}
	return true
}

// MonitorSnapshot reports runtime, pool and table-count statistics.
func (a *API) MonitorSnapshot(c *gin.Context) {
	if !a.checkMonitoringKey(c) {
		return
	}
	c.JSON(http.StatusOK, a.monitor.Snapshot())
}
