package handlers

import (
	"net/http"

	applog "linkcard/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheckHandler reports liveness and, when a pinger is set, database reachability.
func (h *Handler) HealthCheckHandler(c *gin.Context) {
	if h.Pinger != nil {
		if err := h.Pinger(); err != nil {
			applog.L.Named("HealthCheckHandler").Warn("Database ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "database ping failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "connected"})
}
