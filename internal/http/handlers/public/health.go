package public

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unitv-next/internal/models"
)

var startedAt = time.Now()

// Ping handles GET /ping, a static liveness probe.
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(startedAt).Seconds()),
	})
}

// Health handles GET /health: database reachability, inventory level
// and, when configured, the WhatsApp session state.
func (h *Handler) Health(c *gin.Context) {
	if err := models.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}

	payload := gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(startedAt).Seconds()),
	}
	if available, err := h.CodeRepo.CountAvailable(); err == nil {
		payload["codes_available"] = available
	}
	if h.WhatsApp != nil {
		connected, err := h.WhatsApp.Connected(c.Request.Context())
		payload["whatsapp_connected"] = err == nil && connected
	}
	c.JSON(http.StatusOK, payload)
}
