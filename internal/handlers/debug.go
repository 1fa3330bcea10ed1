package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatbook/internal/models"
	"chatbook/internal/services"
)

const debugEventType = "debug_test"

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, emitter services.EventEmitter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/event-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), models.ChatEvent{Type: debugEventType})
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
