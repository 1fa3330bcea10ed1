package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"chatbook/internal/middleware"
	"chatbook/internal/observability"
)

// OpsHandler serves health information.
type OpsHandler struct {
	stats   observability.StoreStats
	started time.Time
}

// NewOpsHandler builds an OpsHandler.
func NewOpsHandler(stats observability.StoreStats) *OpsHandler {
	return &OpsHandler{stats: stats, started: time.Now()}
}

// Health reports liveness together with the store size.
func (h *OpsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"chats":          h.stats.ChatCount(),
		"messages":       h.stats.MessageCount(),
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// NewRouter wires the ops endpoints and their middleware.
func NewRouter(h *OpsHandler, serviceName string, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(serviceName),
		middleware.RequestID(),
		middleware.Logging(log),
		observability.HTTPMetricsMiddleware(),
	)

	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(observability.Handler()))
	return router
}
