package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatbook/internal/observability"
)

// Logging writes one structured line per request.
func Logging(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	log = log.With(zap.String("component", "ops_http"))

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", observability.ClientIP(c.Request)),
			zap.String("request_id", c.GetString(RequestIDContextKey)),
		}
		if c.Writer.Status() >= 500 {
			log.Error("ops request", fields...)
			return
		}
		log.Debug("ops request", fields...)
	}
}
