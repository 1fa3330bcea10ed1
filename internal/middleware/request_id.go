package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatbook/internal/observability"
)

const RequestIDContextKey = "request_id"

// RequestID reuses the caller's X-Request-Id or generates one, and stores it
// on both the gin context and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := observability.RequestIDFromRequest(c.Request)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDContextKey, requestID)
		c.Writer.Header().Set(observability.RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(observability.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
