package config

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-Id"
	slowRequest     = 200 * time.Millisecond
)

// PerformanceLogger tags each request with an id and logs its timing,
// warning on slow ones.
func PerformanceLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("requestId", reqID)
		c.Header(RequestIDHeader, reqID)

		c.Next()

		latency := time.Since(start)
		attrs := []any{
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}
		logger.Info("http request", attrs...)

		if latency > slowRequest {
			logger.Warn("slow request", "request_id", reqID, "method", c.Request.Method, "path", c.Request.URL.Path, "duration", latency.String())
		}
	}
}
