package middleware

import (
	"time"

	"example.com/registrar/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Logger returns a gin middleware that logs each request and records its
// latency in the metrics collector
func Logger(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		m.IncrementCounter("http_requests")
		m.RecordTimer("http_request_ms", latency.Milliseconds())
		if statusCode >= 500 {
			m.RecordError("http_requests")
		} else {
			m.RecordSuccess("http_requests")
		}

		entry := log.Info()
		if statusCode >= 500 {
			entry = log.Error()
		} else if statusCode >= 400 {
			entry = log.Warn()
		}

		entry.
			Int("status", statusCode).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Msg("request processed")
	}
}
