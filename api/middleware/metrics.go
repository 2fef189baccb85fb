package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/observability"
)

// Telemetry wraps each request in a span and records request metrics.
// A nil m records spans only.
func Telemetry(m *observability.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanHTTPRequest)
		if id := c.GetString(logger.FieldRequestID); id != "" {
			observability.SetSpanAttribute(ctx, observability.AttrRequestID, id)
		}
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		m.RecordRequestStart(ctx)
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequestEnd(ctx, route, c.Request.Method, status, time.Since(start))

		var err error
		if status >= 500 {
			err = fmt.Errorf("%s %s: status %d", c.Request.Method, route, status)
		}
		observability.EndSpan(span, err)
	}
}
