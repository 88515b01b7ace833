package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/mpix/internal/observability"
)

// Metrics returns a middleware recording request count and latency by
// method, route and status.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		m.RecordRequest(c.Request.Method, RouteName(c), c.Writer.Status(), time.Since(start))
	}
}
