package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/router"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// TimestampLayout is the layout of the timestamp field in request logs.
const TimestampLayout = "2006-01-02 15:04:05"

// Logging returns a middleware that writes one log line per request after
// the response is produced. Logging never affects the response: a failure
// while building the line is swallowed.
func Logging(logger observability.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(util.ContextWithStartTime(c.Request.Context(), start))

		c.Next()

		logRequest(logger, c, start)
	}
}

func logRequest(logger observability.Logger, c *gin.Context, start time.Time) {
	defer func() {
		_ = recover()
	}()

	status := c.Writer.Status()
	fields := []observability.Field{
		observability.String("method", c.Request.Method),
		observability.String("path", router.NormalizePath(c.Request.URL.Path)),
		observability.Int("status", status),
		observability.String("timestamp", start.Format(TimestampLayout)),
		observability.Float64("elapsed_ms", util.ElapsedMillis(start)),
		observability.String("request_id", GetRequestID(c)),
		observability.String("route", RouteName(c)),
	}

	switch {
	case status >= 500:
		logger.Error("request completed", fields...)
	case status >= 400:
		logger.Warn("request completed", fields...)
	default:
		logger.Info("request completed", fields...)
	}
}
