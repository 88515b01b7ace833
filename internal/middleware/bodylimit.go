package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/mpix/internal/observability"
)

// BodyTooLarge is written when a declared Content-Length exceeds the limit.
const BodyTooLarge = "request entity too large"

// BodyLimit returns a middleware that rejects requests whose declared body is
// larger than maxSize and caps reads of undeclared bodies. A non-positive
// maxSize disables the limit.
func BodyLimit(maxSize int64, logger observability.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		if maxSize <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxSize {
			logger.Warn("request body too large",
				observability.Int64("content_length", c.Request.ContentLength),
				observability.Int64("max_size", maxSize),
				observability.String("path", c.Request.URL.Path),
			)
			SetRoute(c, RouteTooLarge)
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			_, _ = c.Writer.WriteString(BodyTooLarge)
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		c.Next()
	}
}
