package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/mpix/internal/observability"
)

// BodyServerError is written when a panic is recovered.
const BodyServerError = "server error"

// Recovery returns a middleware that turns panics into a 500 response.
func Recovery(logger observability.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.Error("panic recovered",
				observability.String("error", fmt.Sprint(rec)),
				observability.String("method", c.Request.Method),
				observability.String("path", c.Request.URL.Path),
				observability.String("request_id", GetRequestID(c)),
				observability.String("stack", string(debug.Stack())),
			)

			if RouteName(c) == "" {
				SetRoute(c, RoutePanic)
			}
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.AbortWithStatus(http.StatusInternalServerError)
			_, _ = c.Writer.WriteString(BodyServerError)
		}()

		c.Next()
	}
}
