package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vyrodovalexey/mpix/internal/util"
)

// Request ID constants.
const (
	// RequestIDHeader is the header carrying the request ID.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "requestID"
	// maxRequestIDLength bounds client supplied ids.
	maxRequestIDLength = 128
)

// RequestID returns a middleware that propagates the X-Request-ID header or
// generates a new id. The id is stored on the gin context, on the request
// context and echoed in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Request = c.Request.WithContext(util.ContextWithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID returns the request ID stored on the gin context.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
