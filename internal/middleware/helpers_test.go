package middleware

import (
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/mpix/internal/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newObservedLogger(t *testing.T) (observability.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return observability.FromZap(zap.New(core)), logs
}
