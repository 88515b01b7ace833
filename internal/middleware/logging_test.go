package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/mpix/internal/observability"
)

func TestLogging(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		status        int
		expectedLevel zapcore.Level
		expectedPath  string
	}{
		{name: "success at info", path: "/status", status: http.StatusOK, expectedLevel: zapcore.InfoLevel, expectedPath: "/status"},
		{name: "client error at warn", path: "/stat/", status: http.StatusNotFound, expectedLevel: zapcore.WarnLevel, expectedPath: "/stat"},
		{name: "server error at error", path: "/create", status: http.StatusInternalServerError, expectedLevel: zapcore.ErrorLevel, expectedPath: "/create"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := newObservedLogger(t)

			engine := gin.New()
			engine.Use(RequestID(), Logging(logger))
			engine.NoRoute(func(c *gin.Context) {
				SetRoute(c, "test_route")
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			entries := logs.FilterMessage("request completed").All()
			require.Len(t, entries, 1)

			entry := entries[0]
			assert.Equal(t, tt.expectedLevel, entry.Level)

			fields := entry.ContextMap()
			assert.Equal(t, http.MethodGet, fields["method"])
			assert.Equal(t, tt.expectedPath, fields["path"])
			assert.EqualValues(t, tt.status, fields["status"])
			assert.Equal(t, "test_route", fields["route"])
			assert.Equal(t, w.Header().Get(RequestIDHeader), fields["request_id"])

			elapsed, ok := fields["elapsed_ms"].(float64)
			require.True(t, ok)
			assert.GreaterOrEqual(t, elapsed, 0.0)

			ts, ok := fields["timestamp"].(string)
			require.True(t, ok)
			_, err := time.Parse(TimestampLayout, ts)
			assert.NoError(t, err)
		})
	}
}

func TestLogging_NilLogger(t *testing.T) {
	engine := gin.New()
	engine.Use(Logging(nil))
	engine.NoRoute(func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

type panickingLogger struct {
	observability.Logger
}

func (panickingLogger) Info(string, ...observability.Field) { panic("sink failure") }

func TestLogging_PanicInLoggerIsSwallowed(t *testing.T) {
	engine := gin.New()
	engine.Use(Logging(panickingLogger{Logger: observability.NopLogger()}))
	engine.NoRoute(func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
