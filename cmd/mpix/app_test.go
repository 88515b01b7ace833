package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vyrodovalexey/mpix/internal/auth"
	"github.com/vyrodovalexey/mpix/internal/config"
	"github.com/vyrodovalexey/mpix/internal/observability"
)

const testSecret = "s3cret-token"

func testConfig(mr *miniredis.Miniredis) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Env = config.EnvironmentProduction
	cfg.Redis.URL = "redis://" + mr.Addr()
	cfg.Redis.OperationTimeout = config.Duration(500 * time.Millisecond)
	cfg.Redis.MaxRetries = 0
	cfg.Auth.Token = testSecret
	cfg.Metrics.Enabled = true
	cfg.Metrics.Address = "127.0.0.1:0"
	cfg.Server.Address = "127.0.0.1:0"
	return cfg
}

func setupApp(t *testing.T) (*application, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := testConfig(mr)
	require.NoError(t, config.Validate(cfg))

	app, err := newApplication(context.Background(), cfg, observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		app.engine.Close()
		_ = app.store.Close()
	})
	return app, mr
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func authed() map[string]string {
	return map[string]string{auth.DefaultHeader: testSecret}
}

type tokenStats struct {
	Token       string `json:"token"`
	Description string `json:"description"`
	Count       int64  `json:"count"`
}

func countFor(t *testing.T, app *application, token string) int64 {
	t.Helper()

	w := do(t, app.engine, http.MethodGet, "/stat", "", authed())
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Tokens []tokenStats `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	for _, ts := range body.Tokens {
		if ts.Token == token {
			return ts.Count
		}
	}
	t.Fatalf("token %s not listed", token)
	return 0
}

func TestEndToEnd_CreateAndTrack(t *testing.T) {
	app, _ := setupApp(t)

	w := do(t, app.engine, http.MethodPost, "/create", `{"description":"test"}`, authed())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var created struct {
		Token       string    `json:"token"`
		Description string    `json:"description"`
		Created     time.Time `json:"created"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Regexp(t, `^[0-9a-f]{32}$`, created.Token)
	assert.Equal(t, "test", created.Description)
	assert.False(t, created.Created.IsZero())

	assert.EqualValues(t, 0, countFor(t, app, created.Token))

	for want := int64(1); want <= 2; want++ {
		w = do(t, app.engine, http.MethodGet, "/p/"+created.Token, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.EqualValues(t, want, countFor(t, app, created.Token))
	}

	w = do(t, app.engine, http.MethodGet, "/stat/"+created.Token, "", authed())
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Token  string `json:"token"`
		Count  int    `json:"count"`
		Events []struct {
			Created time.Time `json:"created"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Equal(t, 2, history.Count)
	require.Len(t, history.Events, 2)
	assert.False(t, history.Events[0].Created.Before(history.Events[1].Created), "newest first")
}

func TestEndToEnd_TrailingSlash(t *testing.T) {
	app, _ := setupApp(t)

	a := do(t, app.engine, http.MethodGet, "/stat", "", authed())
	b := do(t, app.engine, http.MethodGet, "/stat/", "", authed())

	assert.Equal(t, http.StatusOK, a.Code)
	assert.Equal(t, a.Code, b.Code)
	assert.JSONEq(t, a.Body.String(), b.Body.String())
}

func TestEndToEnd_StatusStable(t *testing.T) {
	app, _ := setupApp(t)

	first := do(t, app.engine, http.MethodGet, "/status", "", nil)
	second := do(t, app.engine, http.MethodGet, "/status", "", nil)

	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, `{"status":"ok","hash":"`+gitCommit+`"}`, first.Body.String())
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestEndToEnd_Unauthorized(t *testing.T) {
	app, mr := setupApp(t)

	tests := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
	}{
		{name: "create without header", method: http.MethodPost, path: "/create"},
		{name: "stat with unknown token", method: http.MethodGet, path: "/stat", headers: map[string]string{auth.DefaultHeader: "nope"}},
		{name: "unknown path without header", method: http.MethodGet, path: "/nowhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(mr.Keys())

			w := do(t, app.engine, tt.method, tt.path, `{"description":"x"}`, tt.headers)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", w.Body.String())
			assert.Len(t, mr.Keys(), before, "rejected requests do not write")
		})
	}
}

func TestEndToEnd_ExemptPathsSkipStore(t *testing.T) {
	app, mr := setupApp(t)
	mr.Close()

	w := do(t, app.engine, http.MethodGet, "/status", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, app.engine, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html", w.Header().Get("Content-Type"))

	w = do(t, app.engine, http.MethodGet, "/stat", "", authed())
	assert.Equal(t, http.StatusUnauthorized, w.Code, "lookup failure fails closed")

	w = do(t, app.engine, http.MethodGet, "/p/abc", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "server error", w.Body.String())
}

func TestEndToEnd_NotFound(t *testing.T) {
	app, _ := setupApp(t)

	w := do(t, app.engine, http.MethodGet, "/nowhere", "", authed())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found", w.Body.String())
}

func TestEndToEnd_BadRequest(t *testing.T) {
	app, _ := setupApp(t)

	w := do(t, app.engine, http.MethodPost, "/create", `{"description":`, authed())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad request", w.Body.String())
}

func TestEndToEnd_Gzip(t *testing.T) {
	app, _ := setupApp(t)

	plain := do(t, app.engine, http.MethodGet, "/", "", nil)
	compressed := do(t, app.engine, http.MethodGet, "/", "", map[string]string{"Accept-Encoding": "deflate, GZIP"})

	require.Equal(t, http.StatusOK, compressed.Code)
	assert.Equal(t, "gzip", compressed.Header().Get("Content-Encoding"))
	assert.Equal(t, plain.Header().Get("Content-Type"), compressed.Header().Get("Content-Type"))

	zr, err := gzip.NewReader(compressed.Body)
	require.NoError(t, err)
	decoded, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, plain.Body.String(), string(decoded))
	assert.Empty(t, plain.Header().Get("Content-Encoding"))
}

func TestEndToEnd_RequestID(t *testing.T) {
	app, _ := setupApp(t)

	w := do(t, app.engine, http.MethodGet, "/status", "", map[string]string{"X-Request-ID": "req-1"})

	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
}

func TestBootstrap_DoesNotOverwrite(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.HSet("mpix.users", testSecret, `{"name":"operator"}`)

	app, err := newApplication(context.Background(), testConfig(mr), observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		app.engine.Close()
		_ = app.store.Close()
	})

	assert.Equal(t, `{"name":"operator"}`, mr.HGet("mpix.users", testSecret))
}

func TestBootstrap_RegistersSecret(t *testing.T) {
	_, mr := setupApp(t)

	assert.JSONEq(t, `{"name":"admin"}`, mr.HGet("mpix.users", testSecret))
}

func TestAdmin(t *testing.T) {
	app, mr := setupApp(t)
	require.NotNil(t, app.admin)
	admin := app.admin.Handler()

	do(t, app.engine, http.MethodGet, "/status", "", nil)

	w := do(t, admin, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `mpix_requests_total{method="GET",route="status",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "mpix_build_info")

	w = do(t, admin, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, admin, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	mr.Close()
	w = do(t, admin, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis"`)
}

func TestNewApplication_TracingEnabled(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	mr := miniredis.RunT(t)
	cfg := testConfig(mr)
	cfg.Tracing.Enabled = true
	cfg.Tracing.SamplingRate = 1.0
	require.NoError(t, config.Validate(cfg))

	app, err := newApplication(context.Background(), cfg, observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		app.engine.Close()
		_ = app.store.Close()
		_ = app.tracer.Shutdown(context.Background())
	})
	require.True(t, app.tracer.Enabled())

	provider, ok := app.tracer.Provider().(*sdktrace.TracerProvider)
	require.True(t, ok)
	recorder := tracetest.NewSpanRecorder()
	provider.RegisterSpanProcessor(recorder)

	w := do(t, app.engine, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Contains(t, names, "GET status")
}

func TestNewApplication_StoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(mr)
	mr.Close()

	_, err := newApplication(context.Background(), cfg, observability.NopLogger())

	assert.Error(t, err)
}

func TestShutdown(t *testing.T) {
	app, _ := setupApp(t)

	go func() { _ = app.public.Start() }()
	require.Eventually(t, app.public.IsRunning, time.Second, 10*time.Millisecond)

	app.shutdown()

	assert.False(t, app.public.IsRunning())
}
