package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/mpix/internal/util"
)

// Tests in this file mutate the process environment and cannot run in parallel.

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvEnvironment, "local")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvAuthToken, "secret")
}

func TestLoad_EnvOnly(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvEnvironment, " PRODUCTION ")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EnvironmentProduction, cfg.Env)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "secret", cfg.Auth.Token)
	assert.Equal(t, DefaultAddress, cfg.Server.Address)
}

func TestLoad_MissingVars(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		field string
	}{
		{name: "env", unset: EnvEnvironment, field: "env"},
		{name: "redis url", unset: EnvRedisURL, field: "redis.url"},
		{name: "auth token", unset: EnvAuthToken, field: "auth.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load("")
			require.Error(t, err)
			assert.Equal(t, util.KindConfig, util.KindOf(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvEnvironment, "staging")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")
}

func TestLoad_File(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MPIX_TEST_PREFIX", "pixels")
	t.Setenv(EnvListenAddress, ":8081")

	path := filepath.Join(t.TempDir(), "mpix.yaml")
	content := `
server:
  address: ":5000"
  readTimeout: 5s
redis:
  keyPrefix: ${MPIX_TEST_PREFIX}
  operationTimeout: 500ms
auth:
  lookupTimeout: ${MPIX_TEST_UNSET:-750ms}
rateLimit:
  enabled: true
  rps: 5
  burst: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Server.Address, "environment overrides the file")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Duration())
	assert.Equal(t, "pixels", cfg.Redis.KeyPrefix)
	assert.Equal(t, 500*time.Millisecond, cfg.Redis.OperationTimeout.Duration())
	assert.Equal(t, 750*time.Millisecond, cfg.Auth.LookupTimeout.Duration())
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, DefaultAuthHeader, cfg.Auth.Header, "defaults survive partial files")
}

func TestLoad_FileNotFound(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load("/nonexistent/path/mpix.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadFromReader(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("env: local\nlog:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, Environment("local"), cfg.Env)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("MPIX_TEST_VALUE", "abc")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "set var", input: "x: ${MPIX_TEST_VALUE}", want: "x: abc"},
		{name: "default used", input: "x: ${MPIX_TEST_MISSING:-def}", want: "x: def"},
		{name: "default ignored", input: "x: ${MPIX_TEST_VALUE:-def}", want: "x: abc"},
		{name: "missing without default", input: "x: ${MPIX_TEST_MISSING}", want: "x: "},
		{name: "escaped dollar", input: "x: $${MPIX_TEST_VALUE}", want: "x: ${MPIX_TEST_VALUE}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, substituteEnvVars(tt.input))
		})
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join("..", "..", "configs", "mpix.yaml"))
	require.NoError(t, err)

	assert.Equal(t, EnvironmentLocal, cfg.Env)
	assert.Equal(t, "secret", cfg.Auth.Token)
	assert.Equal(t, []string{"", "/status"}, cfg.Auth.ExemptPaths)
	assert.Equal(t, []string{"/p/"}, cfg.Auth.ExemptPrefixes)
	assert.Equal(t, 2*time.Second, cfg.Redis.OperationTimeout.Duration())
	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.Equal(t, "console", cfg.LogFormat())
}
