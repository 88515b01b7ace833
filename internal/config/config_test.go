package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/mpix/internal/util"
)

func TestParseEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Environment
		wantErr bool
	}{
		{name: "local", input: "local", want: EnvironmentLocal},
		{name: "production", input: "production", want: EnvironmentProduction},
		{name: "mixed case with spaces", input: "  Production ", want: EnvironmentProduction},
		{name: "upper", input: "LOCAL", want: EnvironmentLocal},
		{name: "unknown", input: "staging", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEnvironment(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, util.KindConfig, util.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	assert.Equal(t, DefaultAddress, cfg.Server.Address)
	assert.Equal(t, DefaultKeyPrefix, cfg.Redis.KeyPrefix)
	assert.Equal(t, DefaultAuthHeader, cfg.Auth.Header)
	assert.Equal(t, []string{"", "/status"}, cfg.Auth.ExemptPaths)
	assert.Equal(t, []string{"/p/"}, cfg.Auth.ExemptPrefixes)
	assert.Equal(t, DefaultOperationTimeout, cfg.Redis.OperationTimeout.Duration())
	assert.Empty(t, cfg.Env)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Auth.Token)
}

func TestConfig_LogFormat(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Env = EnvironmentLocal
	assert.Equal(t, "console", cfg.LogFormat())
	assert.False(t, cfg.IsProduction())

	cfg.Env = EnvironmentProduction
	assert.Equal(t, "json", cfg.LogFormat())
	assert.True(t, cfg.IsProduction())

	cfg.Log.Format = "console"
	assert.Equal(t, "console", cfg.LogFormat())
}
