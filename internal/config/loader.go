package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// Environment variables read on top of the file configuration.
const (
	EnvEnvironment   = "ENV"
	EnvRedisURL      = "REDIS_URL"
	EnvAuthToken     = "AUTH_TOKEN"
	EnvListenAddress = "MPIX_LISTEN_ADDRESS"
	EnvLogLevel      = "MPIX_LOG_LEVEL"
	EnvLogFormat     = "MPIX_LOG_FORMAT"
)

// Load builds the configuration from defaults, the optional YAML file at path
// and the process environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
		}
		data, err := os.ReadFile(absPath) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := parseInto(cfg, data); err != nil {
			return nil, err
		}
	}

	ApplyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader parses YAML from r on top of the defaults without applying
// environment overrides or validation.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := parseInto(cfg, data); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseInto substitutes environment variables and decodes YAML into cfg.
func parseInto(cfg *Config, data []byte) error {
	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment variable values.
func substituteEnvVars(content string) string {
	content = strings.ReplaceAll(content, "$$", "\x00ESCAPED_DOLLAR\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		defaultValue := ""
		if len(submatches) >= 3 {
			defaultValue = submatches[2]
		}

		if value, exists := os.LookupEnv(submatches[1]); exists {
			return value
		}
		return defaultValue
	})

	return strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")
}

// ApplyEnv overrides cfg with any non-empty environment variables.
func ApplyEnv(cfg *Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvRedisURL, &cfg.Redis.URL},
		{EnvAuthToken, &cfg.Auth.Token},
		{EnvListenAddress, &cfg.Server.Address},
		{EnvLogLevel, &cfg.Log.Level},
		{EnvLogFormat, &cfg.Log.Format},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.target = v
		}
	}
	if v := os.Getenv(EnvEnvironment); v != "" {
		cfg.Env = Environment(v)
	}
}
