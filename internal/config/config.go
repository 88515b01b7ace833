package config

import (
	"strings"
	"time"

	"github.com/vyrodovalexey/mpix/internal/util"
)

// Environment is the deployment environment.
type Environment string

// Supported environments.
const (
	EnvironmentLocal      Environment = "local"
	EnvironmentProduction Environment = "production"
)

// ParseEnvironment parses an environment name, ignoring case and surrounding space.
func ParseEnvironment(s string) (Environment, error) {
	switch env := Environment(strings.ToLower(strings.TrimSpace(s))); env {
	case EnvironmentLocal, EnvironmentProduction:
		return env, nil
	default:
		return "", util.NewConfigError("env", "invalid environment "+strings.TrimSpace(s))
	}
}

// Config holds all configuration settings for the service.
type Config struct {
	Env            Environment          `yaml:"env" json:"env"`
	Server         ServerConfig         `yaml:"server" json:"server"`
	Redis          RedisConfig          `yaml:"redis" json:"redis"`
	Auth           AuthConfig           `yaml:"auth" json:"auth"`
	Log            LogConfig            `yaml:"log" json:"log"`
	Metrics        MetricsConfig        `yaml:"metrics" json:"metrics"`
	Tracing        TracingConfig        `yaml:"tracing" json:"tracing"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker" json:"circuitBreaker"`
	RateLimit      RateLimitConfig      `yaml:"rateLimit" json:"rateLimit"`
}

// ServerConfig configures the public HTTP listener.
type ServerConfig struct {
	Address            string   `yaml:"address" json:"address"`
	ReadTimeout        Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout       Duration `yaml:"writeTimeout" json:"writeTimeout"`
	IdleTimeout        Duration `yaml:"idleTimeout" json:"idleTimeout"`
	ShutdownTimeout    Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
	MaxRequestBodySize int64    `yaml:"maxRequestBodySize" json:"maxRequestBodySize"`
}

// RedisConfig configures the key-value store connection.
type RedisConfig struct {
	URL              string               `yaml:"url" json:"url"`
	KeyPrefix        string               `yaml:"keyPrefix" json:"keyPrefix"`
	PoolSize         int                  `yaml:"poolSize" json:"poolSize"`
	ConnectTimeout   Duration             `yaml:"connectTimeout" json:"connectTimeout"`
	OperationTimeout Duration             `yaml:"operationTimeout" json:"operationTimeout"`
	MaxRetries       int                  `yaml:"maxRetries" json:"maxRetries"`
	Sentinel         *RedisSentinelConfig `yaml:"sentinel,omitempty" json:"sentinel,omitempty"`
}

// RedisSentinelConfig configures Sentinel failover mode.
type RedisSentinelConfig struct {
	MasterName       string   `yaml:"masterName" json:"masterName"`
	SentinelAddrs    []string `yaml:"sentinelAddrs" json:"sentinelAddrs"`
	SentinelPassword string   `yaml:"sentinelPassword,omitempty" json:"sentinelPassword,omitempty"`
	Password         string   `yaml:"password,omitempty" json:"password,omitempty"`
	DB               int      `yaml:"db,omitempty" json:"db,omitempty"`
}

// AuthConfig configures the auth gate.
type AuthConfig struct {
	Header         string   `yaml:"header" json:"header"`
	Token          string   `yaml:"token" json:"-"`
	ExemptPaths    []string `yaml:"exemptPaths" json:"exemptPaths"`
	ExemptPrefixes []string `yaml:"exemptPrefixes" json:"exemptPrefixes"`
	LookupTimeout  Duration `yaml:"lookupTimeout" json:"lookupTimeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig configures the admin listener serving metrics and probes.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint" json:"otlpEndpoint"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
	ServiceName  string  `yaml:"serviceName" json:"serviceName"`
}

// CircuitBreakerConfig configures the breaker around store calls.
type CircuitBreakerConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Threshold int      `yaml:"threshold" json:"threshold"`
	Timeout   Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig configures the per-client request limiter.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	RPS     int  `yaml:"rps" json:"rps"`
	Burst   int  `yaml:"burst" json:"burst"`
}

// Default values.
const (
	DefaultAddress            = ":4000"
	DefaultMetricsAddress     = ":9090"
	DefaultKeyPrefix          = "mpix"
	DefaultAuthHeader         = "x-mpix-auth"
	DefaultOperationTimeout   = 2 * time.Second
	DefaultLookupTimeout      = 2 * time.Second
	DefaultMaxRequestBodySize = 1 << 20
)

// DefaultConfig returns a Config populated with defaults. Env, Redis.URL and
// Auth.Token have no defaults and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:            DefaultAddress,
			ReadTimeout:        Duration(30 * time.Second),
			WriteTimeout:       Duration(30 * time.Second),
			IdleTimeout:        Duration(120 * time.Second),
			ShutdownTimeout:    Duration(30 * time.Second),
			MaxRequestBodySize: DefaultMaxRequestBodySize,
		},
		Redis: RedisConfig{
			KeyPrefix:        DefaultKeyPrefix,
			ConnectTimeout:   Duration(5 * time.Second),
			OperationTimeout: Duration(DefaultOperationTimeout),
			MaxRetries:       2,
		},
		Auth: AuthConfig{
			Header:         DefaultAuthHeader,
			ExemptPaths:    []string{"", "/status"},
			ExemptPrefixes: []string{"/p/"},
			LookupTimeout:  Duration(DefaultLookupTimeout),
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Address: DefaultMetricsAddress,
		},
		Tracing: TracingConfig{
			SamplingRate: 1.0,
			ServiceName:  "mpix",
		},
		CircuitBreaker: CircuitBreakerConfig{
			Threshold: 10,
			Timeout:   Duration(30 * time.Second),
		},
		RateLimit: RateLimitConfig{
			RPS:   50,
			Burst: 100,
		},
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvironmentProduction
}

// LogFormat returns the configured log format, or the environment default:
// console for local, json for production.
func (c *Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	if c.IsProduction() {
		return "json"
	}
	return "console"
}
