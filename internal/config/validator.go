package config

import (
	"net/url"

	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// Validate checks cfg and normalises the environment name. Every error it
// returns is a util.KindConfig error.
func Validate(cfg *Config) error {
	if cfg.Env == "" {
		return util.NewConfigError("env", "missing var: "+EnvEnvironment)
	}
	env, err := ParseEnvironment(string(cfg.Env))
	if err != nil {
		return err
	}
	cfg.Env = env

	if err := validateRedis(&cfg.Redis); err != nil {
		return err
	}
	if err := validateAuth(&cfg.Auth); err != nil {
		return err
	}

	if cfg.Server.Address == "" {
		return util.NewConfigError("server.address", "is required")
	}
	if cfg.Server.MaxRequestBodySize < 0 {
		return util.NewConfigError("server.maxRequestBodySize", "must not be negative")
	}

	if _, err := observability.ParseLevel(cfg.Log.Level); err != nil {
		return util.NewConfigErrorWithCause("log.level", "invalid level", err)
	}
	switch cfg.Log.Format {
	case "", "json", "console":
	default:
		return util.NewConfigError("log.format", "must be json or console")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Address == "" {
		return util.NewConfigError("metrics.address", "is required when metrics are enabled")
	}
	if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
		return util.NewConfigError("tracing.samplingRate", "must be between 0 and 1")
	}
	if cfg.CircuitBreaker.Enabled &&
		(cfg.CircuitBreaker.Threshold <= 0 || cfg.CircuitBreaker.Timeout <= 0) {
		return util.NewConfigError("circuitBreaker", "threshold and timeout must be positive")
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst <= 0) {
		return util.NewConfigError("rateLimit", "rps and burst must be positive")
	}
	return nil
}

func validateRedis(cfg *RedisConfig) error {
	sentinel := cfg.Sentinel != nil && cfg.Sentinel.MasterName != ""
	switch {
	case sentinel && len(cfg.Sentinel.SentinelAddrs) == 0:
		return util.NewConfigError("redis.sentinel.sentinelAddrs", "at least one address is required")
	case !sentinel && cfg.URL == "":
		return util.NewConfigError("redis.url", "missing var: "+EnvRedisURL)
	case !sentinel:
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return util.NewConfigErrorWithCause("redis.url", "invalid url", err)
		}
		if u.Scheme != "redis" && u.Scheme != "rediss" {
			return util.NewConfigError("redis.url", "scheme must be redis or rediss")
		}
	}
	if cfg.OperationTimeout <= 0 {
		return util.NewConfigError("redis.operationTimeout", "must be positive")
	}
	if cfg.KeyPrefix == "" {
		return util.NewConfigError("redis.keyPrefix", "is required")
	}
	return nil
}

func validateAuth(cfg *AuthConfig) error {
	if cfg.Token == "" {
		return util.NewConfigError("auth.token", "missing var: "+EnvAuthToken)
	}
	if cfg.Header == "" {
		return util.NewConfigError("auth.header", "is required")
	}
	if cfg.LookupTimeout <= 0 {
		return util.NewConfigError("auth.lookupTimeout", "must be positive")
	}
	return nil
}
