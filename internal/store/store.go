package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/mpix/internal/config"
	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// tracer is the OTEL tracer used for store operations.
var tracer = otel.Tracer("mpix/store")

// BreakerName labels the store circuit breaker in logs and metrics.
const BreakerName = "redis"

// Store is a Redis-backed key-value store safe for concurrent use.
type Store struct {
	client     redis.UniversalClient
	keys       Keys
	timeout    time.Duration
	retry      retryPolicy
	breaker    *breaker
	logger     observability.Logger
	metrics    *observability.Metrics
	breakerCfg config.CircuitBreakerConfig
}

// Option is a functional option for configuring the store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// WithCircuitBreaker enables the circuit breaker when cfg.Enabled is set.
func WithCircuitBreaker(cfg config.CircuitBreakerConfig) Option {
	return func(s *Store) {
		s.breakerCfg = cfg
	}
}

// New connects to Redis in standalone or Sentinel mode and verifies the
// connection with a ping.
func New(ctx context.Context, cfg config.RedisConfig, opts ...Option) (*Store, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	s := NewWithClient(client, cfg, opts...)
	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	s.logger.Info("redis store initialized",
		observability.String("keyPrefix", cfg.KeyPrefix),
		observability.Bool("sentinel", isSentinel(cfg)),
		observability.Duration("operationTimeout", s.timeout),
		observability.Int("maxRetries", s.retry.maxRetries),
		observability.Bool("circuitBreaker", s.breaker != nil),
	)
	return s, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient, cfg config.RedisConfig, opts ...Option) *Store {
	s := &Store{
		client:  client,
		keys:    NewKeys(resolveKeyPrefix(cfg.KeyPrefix)),
		timeout: cfg.OperationTimeout.Duration(),
		retry: retryPolicy{
			maxRetries:     max(cfg.MaxRetries, 0),
			initialBackoff: DefaultInitialBackoff,
			maxBackoff:     DefaultMaxBackoff,
			jitterFactor:   DefaultJitterFactor,
		},
		logger: observability.NopLogger(),
	}
	if s.timeout <= 0 {
		s.timeout = config.DefaultOperationTimeout
	}

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(observability.String("component", "store"))

	if s.breakerCfg.Enabled {
		s.breaker = newBreaker(BreakerName, s.breakerCfg.Threshold, s.breakerCfg.Timeout.Duration(), s.logger, s.metrics)
	}
	return s
}

func isSentinel(cfg config.RedisConfig) bool {
	return cfg.Sentinel != nil && cfg.Sentinel.MasterName != ""
}

// newClient builds a standalone or Sentinel client from configuration.
func newClient(cfg config.RedisConfig) (redis.UniversalClient, error) {
	if isSentinel(cfg) {
		sentinel := cfg.Sentinel
		if len(sentinel.SentinelAddrs) == 0 {
			return nil, util.NewConfigError("redis.sentinel.sentinelAddrs", "at least one sentinel address is required")
		}
		opts := &redis.FailoverOptions{
			MasterName:       sentinel.MasterName,
			SentinelAddrs:    sentinel.SentinelAddrs,
			SentinelPassword: sentinel.SentinelPassword,
			Password:         sentinel.Password,
			DB:               sentinel.DB,
		}
		if cfg.PoolSize > 0 {
			opts.PoolSize = cfg.PoolSize
		}
		if cfg.ConnectTimeout > 0 {
			opts.DialTimeout = cfg.ConnectTimeout.Duration()
		}
		return redis.NewFailoverClient(opts), nil
	}

	if cfg.URL == "" {
		return nil, util.NewConfigError("redis.url", "is required for standalone mode")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, util.NewConfigErrorWithCause("redis.url", "invalid url", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.ConnectTimeout > 0 {
		opts.DialTimeout = cfg.ConnectTimeout.Duration()
	}
	return redis.NewClient(opts), nil
}

// resolveKeyPrefix returns the configured prefix or the default.
func resolveKeyPrefix(prefix string) string {
	if prefix == "" {
		return config.DefaultKeyPrefix
	}
	return prefix
}

// Keys returns the key builder.
func (s *Store) Keys() Keys {
	return s.keys
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// do runs one store operation under a timeout, a span, the breaker and,
// for idempotent operations, the retry policy.
func (s *Store) do(ctx context.Context, op, key string, idempotent bool, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "redis."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", op),
			attribute.String("db.redis.key", key),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	run := func() error {
		return s.breaker.execute(func() error { return fn(ctx) })
	}

	var err error
	if idempotent && s.retry.maxRetries > 0 {
		err = s.retry.do(ctx, run, func(attempt int, err error, backoff time.Duration) {
			s.logger.Debug("retrying store operation",
				observability.String("op", op),
				observability.Int("attempt", attempt),
				observability.Duration("backoff", backoff),
				observability.Error(err),
			)
		})
	} else {
		err = run()
	}

	s.metrics.ObserveStoreOperation(op, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return util.NewStoreError(op, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.do(ctx, "ping", "", true, func(ctx context.Context) error {
		return s.client.Ping(ctx).Err()
	})
}

// HGet reads field from the hash at key. A missing field is reported with
// found == false and no error.
func (s *Store) HGet(ctx context.Context, key, field string) (value string, found bool, err error) {
	err = s.do(ctx, "hget", key, true, func(ctx context.Context) error {
		v, err := s.client.HGet(ctx, key, field).Result()
		if errors.Is(err, redis.Nil) {
			value, found = "", false
			return nil
		}
		if err != nil {
			return err
		}
		value, found = v, true
		return nil
	})
	return value, found, err
}

// HExists reports whether field exists in the hash at key.
func (s *Store) HExists(ctx context.Context, key, field string) (bool, error) {
	var exists bool
	err := s.do(ctx, "hexists", key, true, func(ctx context.Context) error {
		var err error
		exists, err = s.client.HExists(ctx, key, field).Result()
		return err
	})
	return exists, err
}

// HGetAll reads the whole hash at key.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	var values map[string]string
	err := s.do(ctx, "hgetall", key, true, func(ctx context.Context) error {
		var err error
		values, err = s.client.HGetAll(ctx, key).Result()
		return err
	})
	return values, err
}

// HSet writes field in the hash at key.
func (s *Store) HSet(ctx context.Context, key, field, value string) error {
	return s.do(ctx, "hset", key, true, func(ctx context.Context) error {
		return s.client.HSet(ctx, key, field, value).Err()
	})
}

// HSetNX writes field only if it does not exist yet and reports whether it
// was written.
func (s *Store) HSetNX(ctx context.Context, key, field, value string) (bool, error) {
	var written bool
	err := s.do(ctx, "hsetnx", key, true, func(ctx context.Context) error {
		var err error
		written, err = s.client.HSetNX(ctx, key, field, value).Result()
		return err
	})
	return written, err
}

// PushTrim prepends value to the list at key, trims the list to its first
// limit entries and returns the resulting length. The three commands run in
// one MULTI/EXEC transaction, so no reader observes an untrimmed list. It is
// never retried because a lost reply cannot tell whether the push applied.
func (s *Store) PushTrim(ctx context.Context, key, value string, limit int64) (int64, error) {
	if limit <= 0 {
		return 0, util.NewValidationError("list limit must be positive, got %d", limit)
	}

	var length int64
	err := s.do(ctx, "pushtrim", key, false, func(ctx context.Context) error {
		var llen *redis.IntCmd
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LPush(ctx, key, value)
			pipe.LTrim(ctx, key, 0, limit-1)
			llen = pipe.LLen(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		length = llen.Val()
		return nil
	})
	return length, err
}

// Range returns at most limit entries from the head of the list at key.
func (s *Store) Range(ctx context.Context, key string, limit int64) ([]string, error) {
	if limit <= 0 {
		return nil, util.NewValidationError("list limit must be positive, got %d", limit)
	}

	var values []string
	err := s.do(ctx, "lrange", key, true, func(ctx context.Context) error {
		var err error
		values, err = s.client.LRange(ctx, key, 0, limit-1).Result()
		return err
	})
	return values, err
}

// LLen returns the length of the list at key.
func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	var length int64
	err := s.do(ctx, "llen", key, true, func(ctx context.Context) error {
		var err error
		length, err = s.client.LLen(ctx, key).Result()
		return err
	})
	return length, err
}

// LLenMany returns the lengths of several lists in one pipelined round trip,
// in the order of keys.
func (s *Store) LLenMany(ctx context.Context, keys []string) ([]int64, error) {
	if len(keys) == 0 {
		return []int64{}, nil
	}

	lengths := make([]int64, len(keys))
	err := s.do(ctx, "llen_many", fmt.Sprintf("%d keys", len(keys)), true, func(ctx context.Context) error {
		cmds := make([]*redis.IntCmd, len(keys))
		_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, key := range keys {
				cmds[i] = pipe.LLen(ctx, key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for i, cmd := range cmds {
			lengths[i] = cmd.Val()
		}
		return nil
	})
	return lengths, err
}

// BreakerState reports the circuit breaker state, "closed" when disabled.
func (s *Store) BreakerState() string {
	return s.breaker.state().String()
}
