package store

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/mpix/internal/config"
	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/util"
)

func redisConfig(mr *miniredis.Miniredis) config.RedisConfig {
	return config.RedisConfig{
		URL:              "redis://" + mr.Addr(),
		KeyPrefix:        "mpix",
		OperationTimeout: config.Duration(500 * time.Millisecond),
	}
}

// setupStore creates a miniredis server and a store connected to it.
func setupStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	s, err := New(context.Background(), redisConfig(mr), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, mr
}

func TestNew(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.RedisConfig
		wantErr util.Kind
	}{
		{name: "valid", cfg: redisConfig(mr)},
		{
			name: "with pool size",
			cfg: config.RedisConfig{
				URL:            "redis://" + mr.Addr(),
				PoolSize:       4,
				ConnectTimeout: config.Duration(time.Second),
			},
		},
		{name: "missing url", cfg: config.RedisConfig{}, wantErr: util.KindConfig},
		{name: "invalid url", cfg: config.RedisConfig{URL: "://nope"}, wantErr: util.KindConfig},
		{
			name: "sentinel without addresses",
			cfg: config.RedisConfig{
				Sentinel: &config.RedisSentinelConfig{MasterName: "mymaster"},
			},
			wantErr: util.KindConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := New(context.Background(), tt.cfg)
			if tt.wantErr != util.KindInternal {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, util.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.NoError(t, s.Close())
		})
	}
}

func TestNew_Unreachable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := redisConfig(mr)
	mr.Close()

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrStore)
}

func TestKeys(t *testing.T) {
	t.Parallel()

	k := NewKeys("mpix")
	assert.Equal(t, "mpix.users", k.Users())
	assert.Equal(t, "mpix.user:owner1", k.User("owner1"))
	assert.Equal(t, "mpix.token:abc", k.Token("abc"))
}

func TestNewWithClient_DefaultPrefix(t *testing.T) {
	t.Parallel()

	s, _ := setupStore(t)
	s2 := NewWithClient(s.client, config.RedisConfig{})

	assert.Equal(t, "mpix.users", s2.Keys().Users())
	assert.Equal(t, config.DefaultOperationTimeout, s2.timeout)
}

func TestStore_Hash(t *testing.T) {
	t.Parallel()

	s, mr := setupStore(t)
	ctx := context.Background()

	_, found, err := s.HGet(ctx, "mpix.users", "alice")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.HSet(ctx, "mpix.users", "alice", `{"created":"x"}`))
	assert.Equal(t, `{"created":"x"}`, mr.HGet("mpix.users", "alice"))

	v, found, err := s.HGet(ctx, "mpix.users", "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"created":"x"}`, v)

	written, err := s.HSetNX(ctx, "mpix.users", "alice", "other")
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, `{"created":"x"}`, mr.HGet("mpix.users", "alice"))

	written, err = s.HSetNX(ctx, "mpix.users", "bob", "b")
	require.NoError(t, err)
	assert.True(t, written)

	exists, err := s.HExists(ctx, "mpix.users", "bob")
	require.NoError(t, err)
	assert.True(t, exists)

	all, err := s.HGetAll(ctx, "mpix.users")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"alice": `{"created":"x"}`, "bob": "b"}, all)
}

func TestStore_PushTrim(t *testing.T) {
	t.Parallel()

	s, mr := setupStore(t)
	ctx := context.Background()
	key := s.Keys().Token("abc")

	for i := 1; i <= 250; i++ {
		n, err := s.PushTrim(ctx, key, strconv.Itoa(i), 200)
		require.NoError(t, err)
		assert.Equal(t, int64(min(i, 200)), n)
	}

	list, err := mr.List(key)
	require.NoError(t, err)
	require.Len(t, list, 200)
	assert.Equal(t, "250", list[0])
	assert.Equal(t, "51", list[199])

	values, err := s.Range(ctx, key, 200)
	require.NoError(t, err)
	assert.Equal(t, list, values)

	head, err := s.Range(ctx, key, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"250", "249", "248"}, head)

	n, err := s.LLen(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(200), n)
}

func TestStore_InvalidLimit(t *testing.T) {
	t.Parallel()

	s, _ := setupStore(t)
	ctx := context.Background()

	_, err := s.PushTrim(ctx, "k", "v", 0)
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	_, err = s.Range(ctx, "k", -1)
	assert.Equal(t, util.KindValidation, util.KindOf(err))
}

func TestStore_LLenMany(t *testing.T) {
	t.Parallel()

	s, mr := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := mr.Lpush("a", fmt.Sprint(i))
		require.NoError(t, err)
	}
	_, err := mr.Lpush("b", "x")
	require.NoError(t, err)

	lengths, err := s.LLenMany(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 0}, lengths)

	lengths, err = s.LLenMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, lengths)
}

func TestStore_Errors(t *testing.T) {
	t.Parallel()

	s, mr := setupStore(t)
	ctx := context.Background()
	mr.Close()

	_, _, err := s.HGet(ctx, "mpix.users", "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrStore)
	assert.Contains(t, err.Error(), "hget")

	_, err = s.PushTrim(ctx, "k", "v", 200)
	assert.ErrorIs(t, err, util.ErrStore)

	assert.ErrorIs(t, s.Ping(ctx), util.ErrStore)
}

func TestStore_CircuitBreaker(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewMetrics("test")

	s, mr := setupStore(t,
		WithLogger(observability.FromZap(zap.New(core))),
		WithMetrics(metrics),
		WithCircuitBreaker(config.CircuitBreakerConfig{
			Enabled:   true,
			Threshold: 2,
			Timeout:   config.Duration(time.Minute),
		}),
	)
	ctx := context.Background()
	assert.Equal(t, "closed", s.BreakerState())

	mr.Close()
	for i := 0; i < 2; i++ {
		_, err := s.PushTrim(ctx, "k", "v", 200)
		require.Error(t, err)
	}

	assert.Equal(t, "open", s.BreakerState())

	_, err := s.PushTrim(ctx, "k", "v", 200)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, util.ErrStore)

	assert.NotZero(t, logs.FilterMessage("circuit breaker state change").Len())
}

func TestStore_BreakerDisabled(t *testing.T) {
	t.Parallel()

	s, _ := setupStore(t)
	assert.Nil(t, s.breaker)
	assert.Equal(t, "closed", s.BreakerState())
}
