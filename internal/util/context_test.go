package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	ctx := ContextWithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestStartTimeContext(t *testing.T) {
	t.Parallel()

	now := time.Now()
	ctx := ContextWithStartTime(context.Background(), now)
	assert.Equal(t, now, StartTimeFromContext(ctx))
	assert.True(t, StartTimeFromContext(context.Background()).IsZero())
}

func TestElapsedMillis(t *testing.T) {
	t.Parallel()

	start := time.Now().Add(-1500 * time.Microsecond)
	elapsed := ElapsedMillis(start)
	assert.GreaterOrEqual(t, elapsed, 1.5)
	assert.Less(t, elapsed, 60_000.0)
}
