package store

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Retry defaults for idempotent reads.
const (
	DefaultInitialBackoff = 25 * time.Millisecond
	DefaultMaxBackoff     = 500 * time.Millisecond
	DefaultJitterFactor   = 0.25
)

// retryPolicy contains retry configuration parameters.
type retryPolicy struct {
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	jitterFactor   float64
}

// onRetryFunc is called before each retry attempt.
type onRetryFunc func(attempt int, err error, backoff time.Duration)

// isRetryable reports whether err is worth another attempt. Misses, context
// errors and an open breaker are final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, redis.Nil),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return false
	}
	return true
}

// do executes fn, retrying retryable failures until maxRetries is exhausted
// or ctx is done.
func (p retryPolicy) do(ctx context.Context, fn func() error, onRetry onRetryFunc) error {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return lastErr
			}
			return ctx.Err()
		default:
		}

		lastErr = fn()
		if lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			backoff := calculateBackoff(attempt, p.initialBackoff, p.maxBackoff, p.jitterFactor)
			if onRetry != nil {
				onRetry(attempt+1, lastErr, backoff)
			}

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return lastErr
			case <-timer.C:
			}
		}
	}

	return lastErr
}

// calculateBackoff calculates the backoff duration for a given attempt.
func calculateBackoff(attempt int, initialBackoff, maxBackoff time.Duration, jitterFactor float64) time.Duration {
	backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))

	//nolint:gosec // G404: jitter for retry timing is not security-sensitive
	backoff += backoff * jitterFactor * rand.Float64()

	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}
