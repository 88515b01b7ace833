package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/mpix/internal/config"
	"github.com/vyrodovalexey/mpix/internal/observability"
)

// Rate limiter defaults.
const (
	// DefaultClientTTL is how long an idle client entry is kept.
	DefaultClientTTL = 10 * time.Minute
	// MinCleanupInterval is the minimum interval between cleanups.
	MinCleanupInterval = 10 * time.Second
	// MaxCleanupInterval is the maximum interval between cleanups.
	MaxCleanupInterval = time.Minute
)

// BodyRateLimited is written when a client exceeds its rate.
const BodyRateLimited = "rate limit exceeded"

type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	clients   map[string]*clientEntry
	mu        sync.Mutex
	rps       int
	burst     int
	clientTTL time.Duration
	logger    observability.Logger
	metrics   *observability.Metrics
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// RateLimiterOption is a functional option for the rate limiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterLogger sets the logger.
func WithRateLimiterLogger(logger observability.Logger) RateLimiterOption {
	return func(rl *RateLimiter) {
		if logger != nil {
			rl.logger = logger
		}
	}
}

// WithRateLimiterMetrics sets the metrics sink.
func WithRateLimiterMetrics(m *observability.Metrics) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.metrics = m
	}
}

// WithClientTTL sets how long idle client entries are kept.
func WithClientTTL(ttl time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		if ttl > 0 {
			rl.clientTTL = ttl
		}
	}
}

// NewRateLimiter creates a per-client rate limiter.
func NewRateLimiter(rps, burst int, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		clients:   make(map[string]*clientEntry),
		rps:       rps,
		burst:     burst,
		clientTTL: DefaultClientTTL,
		logger:    observability.NopLogger(),
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Allow reports whether the client may issue another request.
func (rl *RateLimiter) Allow(client string) bool {
	now := rl.now()

	rl.mu.Lock()
	entry, ok := rl.clients[client]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst)}
		rl.clients[client] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// CleanupOldClients drops clients idle for longer than maxAge.
func (rl *RateLimiter) CleanupOldClients(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for client, entry := range rl.clients {
		if now.Sub(entry.lastAccess) > maxAge {
			delete(rl.clients, client)
			removed++
		}
	}

	if removed > 0 {
		rl.logger.Debug("cleaned up expired rate limiter entries",
			observability.Int("removed", removed),
			observability.Int("remaining", len(rl.clients)),
		)
	}
}

// StartAutoCleanup periodically removes idle clients until Stop is called.
func (rl *RateLimiter) StartAutoCleanup() {
	interval := rl.clientTTL / 2
	if interval < MinCleanupInterval {
		interval = MinCleanupInterval
	}
	if interval > MaxCleanupInterval {
		interval = MaxCleanupInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.CleanupOldClients(rl.clientTTL)
			case <-rl.stopCh:
				return
			}
		}
	}()
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

// Middleware returns the gin middleware enforcing the limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		if rl.Allow(client) {
			c.Next()
			return
		}

		rl.logger.Warn("rate limit exceeded",
			observability.String("client_ip", client),
			observability.String("path", c.Request.URL.Path),
		)
		rl.metrics.RecordRateLimitHit(RouteRateLimited)

		SetRoute(c, RouteRateLimited)
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Retry-After", "1")
		c.AbortWithStatus(http.StatusTooManyRequests)
		_, _ = c.Writer.WriteString(BodyRateLimited)
	}
}

// RateLimitFromConfig builds the rate limit middleware. When the limiter is
// disabled it returns a pass-through handler and a nil limiter. The caller
// stops a non-nil limiter on shutdown.
func RateLimitFromConfig(
	cfg config.RateLimitConfig,
	logger observability.Logger,
	metrics *observability.Metrics,
) (gin.HandlerFunc, *RateLimiter) {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }, nil
	}

	rl := NewRateLimiter(cfg.RPS, cfg.Burst,
		WithRateLimiterLogger(logger),
		WithRateLimiterMetrics(metrics),
	)
	rl.StartAutoCleanup()
	return rl.Middleware(), rl
}
