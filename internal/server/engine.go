package server

import (
	"sync"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/mpix/internal/config"
	"github.com/vyrodovalexey/mpix/internal/health"
	"github.com/vyrodovalexey/mpix/internal/middleware"
	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/util"
)

var (
	ginModeOnce sync.Once

	errMissingHandler = util.NewConfigError("server", "request handler is required")
)

// SetMode selects the gin mode for env once per process: debug for local,
// release otherwise. Later calls have no effect.
func SetMode(env config.Environment) {
	ginModeOnce.Do(func() {
		if env == config.EnvironmentLocal {
			gin.SetMode(gin.DebugMode)
			return
		}
		gin.SetMode(gin.ReleaseMode)
	})
}

// EngineConfig holds the parts of the public engine.
type EngineConfig struct {
	// Handler receives every request.
	Handler gin.HandlerFunc
	// MaxBodySize caps request bodies; zero disables the cap.
	MaxBodySize int64
	// RateLimit configures the per-client limiter.
	RateLimit config.RateLimitConfig
	// TracerProvider starts request spans; nil uses the global provider.
	TracerProvider trace.TracerProvider
	Logger         observability.Logger
	Metrics        *observability.Metrics
}

// Engine is the public gin engine together with resources it owns.
type Engine struct {
	*gin.Engine
	limiter *middleware.RateLimiter
}

// NewEngine builds the public engine. Middleware order, outermost first:
// request id, tracing, logging, metrics, recovery, rate limit, body limit.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Handler == nil {
		return nil, errMissingHandler
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	rateLimit, limiter := middleware.RateLimitFromConfig(cfg.RateLimit, cfg.Logger, cfg.Metrics)

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.TracerProvider),
		middleware.Logging(cfg.Logger.With(observability.String("component", "access"))),
		middleware.Metrics(cfg.Metrics),
		middleware.Recovery(cfg.Logger),
		rateLimit,
		middleware.BodyLimit(cfg.MaxBodySize, cfg.Logger),
	)
	engine.NoRoute(cfg.Handler)

	return &Engine{Engine: engine, limiter: limiter}, nil
}

// Close releases background resources of the engine.
func (e *Engine) Close() {
	e.limiter.Stop()
}

// NewAdminEngine builds the admin engine serving metrics and probes.
func NewAdminEngine(metrics *observability.Metrics, probes *health.Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	if probes != nil {
		probes.RegisterRoutes(engine)
	}
	return engine
}
