package main

import (
	"context"
	"errors"
	"time"

	"github.com/vyrodovalexey/mpix/internal/auth"
	"github.com/vyrodovalexey/mpix/internal/config"
	"github.com/vyrodovalexey/mpix/internal/handlers"
	"github.com/vyrodovalexey/mpix/internal/health"
	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/pipeline"
	"github.com/vyrodovalexey/mpix/internal/server"
	"github.com/vyrodovalexey/mpix/internal/store"
	"github.com/vyrodovalexey/mpix/internal/tracking"
	"github.com/vyrodovalexey/mpix/internal/transform"
)

// bootstrapUserName labels the user registered for the shared secret.
const bootstrapUserName = "admin"

// adminTimeout bounds requests on the admin listener.
const adminTimeout = 10 * time.Second

// application holds all application components.
type application struct {
	config  *config.Config
	logger  observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
	store   *store.Store
	engine  *server.Engine
	public  *server.Server
	admin   *server.Server
}

// newApplication wires every component. Errors are configuration or
// connectivity failures and stop the process.
func newApplication(ctx context.Context, cfg *config.Config, logger observability.Logger) (*application, error) {
	server.SetMode(cfg.Env)

	metrics := observability.NewMetrics("mpix")
	metrics.SetBuildInfo(version, gitCommit)

	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, err
	}

	st, err := store.New(ctx, cfg.Redis,
		store.WithLogger(logger),
		store.WithMetrics(metrics),
		store.WithCircuitBreaker(cfg.CircuitBreaker),
	)
	if err != nil {
		return nil, err
	}

	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		store:   st,
	}
	if err := app.wire(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return app, nil
}

// wire builds the request path on top of the store.
func (a *application) wire(ctx context.Context) error {
	cfg := a.config
	keys := a.store.Keys()

	users := auth.NewUsers(a.store, keys)
	added, err := users.Register(ctx, cfg.Auth.Token, auth.User{Name: bootstrapUserName})
	if err != nil {
		return err
	}
	a.logger.Info("shared secret registered", observability.Bool("created", added))

	gate, err := auth.NewGate(auth.Config{
		Header:         cfg.Auth.Header,
		ExemptPaths:    cfg.Auth.ExemptPaths,
		ExemptPrefixes: cfg.Auth.ExemptPrefixes,
		LookupTimeout:  cfg.Auth.LookupTimeout.Duration(),
	}, users, auth.WithLogger(a.logger), auth.WithMetrics(a.metrics))
	if err != nil {
		return err
	}

	h, err := handlers.New(
		tracking.NewRecorder(a.store, keys, a.metrics),
		tracking.NewRegistry(a.store, keys),
		handlers.WithBuildID(gitCommit),
	)
	if err != nil {
		return err
	}
	routes, err := h.NewRouter()
	if err != nil {
		return err
	}

	gz, err := transform.NewGzip(transform.WithLogger(a.logger))
	if err != nil {
		return err
	}

	p, err := pipeline.New(gate, routes,
		pipeline.WithLogger(a.logger),
		pipeline.WithTransform(gz),
	)
	if err != nil {
		return err
	}

	a.engine, err = server.NewEngine(server.EngineConfig{
		Handler:        p.ServeGin,
		MaxBodySize:    cfg.Server.MaxRequestBodySize,
		RateLimit:      cfg.RateLimit,
		TracerProvider: a.tracer.Provider(),
		Logger:         a.logger,
		Metrics:        a.metrics,
	})
	if err != nil {
		return err
	}
	a.public = server.New("public", cfg.Server, a.engine, a.logger)

	if cfg.Metrics.Enabled {
		a.admin = server.New("admin", config.ServerConfig{
			Address:      cfg.Metrics.Address,
			ReadTimeout:  config.Duration(adminTimeout),
			WriteTimeout: config.Duration(adminTimeout),
			IdleTimeout:  config.Duration(adminTimeout),
		}, server.NewAdminEngine(a.metrics, a.probes()), a.logger)
	}

	a.logger.Info("application initialized",
		observability.Strings("routes", routes.Names()),
		observability.Bool("rate_limit", cfg.RateLimit.Enabled),
		observability.Bool("circuit_breaker", cfg.CircuitBreaker.Enabled),
		observability.Bool("tracing", a.tracer.Enabled()),
	)
	return nil
}

// probes builds the readiness checks of the admin listener.
func (a *application) probes() *health.Handler {
	h := health.NewHandler(
		health.WithLogger(a.logger),
		health.WithVersion(version),
	)
	h.AddCheck(health.NewCheckFunc("redis", a.store.Ping))
	h.AddCheck(health.NewCheckFunc("circuit_breaker", func(context.Context) error {
		if state := a.store.BreakerState(); state == "open" {
			return errors.New("circuit breaker " + store.BreakerName + " is open")
		}
		return nil
	}))
	return h
}
