package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/server"
)

// run starts the listeners and blocks until a shutdown signal or a
// listener failure.
func run(app *application) {
	errCh := make(chan error, 2)
	start := func(s *server.Server) {
		if s == nil {
			return
		}
		go func() {
			if err := s.Start(); err != nil {
				errCh <- err
			}
		}()
	}
	start(app.public)
	start(app.admin)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		app.logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case err := <-errCh:
		app.logger.Error("listener failed", observability.Error(err))
	}

	app.shutdown()
}

// shutdown stops the listeners, then releases the store and flushes traces.
func (a *application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout.Duration())
	defer cancel()

	if a.public != nil {
		if err := a.public.Stop(ctx); err != nil {
			a.logger.Error("failed to stop public server gracefully", observability.Error(err))
		}
	}
	if a.admin != nil {
		if err := a.admin.Stop(ctx); err != nil {
			a.logger.Error("failed to stop admin server gracefully", observability.Error(err))
		}
	}
	if a.engine != nil {
		a.engine.Close()
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close store", observability.Error(err))
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	a.logger.Info("mpix stopped")
}
