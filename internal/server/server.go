package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/vyrodovalexey/mpix/internal/config"
	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// DefaultMaxHeaderBytes bounds request headers.
const DefaultMaxHeaderBytes = 1 << 20

// Server runs one HTTP listener.
type Server struct {
	name       string
	handler    http.Handler
	httpServer *http.Server
	listener   net.Listener
	logger     observability.Logger
	mu         sync.RWMutex
	running    bool
}

// New creates a server for handler. Timeouts come from cfg.
func New(name string, cfg config.ServerConfig, handler http.Handler, logger observability.Logger) *Server {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &Server{
		name:    name,
		handler: handler,
		httpServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout.Duration(),
			ReadHeaderTimeout: cfg.ReadTimeout.Duration(),
			WriteTimeout:      cfg.WriteTimeout.Duration(),
			IdleTimeout:       cfg.IdleTimeout.Duration(),
			MaxHeaderBytes:    DefaultMaxHeaderBytes,
		},
		logger: logger.With(observability.String("server", name)),
	}
}

// Start listens on the configured address and serves until Stop is called.
// It returns nil after a graceful stop.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return util.NewInternalError("start "+s.name, errors.New("server already running"))
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.mu.Unlock()
		return util.NewInternalError("listen "+s.httpServer.Addr, err)
	}
	s.listener = ln
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", ln.Addr().String()),
		observability.Duration("read_timeout", s.httpServer.ReadTimeout),
		observability.Duration("write_timeout", s.httpServer.WriteTimeout),
	)

	err = s.httpServer.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return util.NewInternalError("serve "+s.name, err)
	}
	return nil
}

// Stop shuts the server down gracefully, waiting for in-flight requests
// until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")
	start := time.Now()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return util.NewInternalError("shutdown "+s.name, err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped", observability.Duration("took", time.Since(start)))
	return nil
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the bound address once started, or the configured one.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Handler returns the served handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
