package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/router"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// DefaultHeader carries the user token.
const DefaultHeader = "x-mpix-auth"

// Reasons reported for an unauthorized outcome.
const (
	ReasonMissingHeader  = "missing_header"
	ReasonEmptyToken     = "empty_token"
	ReasonMalformedToken = "malformed_token"
	ReasonUnknownToken   = "unknown_token"
	ReasonLookupError    = "lookup_error"
	ReasonLookupTimeout  = "lookup_timeout"
)

// Config configures the gate.
type Config struct {
	Header         string
	ExemptPaths    []string
	ExemptPrefixes []string
	LookupTimeout  time.Duration
}

// Result is the outcome of authenticating one request.
type Result struct {
	// Identity is set when a token was validated.
	Identity *Identity
	// Exempt is set when the path needs no credential.
	Exempt bool
	// Reason explains an unauthorized outcome.
	Reason string
}

// Authorized reports whether the request may proceed.
func (r Result) Authorized() bool {
	return r.Exempt || r.Identity != nil
}

// Err returns an unauthorized error for a rejected request, or nil.
func (r Result) Err() error {
	if r.Authorized() {
		return nil
	}
	return util.NewUnauthorizedError(r.Reason)
}

// Gate authenticates requests. It is immutable after construction.
type Gate struct {
	extractor      *HeaderExtractor
	exemptPaths    map[string]struct{}
	exemptPrefixes []string
	lookupTimeout  time.Duration
	users          UserLookup
	logger         observability.Logger
	metrics        *observability.Metrics
}

// Option is a functional option for the gate.
type Option func(*Gate)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(g *Gate) {
		g.metrics = metrics
	}
}

// NewGate creates a gate backed by users.
func NewGate(cfg Config, users UserLookup, opts ...Option) (*Gate, error) {
	if users == nil {
		return nil, util.NewConfigError("auth", "user lookup is required")
	}
	if cfg.LookupTimeout <= 0 {
		return nil, util.NewConfigError("auth.lookupTimeout", "must be positive")
	}

	g := &Gate{
		extractor:      NewHeaderExtractor(cfg.Header),
		exemptPaths:    make(map[string]struct{}, len(cfg.ExemptPaths)),
		exemptPrefixes: append([]string(nil), cfg.ExemptPrefixes...),
		lookupTimeout:  cfg.LookupTimeout,
		users:          users,
		logger:         observability.NopLogger(),
	}
	for _, p := range cfg.ExemptPaths {
		g.exemptPaths[router.NormalizePath(p)] = struct{}{}
	}

	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(observability.String("component", "auth"))

	return g, nil
}

// IsExempt reports whether the normalised form of path bypasses
// authentication.
func (g *Gate) IsExempt(path string) bool {
	path = router.NormalizePath(path)
	if _, ok := g.exemptPaths[path]; ok {
		return true
	}
	for _, prefix := range g.exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Authenticate decides whether r may proceed. Store failures are treated
// as authentication failures.
func (g *Gate) Authenticate(r *http.Request) Result {
	if g.IsExempt(r.URL.Path) {
		return Result{Exempt: true}
	}

	token, err := g.extractor.Extract(r)
	if err != nil {
		return g.reject(extractReason(err))
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.lookupTimeout)
	defer cancel()

	found, err := g.users.UserExists(ctx, token)
	if err != nil {
		reason := ReasonLookupError
		if errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonLookupTimeout
		}
		g.logger.Warn("user lookup failed",
			observability.String("reason", reason),
			observability.Error(err),
		)
		return g.reject(reason)
	}
	if !found {
		return g.reject(ReasonUnknownToken)
	}

	return Result{Identity: &Identity{Token: token}}
}

func (g *Gate) reject(reason string) Result {
	g.metrics.RecordAuthFailure(reason)
	return Result{Reason: reason}
}

func extractReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyToken):
		return ReasonEmptyToken
	case errors.Is(err, ErrMalformedToken):
		return ReasonMalformedToken
	default:
		return ReasonMissingHeader
	}
}
