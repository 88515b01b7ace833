package pipeline

import (
	"context"
	"net/http"

	"github.com/vyrodovalexey/mpix/internal/auth"
	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/router"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// Handler serves one matched route.
type Handler func(rc *RequestContext) (*Response, error)

// RequestContext is built once per request and owned by it. Handlers read
// but never modify Params.
type RequestContext struct {
	Request  *http.Request
	Params   router.Params
	Identity *auth.Identity
	Logger   observability.Logger
}

// Context returns the request context.
func (rc *RequestContext) Context() context.Context {
	return rc.Request.Context()
}

// Param returns a path parameter or a validation error.
func (rc *RequestContext) Param(name string) (string, error) {
	return rc.Params.Get(name)
}

// RequireIdentity returns the caller identity or an unauthorized error.
func (rc *RequestContext) RequireIdentity() (*auth.Identity, error) {
	if rc.Identity == nil {
		return nil, util.NewUnauthorizedError("no identity in authenticated context")
	}
	return rc.Identity, nil
}
