package pipeline

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/mpix/internal/auth"
	"github.com/vyrodovalexey/mpix/internal/middleware"
	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/router"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// RouteUnauthorized labels requests rejected by the auth gate.
const RouteUnauthorized = "unauthorized"

// Authenticator decides whether a request may proceed.
type Authenticator interface {
	Authenticate(r *http.Request) auth.Result
}

// Transform rewrites a response according to the request headers.
type Transform interface {
	Apply(reqHeader http.Header, resp *Response) (*Response, error)
}

// Pipeline runs the request stages in a fixed order.
type Pipeline struct {
	gate      Authenticator
	router    *router.Router[Handler]
	transform Transform
	logger    observability.Logger
}

// Option is a functional option for the pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithTransform sets the response transform. Without one responses pass
// through unchanged.
func WithTransform(t Transform) Option {
	return func(p *Pipeline) {
		p.transform = t
	}
}

// New creates a pipeline.
func New(gate Authenticator, r *router.Router[Handler], opts ...Option) (*Pipeline, error) {
	if gate == nil {
		return nil, util.NewConfigError("pipeline", "auth gate is required")
	}
	if r == nil {
		return nil, util.NewConfigError("pipeline", "router is required")
	}

	p := &Pipeline{
		gate:   gate,
		router: r,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(observability.String("component", "pipeline"))
	return p, nil
}

// Outcome is the result of processing one request.
type Outcome struct {
	Response *Response
	Route    string
	Err      error
}

// Process runs the stages for r and always returns a response.
func (p *Pipeline) Process(r *http.Request) Outcome {
	result := p.gate.Authenticate(r)
	if !result.Authorized() {
		err := result.Err()
		return Outcome{Response: ErrorResponse(err), Route: RouteUnauthorized, Err: err}
	}

	match := p.router.Match(r.Method, r.URL.Path)
	logger := p.logger.With(
		observability.String("route", match.Name),
		observability.String("request_id", util.RequestIDFromContext(r.Context())),
	)
	rc := &RequestContext{
		Request:  r,
		Params:   match.Params,
		Identity: result.Identity,
		Logger:   logger,
	}

	resp, err := match.Handler(rc)
	if err == nil && resp == nil {
		err = util.NewInternalError("dispatch "+match.Name, errNilResponse)
	}
	if err != nil {
		return Outcome{Response: ErrorResponse(err), Route: match.Name, Err: err}
	}

	if p.transform != nil {
		resp, err = p.transform.Apply(r.Header, resp)
		if err != nil {
			return Outcome{Response: ErrorResponse(err), Route: match.Name, Err: err}
		}
	}

	return Outcome{Response: resp, Route: match.Name}
}

// ServeGin is the catch-all gin handler running the pipeline.
func (p *Pipeline) ServeGin(c *gin.Context) {
	out := p.Process(c.Request)
	middleware.SetRoute(c, out.Route)

	if out.Err != nil {
		p.logError(c.Request, out)
	}
	p.write(c, out.Response)
}

// logError logs the full error detail. Server errors are logged at error
// level, client errors at debug.
func (p *Pipeline) logError(r *http.Request, out Outcome) {
	status, _ := StatusFor(out.Err)
	fields := []observability.Field{
		observability.String("method", r.Method),
		observability.String("path", router.NormalizePath(r.URL.Path)),
		observability.String("route", out.Route),
		observability.String("request_id", util.RequestIDFromContext(r.Context())),
		observability.String("kind", util.KindOf(out.Err).String()),
		observability.Int("status", status),
		observability.Error(out.Err),
	}
	if start := util.StartTimeFromContext(r.Context()); !start.IsZero() {
		fields = append(fields, observability.Float64("elapsed_ms", util.ElapsedMillis(start)))
	}
	if status >= http.StatusInternalServerError {
		p.logger.Error("request failed", fields...)
		return
	}
	p.logger.Debug("request rejected", fields...)
}

// write copies resp to the client.
func (p *Pipeline) write(c *gin.Context, resp *Response) {
	header := c.Writer.Header()
	for k, v := range resp.Header {
		header[k] = append([]string(nil), v...)
	}
	c.Status(resp.Status)

	if resp.Body == nil {
		c.Writer.WriteHeaderNow()
		return
	}
	if closer, ok := resp.Body.(io.Closer); ok {
		defer closer.Close()
	}
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		p.logger.Debug("failed to write response body", observability.Error(err))
	}
	c.Writer.WriteHeaderNow()
}
