package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin/binding"

	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/pipeline"
	"github.com/vyrodovalexey/mpix/internal/tracking"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// MaxDescriptionLength bounds the description of a new token.
const MaxDescriptionLength = 1024

// EventRecorder appends and reads pixel events.
type EventRecorder interface {
	Record(ctx context.Context, token string, event tracking.TrackedEvent) (int64, error)
	History(ctx context.Context, token string) ([]tracking.TrackedEvent, error)
}

// TokenRegistry manages the tokens a user owns.
type TokenRegistry interface {
	Create(ctx context.Context, owner, description string) (*tracking.Token, error)
	List(ctx context.Context, owner string) ([]tracking.TokenStats, error)
	Owns(ctx context.Context, owner, token string) (bool, error)
}

// Handlers serves the service endpoints.
type Handlers struct {
	recorder EventRecorder
	registry TokenRegistry
	buildID  string
	now      func() time.Time
}

// Option is a functional option for Handlers.
type Option func(*Handlers)

// WithBuildID sets the build identifier reported by the status endpoint.
func WithBuildID(id string) Option {
	return func(h *Handlers) {
		h.buildID = id
	}
}

// New creates the handlers.
func New(recorder EventRecorder, registry TokenRegistry, opts ...Option) (*Handlers, error) {
	if recorder == nil {
		return nil, util.NewConfigError("handlers", "event recorder is required")
	}
	if registry == nil {
		return nil, util.NewConfigError("handlers", "token registry is required")
	}

	h := &Handlers{
		recorder: recorder,
		registry: registry,
		buildID:  "unknown",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Index serves the landing page.
func (h *Handlers) Index(*pipeline.RequestContext) (*pipeline.Response, error) {
	return pipeline.NewResponse(http.StatusOK, pipeline.ContentTypeHTML, []byte(IndexPage)), nil
}

type statusResponse struct {
	Status string `json:"status"`
	Hash   string `json:"hash"`
}

// Status reports liveness and the build identifier.
func (h *Handlers) Status(*pipeline.RequestContext) (*pipeline.Response, error) {
	return pipeline.JSON(http.StatusOK, statusResponse{Status: "ok", Hash: h.buildID})
}

// Track records one retrieval of a pixel and returns the image.
func (h *Handlers) Track(rc *pipeline.RequestContext) (*pipeline.Response, error) {
	token, err := rc.Param("token")
	if err != nil {
		return nil, err
	}

	count, err := h.recorder.Record(rc.Context(), token, tracking.TrackedEvent{Created: h.now()})
	if err != nil {
		return nil, err
	}
	rc.Logger.Debug("tracked token",
		observability.String("token", token),
		observability.Int64("count", count),
	)

	return pipeline.NewResponse(http.StatusOK, pipeline.ContentTypePNG, Pixel), nil
}

type createRequest struct {
	Description string `json:"description" binding:"required,max=1024"`
}

// Create issues a new pixel token owned by the caller.
func (h *Handlers) Create(rc *pipeline.RequestContext) (*pipeline.Response, error) {
	id, err := rc.RequireIdentity()
	if err != nil {
		return nil, err
	}

	var req createRequest
	if err := binding.JSON.Bind(rc.Request, &req); err != nil {
		return nil, util.NewValidationError("invalid create request: %v", err)
	}

	token, err := h.registry.Create(rc.Context(), id.Token, req.Description)
	if err != nil {
		return nil, err
	}
	return pipeline.JSON(http.StatusOK, token)
}

type statsResponse struct {
	Tokens []tracking.TokenStats `json:"tokens"`
}

// Stats lists the caller's tokens with their event counts.
func (h *Handlers) Stats(rc *pipeline.RequestContext) (*pipeline.Response, error) {
	id, err := rc.RequireIdentity()
	if err != nil {
		return nil, err
	}

	tokens, err := h.registry.List(rc.Context(), id.Token)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = []tracking.TokenStats{}
	}
	return pipeline.JSON(http.StatusOK, statsResponse{Tokens: tokens})
}

type tokenStatsResponse struct {
	Token  string                  `json:"token"`
	Count  int                     `json:"count"`
	Events []tracking.TrackedEvent `json:"events"`
}

// TokenStats returns the event history of one token owned by the caller.
func (h *Handlers) TokenStats(rc *pipeline.RequestContext) (*pipeline.Response, error) {
	id, err := rc.RequireIdentity()
	if err != nil {
		return nil, err
	}
	token, err := rc.Param("token")
	if err != nil {
		return nil, err
	}

	owned, err := h.registry.Owns(rc.Context(), id.Token, token)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, util.NewNotFoundError("token", token)
	}

	events, err := h.recorder.History(rc.Context(), token)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []tracking.TrackedEvent{}
	}
	return pipeline.JSON(http.StatusOK, tokenStatsResponse{Token: token, Count: len(events), Events: events})
}

// NotFound answers requests no route matched.
func (h *Handlers) NotFound(*pipeline.RequestContext) (*pipeline.Response, error) {
	return pipeline.Text(http.StatusNotFound, pipeline.BodyNotFound), nil
}
