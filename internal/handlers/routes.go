package handlers

import (
	"net/http"

	"github.com/vyrodovalexey/mpix/internal/pipeline"
	"github.com/vyrodovalexey/mpix/internal/router"
)

// Route names.
const (
	RouteTrack      = "track"
	RouteStatus     = "status"
	RouteIndex      = "index"
	RouteCreate     = "create"
	RouteStats      = "stats"
	RouteTokenStats = "token_stats"
)

// tokenPattern matches pixel tokens in paths.
const tokenPattern = "[a-zA-Z0-9_-]+"

// Routes returns the route table in match order.
func (h *Handlers) Routes() []router.Route[pipeline.Handler] {
	return []router.Route[pipeline.Handler]{
		{Name: RouteTrack, Method: http.MethodGet, Pattern: "/p/{token:" + tokenPattern + "}", Captures: []string{"token"}, Handler: h.Track},
		{Name: RouteStatus, Method: http.MethodGet, Pattern: "^/status$", Handler: h.Status},
		{Name: RouteIndex, Method: http.MethodGet, Pattern: "^$", Handler: h.Index},
		{Name: RouteCreate, Method: http.MethodPost, Pattern: "^/create$", Handler: h.Create},
		{Name: RouteStats, Method: http.MethodGet, Pattern: "^/stat$", Handler: h.Stats},
		{Name: RouteTokenStats, Method: http.MethodGet, Pattern: "/stat/{token:" + tokenPattern + "}", Captures: []string{"token"}, Handler: h.TokenStats},
	}
}

// NewRouter compiles the route table with NotFound as the fallback.
func (h *Handlers) NewRouter() (*router.Router[pipeline.Handler], error) {
	return router.New(h.Routes(), pipeline.Handler(h.NotFound))
}
