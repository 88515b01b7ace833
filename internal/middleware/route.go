package middleware

import "github.com/gin-gonic/gin"

// RouteKey is the gin context key holding the matched route name.
const RouteKey = "mpix.route"

// Route names assigned by middleware that answer before the pipeline runs.
const (
	RoutePanic       = "panic"
	RouteRateLimited = "rate_limited"
	RouteTooLarge    = "too_large"
)

// SetRoute records the route name that handled the request.
func SetRoute(c *gin.Context, name string) {
	c.Set(RouteKey, name)
}

// RouteName returns the route name recorded for the request, or "".
func RouteName(c *gin.Context) string {
	return c.GetString(RouteKey)
}
