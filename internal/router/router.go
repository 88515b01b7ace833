package router

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/vyrodovalexey/mpix/internal/util"
)

// FallbackName is the route name reported when no declared route matches.
const FallbackName = "fallback"

// Route binds a method and path pattern to a handler.
type Route[H any] struct {
	Name     string
	Method   string
	Pattern  string
	Captures []string
	Handler  H
}

// Params holds the path parameters captured by a match.
type Params map[string]string

// Get returns the named parameter or a validation error when it is absent.
func (p Params) Get(name string) (string, error) {
	v, ok := p[name]
	if !ok {
		return "", util.NewValidationError("missing path parameter %q", name)
	}
	return v, nil
}

// Match is the result of resolving a request.
type Match[H any] struct {
	Name     string
	Handler  H
	Params   Params
	Fallback bool
}

// compiledRoute is a pre-compiled route for efficient matching.
type compiledRoute[H any] struct {
	name     string
	method   string
	regex    *regexp.Regexp
	captures []capture
	handler  H
}

type capture struct {
	name  string
	index int
}

// Router is the routing engine. It is immutable after New.
type Router[H any] struct {
	routes   []compiledRoute[H]
	fallback H
}

// New compiles routes in declaration order. Any inconsistency in the table
// is returned as a configuration error.
func New[H any](routes []Route[H], fallback H) (*Router[H], error) {
	if isNil(fallback) {
		return nil, util.NewConfigError("router", "fallback handler is required")
	}

	r := &Router[H]{
		routes:   make([]compiledRoute[H], 0, len(routes)),
		fallback: fallback,
	}
	seen := make(map[string]bool, len(routes))

	for i := range routes {
		route := &routes[i]
		if route.Name == "" {
			return nil, util.NewConfigError("router", fmt.Sprintf("route %d has no name", i))
		}
		if route.Name == FallbackName || seen[route.Name] {
			return nil, util.NewConfigError("route "+route.Name, "duplicate route name")
		}
		seen[route.Name] = true

		compiled, err := compileRoute(route)
		if err != nil {
			return nil, err
		}
		r.routes = append(r.routes, compiled)
	}

	return r, nil
}

// compileRoute validates a route and compiles its pattern.
func compileRoute[H any](route *Route[H]) (compiledRoute[H], error) {
	field := "route " + route.Name

	if !IsValidMethod(route.Method) {
		return compiledRoute[H]{}, util.NewConfigError(field, fmt.Sprintf("unsupported method %q", route.Method))
	}
	if isNil(route.Handler) {
		return compiledRoute[H]{}, util.NewConfigError(field, "handler is required")
	}

	regex, err := CompilePattern(route.Pattern)
	if err != nil {
		return compiledRoute[H]{}, util.NewConfigErrorWithCause(field, "invalid pattern", err)
	}

	captures, err := resolveCaptures(regex, route.Captures)
	if err != nil {
		return compiledRoute[H]{}, util.NewConfigErrorWithCause(field, "capture mismatch", err)
	}

	return compiledRoute[H]{
		name:     route.Name,
		method:   route.Method,
		regex:    regex,
		captures: captures,
		handler:  route.Handler,
	}, nil
}

// resolveCaptures checks that the declared captures and the named groups of
// regex are the same set and maps each name to its submatch index.
func resolveCaptures(regex *regexp.Regexp, declared []string) ([]capture, error) {
	groups := make(map[string]int)
	for i, name := range regex.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		if _, dup := groups[name]; dup {
			return nil, fmt.Errorf("group %q appears more than once", name)
		}
		groups[name] = i
	}

	captures := make([]capture, 0, len(declared))
	used := make(map[string]bool, len(declared))
	for _, name := range declared {
		if used[name] {
			return nil, fmt.Errorf("capture %q declared more than once", name)
		}
		idx, ok := groups[name]
		if !ok {
			return nil, fmt.Errorf("declared capture %q not produced by pattern", name)
		}
		used[name] = true
		captures = append(captures, capture{name: name, index: idx})
	}

	for name := range groups {
		if !used[name] {
			return nil, fmt.Errorf("pattern group %q is not declared", name)
		}
	}

	return captures, nil
}

// Match resolves method and path to a handler. The path is normalised first.
// When nothing matches, the fallback handler is returned with empty params.
func (r *Router[H]) Match(method, path string) Match[H] {
	path = NormalizePath(path)

	for i := range r.routes {
		route := &r.routes[i]
		if route.method != method {
			continue
		}
		matches := route.regex.FindStringSubmatch(path)
		if matches == nil {
			continue
		}

		params := make(Params, len(route.captures))
		for _, c := range route.captures {
			params[c.name] = matches[c.index]
		}
		return Match[H]{Name: route.name, Handler: route.handler, Params: params}
	}

	return Match[H]{Name: FallbackName, Handler: r.fallback, Params: Params{}, Fallback: true}
}

// Names returns the route names in matching order.
func (r *Router[H]) Names() []string {
	names := make([]string, 0, len(r.routes))
	for i := range r.routes {
		names = append(names, r.routes[i].name)
	}
	return names
}

// isNil reports whether v is nil, including typed nil funcs and pointers.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
