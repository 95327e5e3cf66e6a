package mux

import (
	"context"
	"errors"
	"net/http"
)

type routeContextKey struct{}

type routeContext struct {
	route *Route
	vars  map[string]string
}

// Vars returns the placeholder values of the matched route.
func Vars(r *http.Request) map[string]string {
	if rc, ok := r.Context().Value(routeContextKey{}).(*routeContext); ok {
		return rc.vars
	}
	return nil
}

// CurrentRoute returns the route that matched r, or nil outside a routed
// handler.
func CurrentRoute(r *http.Request) *Route {
	if rc, ok := r.Context().Value(routeContextKey{}).(*routeContext); ok {
		return rc.route
	}
	return nil
}

// SetURLVars returns a copy of r carrying vars, for handler tests.
func SetURLVars(r *http.Request, vars map[string]string) *http.Request {
	return withRoute(r, CurrentRoute(r), vars)
}

func withRoute(r *http.Request, route *Route, vars map[string]string) *http.Request {
	ctx := context.WithValue(r.Context(), routeContextKey{}, &routeContext{route: route, vars: vars})
	return r.WithContext(ctx)
}

// RouteMatch is the outcome of matching a request.
type RouteMatch struct {
	Route   *Route
	Handler http.Handler
	Vars    map[string]string

	// MatchErr is ErrMethodMismatch when a path matched under another
	// method, ErrNotFound when nothing matched.
	MatchErr error
}

// MiddlewareFunc wraps the handler of a matched route.
type MiddlewareFunc func(http.Handler) http.Handler

// WalkFunc is called by Walk for every route, with the routes of the
// enclosing subrouters as ancestors.
type WalkFunc func(route *Route, router *Router, ancestors []*Route) error

var (
	// ErrMethodMismatch is reported when the path matched but the method
	// did not.
	ErrMethodMismatch = errors.New("method is not allowed")

	// ErrNotFound is reported when no route matched.
	ErrNotFound = errors.New("no matching route was found")

	// SkipRouter returned by a WalkFunc skips the subrouter of the route.
	SkipRouter = errors.New("skip this router") //nolint:revive,staticcheck // gorilla/mux API compatibility
)
