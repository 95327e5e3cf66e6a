package mux

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// Router matches requests against its routes in registration order.
//
//	r := mux.NewRouter()
//	r.HandleFunc("/", handler)
//	http.ListenAndServe(":8080", r)
type Router struct {
	// NotFoundHandler answers requests no route matched. Defaults to
	// http.NotFoundHandler().
	NotFoundHandler http.Handler

	// MethodNotAllowedHandler answers requests whose path matched under
	// other methods. The Allow header is set before it runs.
	MethodNotAllowedHandler http.Handler

	prefix      string
	routes      []*Route
	named       map[string]*Route
	middlewares []MiddlewareFunc

	// wrapped caches the middleware chain per route.
	wrapped sync.Map
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{named: make(map[string]*Route)}
}

// ServeHTTP dispatches the request to the matched route.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var match RouteMatch
	if r.Match(req, &match) {
		handler := match.Handler
		if handler == nil {
			handler = http.NotFoundHandler()
		}
		handler.ServeHTTP(w, withRoute(req, match.Route, match.Vars))
		return
	}

	if errors.Is(match.MatchErr, ErrMethodMismatch) {
		w.Header().Set("Allow", strings.Join(r.allowedMethods(req), ", "))
		if r.MethodNotAllowedHandler != nil {
			r.MethodNotAllowedHandler.ServeHTTP(w, req)
			return
		}
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	handler := r.NotFoundHandler
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	handler.ServeHTTP(w, req)
}

// Match finds the route for req. A method mismatch on one route does not
// stop the search; it is reported only when no other route matches.
func (r *Router) Match(req *http.Request, match *RouteMatch) bool {
	mismatch := false

	for _, route := range r.routes {
		if route.Match(req, match) {
			if match.Handler != nil && len(r.middlewares) > 0 {
				match.Handler = r.wrap(match.Route, match.Handler)
			}
			return true
		}
		if errors.Is(match.MatchErr, ErrMethodMismatch) {
			mismatch = true
		}
		match.MatchErr = nil
	}

	if mismatch {
		match.MatchErr = ErrMethodMismatch
	} else {
		match.MatchErr = ErrNotFound
	}
	return false
}

func (r *Router) wrap(route *Route, h http.Handler) http.Handler {
	if cached, ok := r.wrapped.Load(route); ok {
		return cached.(http.Handler)
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		h = r.middlewares[i](h)
	}
	actual, _ := r.wrapped.LoadOrStore(route, h)
	return actual.(http.Handler)
}

// allowedMethods lists the methods of every route whose path matches req.
func (r *Router) allowedMethods(req *http.Request) []string {
	var out []string
	for _, route := range r.routes {
		if route.err != nil {
			continue
		}
		if route.tpl != nil {
			if _, ok := route.tpl.match(req.URL.Path); !ok {
				continue
			}
		}
		if route.sub != nil {
			out = append(out, route.sub.allowedMethods(req)...)
			continue
		}
		out = append(out, route.methods...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Use appends middlewares applied to the handlers of matched routes.
func (r *Router) Use(mwf ...MiddlewareFunc) {
	r.middlewares = append(r.middlewares, mwf...)
}

// NewRoute registers an empty route.
func (r *Router) NewRoute() *Route {
	if r.named == nil {
		r.named = make(map[string]*Route)
	}
	route := &Route{router: r}
	r.routes = append(r.routes, route)
	return route
}

// Handle registers handler for the path template.
func (r *Router) Handle(path string, handler http.Handler) *Route {
	return r.NewRoute().Path(path).Handler(handler)
}

// HandleFunc registers a handler function for the path template.
func (r *Router) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *Route {
	return r.NewRoute().Path(path).HandlerFunc(f)
}

// Path registers a route matching the path template.
func (r *Router) Path(tpl string) *Route {
	return r.NewRoute().Path(tpl)
}

// PathPrefix registers a route matching paths starting with the template.
func (r *Router) PathPrefix(tpl string) *Route {
	return r.NewRoute().PathPrefix(tpl)
}

// Methods registers a route matching the methods.
func (r *Router) Methods(methods ...string) *Route {
	return r.NewRoute().Methods(methods...)
}

// Name registers a named route.
func (r *Router) Name(name string) *Route {
	return r.NewRoute().Name(name)
}

// Get returns the route registered under name, searching subrouters too.
func (r *Router) Get(name string) *Route {
	return r.named[name]
}

// Walk calls fn for every route, descending into subrouters after their
// route unless fn returns SkipRouter.
func (r *Router) Walk(fn WalkFunc) error {
	return r.walk(fn, nil)
}

func (r *Router) walk(fn WalkFunc, ancestors []*Route) error {
	for _, route := range r.routes {
		err := fn(route, r, ancestors)
		if errors.Is(err, SkipRouter) {
			continue
		}
		if err != nil {
			return err
		}
		if route.sub != nil {
			if err := route.sub.walk(fn, append(slices.Clip(ancestors), route)); err != nil {
				return err
			}
		}
	}
	return nil
}
