package mux

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Route is one registered path template with its methods and handler.
// Configuration errors are kept on the route and make it never match.
type Route struct {
	router  *Router
	name    string
	tpl     *pathTemplate
	methods []string
	handler http.Handler
	sub     *Router
	err     error
}

// Match reports whether the route serves req.
func (r *Route) Match(req *http.Request, match *RouteMatch) bool {
	if r.err != nil {
		return false
	}

	var vars map[string]string
	if r.tpl != nil {
		v, ok := r.tpl.match(req.URL.Path)
		if !ok {
			return false
		}
		vars = v
	}

	if len(r.methods) > 0 && !slices.Contains(r.methods, req.Method) {
		match.MatchErr = ErrMethodMismatch
		return false
	}

	if r.sub != nil {
		return r.sub.Match(req, match)
	}

	match.Route = r
	match.Handler = r.handler
	match.Vars = vars
	match.MatchErr = nil
	return true
}

// Path sets the path template. Inside a subrouter the template is appended
// to the subrouter's prefix.
func (r *Route) Path(tpl string) *Route {
	return r.setTemplate(tpl, false)
}

// PathPrefix sets a template matching every path it prefixes.
func (r *Route) PathPrefix(tpl string) *Route {
	return r.setTemplate(tpl, true)
}

func (r *Route) setTemplate(tpl string, prefix bool) *Route {
	if r.err != nil {
		return r
	}
	if tpl != "" && !strings.HasPrefix(tpl, "/") {
		r.err = fmt.Errorf("mux: path must start with a slash, got %q", tpl)
		return r
	}
	r.tpl, r.err = compileTemplate(r.router.prefix+tpl, prefix)
	return r
}

// Methods restricts the route to the methods.
func (r *Route) Methods(methods ...string) *Route {
	for _, m := range methods {
		m = strings.ToUpper(m)
		if !slices.Contains(r.methods, m) {
			r.methods = append(r.methods, m)
		}
	}
	return r
}

// Name names the route. Names are unique across a router and its
// subrouters.
func (r *Route) Name(name string) *Route {
	if r.name != "" {
		r.err = fmt.Errorf("mux: route already has name %q, can't set %q", r.name, name)
		return r
	}
	if _, ok := r.router.named[name]; ok {
		r.err = fmt.Errorf("mux: duplicate route name %q", name)
		return r
	}
	r.name = name
	r.router.named[name] = r
	return r
}

// Handler sets the handler.
func (r *Route) Handler(handler http.Handler) *Route {
	r.handler = handler
	return r
}

// HandlerFunc sets the handler function.
func (r *Route) HandlerFunc(f func(http.ResponseWriter, *http.Request)) *Route {
	return r.Handler(http.HandlerFunc(f))
}

// Subrouter returns a router matching under this route's template and
// methods.
func (r *Route) Subrouter() *Router {
	prefix := ""
	if r.tpl != nil {
		prefix = r.tpl.raw
	}
	r.sub = &Router{prefix: prefix, named: r.router.named}
	return r.sub
}

// GetName returns the route name.
func (r *Route) GetName() string {
	return r.name
}

// GetHandler returns the handler, nil for subrouter routes.
func (r *Route) GetHandler() http.Handler {
	return r.handler
}

// GetPathTemplate returns the full path template, subrouter prefixes
// included.
func (r *Route) GetPathTemplate() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.tpl == nil {
		return "", errors.New("mux: route doesn't have a path")
	}
	return r.tpl.raw, nil
}

// GetMethods returns the methods the route is restricted to.
func (r *Route) GetMethods() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.methods) == 0 {
		return nil, errors.New("mux: route doesn't have methods")
	}
	return slices.Clone(r.methods), nil
}

// GetVarNames returns the placeholder names of the path template.
func (r *Route) GetVarNames() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.tpl == nil {
		return nil, nil
	}
	return slices.Clone(r.tpl.names), nil
}

// GetError returns the first configuration error of the route.
func (r *Route) GetError() error {
	return r.err
}
