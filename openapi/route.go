package openapi

import (
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/vitalvas/specforge/fragment"
	"github.com/vitalvas/specforge/mux"
)

// Route is one entry of the host application's route table.
type Route struct {
	// Pattern is the route template in the host's syntax. Flask-style
	// "<conv:name>", chi-style "{name:regexp}" and mux macro "{name:int}"
	// placeholders are understood.
	Pattern string

	// Methods lists the verbs served. Empty means the verbs are taken from
	// the handler: a method view's own verbs, otherwise GET.
	Methods []string

	Handler http.Handler

	// Endpoint names the route. Derived from the pattern when empty.
	Endpoint string
}

// RouteSource enumerates the host application's routes.
type RouteSource interface {
	Routes() ([]Route, error)
}

// RouteFunc adapts a function to RouteSource.
type RouteFunc func() ([]Route, error)

// Routes calls f.
func (f RouteFunc) Routes() ([]Route, error) {
	return f()
}

// StaticRoutes is a fixed route table.
type StaticRoutes []Route

// Routes returns the table.
func (s StaticRoutes) Routes() ([]Route, error) {
	return s, nil
}

// chiAllMethods is the verb set chi registers for Handle and HandleFunc.
var chiAllMethods = []string{
	http.MethodConnect, http.MethodDelete, http.MethodGet, http.MethodHead, http.MethodOptions,
	http.MethodPatch, http.MethodPost, http.MethodPut, http.MethodTrace,
}

// ChiRoutes reads the route table of a chi router.
func ChiRoutes(r chi.Routes) RouteSource {
	return RouteFunc(func() ([]Route, error) {
		type entry struct {
			methods  []string
			handlers map[string]http.Handler
		}

		var order []string
		entries := make(map[string]*entry)

		err := chi.Walk(r, func(method, pattern string, handler http.Handler, _ ...func(http.Handler) http.Handler) error {
			e, ok := entries[pattern]
			if !ok {
				e = &entry{handlers: make(map[string]http.Handler)}
				entries[pattern] = e
				order = append(order, pattern)
			}
			e.methods = append(e.methods, method)
			e.handlers[method] = handler
			return nil
		})
		if err != nil {
			return nil, err
		}

		var routes []Route
		for _, pattern := range order {
			e := entries[pattern]

			// A catch-all registration is narrowed to the handler's own
			// verbs later on.
			if containsAll(e.methods, chiAllMethods) {
				routes = append(routes, Route{Pattern: pattern, Handler: e.handlers[http.MethodGet]})
				continue
			}

			slices.Sort(e.methods)
			for _, method := range e.methods {
				routes = append(routes, Route{Pattern: pattern, Methods: []string{method}, Handler: e.handlers[method]})
			}
		}

		return routes, nil
	})
}

// MuxRoutes reads the route table of a mux router. A route name becomes
// the endpoint; routes without methods inherit those of the nearest
// subrouter route that has some, otherwise the handler's own verbs.
func MuxRoutes(r *mux.Router) RouteSource {
	return RouteFunc(func() ([]Route, error) {
		var routes []Route

		err := r.Walk(func(route *mux.Route, _ *mux.Router, ancestors []*mux.Route) error {
			h := route.GetHandler()
			if h == nil {
				return nil
			}
			pattern, err := route.GetPathTemplate()
			if err != nil {
				return fmt.Errorf("route %q: %w", route.GetName(), err)
			}

			methods, _ := route.GetMethods()
			for i := len(ancestors) - 1; i >= 0 && len(methods) == 0; i-- {
				methods, _ = ancestors[i].GetMethods()
			}

			routes = append(routes, Route{Pattern: pattern, Methods: methods, Handler: h, Endpoint: route.GetName()})
			return nil
		})
		if err != nil {
			return nil, err
		}

		return routes, nil
	})
}

// requestEndpoint names the route that matched r the way the route sources
// name it.
func requestEndpoint(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if name := route.GetName(); name != "" {
			return name
		}
		if pattern, err := route.GetPathTemplate(); err == nil {
			return EndpointName(pattern)
		}
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return EndpointName(pattern)
		}
	}
	return ""
}

func containsAll(have, want []string) bool {
	for _, m := range want {
		if !slices.Contains(have, m) {
			return false
		}
	}
	return true
}

// routeMethods returns the upper-case verbs served by a route.
func routeMethods(r Route) []string {
	methods := r.Methods
	if len(methods) == 0 {
		if allowed, ok := r.Handler.(interface{ AllowedMethods() []string }); ok {
			methods = allowed.AllowedMethods()
		}
	}
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}

	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(m)
		if m != "*" && !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

// macroTypeMap maps mux route macros and path converters to a parameter
// type and format.
var macroTypeMap = map[string][2]string{
	"uuid":     {"string", "uuid"},
	"int":      {"integer", ""},
	"float":    {"number", ""},
	"slug":     {"string", ""},
	"alpha":    {"string", ""},
	"alphanum": {"string", ""},
	"date":     {"string", "date"},
	"hex":      {"string", ""},
	"domain":   {"string", "hostname"},
	"string":   {"string", ""},
	"path":     {"string", ""},
}

// pathVarRegexp matches "<name>", "<converter:name>", "{name}" and
// "{name:pattern}" placeholders. A pattern may hold one level of braces,
// as in "{day:[0-9]{2}}".
var pathVarRegexp = regexp.MustCompile(`<[^<>]+>|\{(?:[^{}]|\{[^{}]*\})+\}`)

// pathParam is a placeholder of a route pattern. Type is empty when the
// constraint says nothing about it.
type pathParam struct {
	Name   string
	Type   string
	Format string
}

// parsePath rewrites placeholders to "{name}" and returns them in order.
// Flask-style placeholders keep the name after the last colon, brace
// placeholders the name before the first.
func parsePath(pattern string) (string, []pathParam) {
	var params []pathParam

	path := pathVarRegexp.ReplaceAllStringFunc(pattern, func(match string) string {
		inner := match[1 : len(match)-1]

		var name, macro string
		if match[0] == '<' {
			name = inner
			if i := strings.LastIndexByte(inner, ':'); i >= 0 {
				macro, name = inner[:i], inner[i+1:]
			}
		} else {
			name, macro, _ = strings.Cut(inner, ":")
		}

		p := pathParam{Name: name}
		if info, ok := macroTypeMap[macro]; ok {
			p.Type, p.Format = info[0], info[1]
		}
		params = append(params, p)
		return "{" + name + "}"
	})

	return path, params
}

// NormalizePath rewrites host placeholder syntax to "{name}".
//
//	/user/<int:id>/      -> /user/{id}/
//	/files/{name:[a-z]+} -> /files/{name}
//	/pets/{id:uuid}      -> /pets/{id}
//
// See: https://swagger.io/specification/v2/#path-templating
func NormalizePath(pattern string) string {
	path, _ := parsePath(pattern)
	return path
}

// typePathParams fills the type of declared path parameters that have
// none from the converter or macro of their placeholder.
func typePathParams(params []any, pattern string, v3 bool) {
	_, declared := parsePath(pattern)

	types := make(map[string]pathParam, len(declared))
	for _, p := range declared {
		if p.Type != "" {
			types[p.Name] = p
		}
	}
	if len(types) == 0 {
		return
	}

	for _, raw := range params {
		m, ok := fragment.AsMap(raw)
		if !ok || m["in"] != "path" {
			continue
		}
		name, _ := m["name"].(string)
		p, ok := types[name]
		if !ok {
			continue
		}
		if _, ok := m["$ref"]; ok {
			continue
		}

		if v3 {
			if _, ok := m["schema"]; ok {
				continue
			}
			schema := map[string]any{"type": p.Type}
			if p.Format != "" {
				schema["format"] = p.Format
			}
			m["schema"] = schema
			continue
		}

		if _, ok := m["type"]; ok {
			continue
		}
		m["type"] = p.Type
		if p.Format != "" {
			m["format"] = p.Format
		}
	}
}

// EndpointName derives a route name from a pattern: placeholders keep their
// names and every other run of non-alphanumeric characters becomes a
// single underscore.
//
//	/user/<int:id>/ -> user_id
func EndpointName(pattern string) string {
	normalized := NormalizePath(pattern)

	var b strings.Builder
	sep := false
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			sep = false
			continue
		}
		sep = true
	}

	if b.Len() == 0 {
		return "root"
	}
	return b.String()
}
