package openapi

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vitalvas/specforge/middleware"
	"gopkg.in/yaml.v3"
)

// DefaultUITitle is the docs index title when none is configured.
const DefaultUITitle = "API documentation"

// SpecLink describes one document in the docs index.
type SpecLink struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Version  string `json:"version"`
	Endpoint string `json:"endpoint"`
}

// DocsIndex is the JSON form of the docs index.
type DocsIndex struct {
	Specs []SpecLink `json:"specs"`
	Title string     `json:"title"`
}

// Index returns the docs index listing every configured document.
func (s *Swagger) Index() DocsIndex {
	specs := make([]SpecLink, 0, len(s.cfg.Specs))
	for _, spec := range s.cfg.Specs {
		specs = append(specs, SpecLink{
			URL:      spec.Route,
			Title:    pick(spec.Title, s.cfg.Title, DefaultTitle),
			Version:  pick(spec.Version, s.cfg.Version, DefaultVersion),
			Endpoint: spec.Endpoint,
		})
	}
	return DocsIndex{Specs: specs, Title: pick(s.cfg.UITitle, s.cfg.Title, DefaultUITitle)}
}

// Register adds the documentation endpoints to r:
//
//	<spec.Route>             - document as JSON, one per spec
//	<spec.Route>.yaml        - document as YAML (when Config.YAML is set)
//	<SpecsRoute>             - docs index; JSON with ?json=true, HTML otherwise
//	<SpecsRoute>index.html   - redirect to the docs index
//	<StaticURLPath>/*        - UI assets from StaticFolder (when set)
//
// The index, redirect and asset routes are skipped when SwaggerUI is false.
// Every response carries Config.Headers.
func (s *Swagger) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.StaticHeaders(s.cfg.Headers))

		for _, spec := range s.cfg.Specs {
			r.Get(spec.Route, s.serveJSON(spec.Endpoint))
			if s.cfg.YAML {
				r.Get(yamlRoute(spec.Route), s.serveYAML(spec.Endpoint))
			}
		}

		if !s.cfg.SwaggerUI {
			return
		}

		specsRoute := pick(s.cfg.SpecsRoute, DefaultSpecsRoute)
		r.Get(specsRoute, s.serveIndex)
		if trimmed := strings.TrimRight(specsRoute, "/"); trimmed != "" && trimmed != specsRoute {
			r.Get(trimmed, redirectTo(specsRoute))
		}
		r.Get(strings.TrimRight(specsRoute, "/")+"/index.html", redirectTo(specsRoute))

		if s.cfg.StaticFolder != "" {
			prefix := strings.TrimRight(pick(s.cfg.StaticURLPath, DefaultStaticURLPath), "/")
			r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(s.cfg.StaticFolder))))
		}
	})
}

// yamlRoute derives the YAML route from a JSON route.
func yamlRoute(route string) string {
	return strings.TrimSuffix(route, ".json") + ".yaml"
}

func redirectTo(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// serveJSON serves the named document as JSON.
//
// See: https://swagger.io/specification/v2/#format
func (s *Swagger) serveJSON(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := s.Spec(r.Context(), endpoint)
		if err != nil {
			writeError(w, err)
			return
		}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			s.log.Error(err, "failed to serialize document as JSON", "endpoint", endpoint)
			http.Error(w, "failed to serialize document as JSON", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// serveYAML serves the named document as YAML.
func (s *Swagger) serveYAML(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := s.Spec(r.Context(), endpoint)
		if err != nil {
			writeError(w, err)
			return
		}

		data, err := yaml.Marshal(map[string]any(doc))
		if err != nil {
			s.log.Error(err, "failed to serialize document as YAML", "endpoint", endpoint)
			http.Error(w, "failed to serialize document as YAML", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/x-yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// serveIndex serves the docs index: JSON when the json query parameter is
// truthy, the UI page otherwise.
func (s *Swagger) serveIndex(w http.ResponseWriter, r *http.Request) {
	index := s.Index()

	if truthy(r.URL.Query().Get("json")) {
		data, err := json.Marshal(index)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	var page string
	switch {
	case s.cfg.UI == DocsRapiDoc && len(index.Specs) > 0:
		page = rapidocTemplate(index.Title, index.Specs[0].URL)
	case s.cfg.UI == DocsRedoc && len(index.Specs) > 0:
		page = redocTemplate(index.Title, index.Specs[0].URL)
	default:
		page = swaggerUITemplate(index, s.assetBase())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

// assetBase returns where the Swagger UI bundle is loaded from: the local
// static route when a static folder is configured, the CDN otherwise.
func (s *Swagger) assetBase() string {
	if s.cfg.StaticFolder != "" {
		return strings.TrimRight(pick(s.cfg.StaticURLPath, DefaultStaticURLPath), "/")
	}
	return "https://unpkg.com/swagger-ui-dist"
}

func truthy(v string) bool {
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}

func swaggerUITemplate(index DocsIndex, assets string) string {
	urls := make([]map[string]string, 0, len(index.Specs))
	for _, spec := range index.Specs {
		urls = append(urls, map[string]string{"url": spec.URL, "name": spec.Title})
	}
	urlsJSON, err := json.Marshal(urls)
	if err != nil {
		urlsJSON = []byte("[]")
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<link rel="stylesheet" href="%s/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="%s/swagger-ui-bundle.js"></script>
<script src="%s/swagger-ui-standalone-preset.js"></script>
<script>
SwaggerUIBundle({urls: %s, dom_id: "#swagger-ui", presets: [SwaggerUIBundle.presets.apis, SwaggerUIStandalonePreset], layout: "StandaloneLayout"});
</script>
</body>
</html>`, html.EscapeString(index.Title), assets, assets, assets, urlsJSON)
}

func rapidocTemplate(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<script type="module" src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
<rapi-doc spec-url=%q></rapi-doc>
</body>
</html>`, html.EscapeString(title), specPath)
}

func redocTemplate(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
</head>
<body>
<redoc spec-url=%q></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`, html.EscapeString(title), specPath)
}
