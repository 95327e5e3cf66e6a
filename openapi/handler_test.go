package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func setupTestRouter(t *testing.T, cfg Config) chi.Router {
	t.Helper()

	r := chi.NewRouter()
	r.Method(http.MethodGet, "/colors/{palette}", Doc(colorsDoc, noop))

	sw, err := New(ChiRoutes(r), cfg)
	require.NoError(t, err)
	sw.Register(r)

	return r
}

func serveRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRegister(t *testing.T) {
	t.Run("JSON document", func(t *testing.T) {
		r := setupTestRouter(t, DefaultConfig())

		w := serveRequest(r, http.MethodGet, "/apispec_1.json")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var doc Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "2.0", doc["swagger"])
		assert.Contains(t, doc.Paths(), "/colors/{palette}")
		assert.Contains(t, doc.Definitions(), "Palette")
	})

	t.Run("documentation routes are not documented", func(t *testing.T) {
		r := setupTestRouter(t, DefaultConfig())

		var doc Document
		require.NoError(t, json.Unmarshal(serveRequest(r, http.MethodGet, "/apispec_1.json").Body.Bytes(), &doc))
		assert.Len(t, doc.Paths(), 1)
	})

	t.Run("YAML document", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.YAML = true
		r := setupTestRouter(t, cfg)

		w := serveRequest(r, http.MethodGet, "/apispec_1.yaml")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/x-yaml", w.Header().Get("Content-Type"))

		var doc map[string]any
		require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "2.0", doc["swagger"])
	})

	t.Run("YAML disabled by default", func(t *testing.T) {
		r := setupTestRouter(t, DefaultConfig())
		assert.Equal(t, http.StatusNotFound, serveRequest(r, http.MethodGet, "/apispec_1.yaml").Code)
	})

	t.Run("docs index as JSON", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Title = "Colors"
		cfg.Version = "1.2.3"
		r := setupTestRouter(t, cfg)

		w := serveRequest(r, http.MethodGet, "/apidocs/?json=true")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var index DocsIndex
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &index))
		assert.Equal(t, "Colors", index.Title)
		require.Len(t, index.Specs, 1)
		assert.Equal(t, SpecLink{URL: "/apispec_1.json", Title: "Colors", Version: "1.2.3", Endpoint: "apispec_1"}, index.Specs[0])
	})

	t.Run("docs index as HTML", func(t *testing.T) {
		r := setupTestRouter(t, DefaultConfig())

		w := serveRequest(r, http.MethodGet, "/apidocs/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "swagger-ui")
		assert.Contains(t, w.Body.String(), "/apispec_1.json")
		assert.Contains(t, w.Body.String(), "https://unpkg.com/swagger-ui-dist")
	})

	t.Run("json=false serves HTML", func(t *testing.T) {
		r := setupTestRouter(t, DefaultConfig())
		w := serveRequest(r, http.MethodGet, "/apidocs/?json=false")
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	})

	t.Run("alternative UIs", func(t *testing.T) {
		tests := []struct {
			ui   DocsUI
			want string
		}{
			{DocsRapiDoc, "<rapi-doc"},
			{DocsRedoc, "<redoc"},
		}

		for _, tt := range tests {
			t.Run(string(tt.ui), func(t *testing.T) {
				cfg := DefaultConfig()
				cfg.UI = tt.ui
				r := setupTestRouter(t, cfg)

				w := serveRequest(r, http.MethodGet, "/apidocs/")
				assert.Contains(t, w.Body.String(), tt.want)
				assert.Contains(t, w.Body.String(), "/apispec_1.json")
			})
		}
	})

	t.Run("redirects to the index", func(t *testing.T) {
		r := setupTestRouter(t, DefaultConfig())

		for _, path := range []string{"/apidocs", "/apidocs/index.html"} {
			w := serveRequest(r, http.MethodGet, path)
			assert.Equal(t, http.StatusFound, w.Code, path)
			assert.Equal(t, "/apidocs/", w.Header().Get("Location"), path)
		}
	})

	t.Run("UI disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SwaggerUI = false
		r := setupTestRouter(t, cfg)

		assert.Equal(t, http.StatusNotFound, serveRequest(r, http.MethodGet, "/apidocs/").Code)
		assert.Equal(t, http.StatusOK, serveRequest(r, http.MethodGet, "/apispec_1.json").Code)
	})

	t.Run("custom headers", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Headers = map[string]string{"Access-Control-Allow-Origin": "*"}
		r := setupTestRouter(t, cfg)

		for _, path := range []string{"/apispec_1.json", "/apidocs/"} {
			w := serveRequest(r, http.MethodGet, path)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), path)
		}
	})

	t.Run("static assets", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "swagger-ui.css"), []byte("body{}"), 0o644))

		cfg := DefaultConfig()
		cfg.StaticFolder = dir
		r := setupTestRouter(t, cfg)

		w := serveRequest(r, http.MethodGet, "/apidocs/static/swagger-ui.css")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "body{}", w.Body.String())

		index := serveRequest(r, http.MethodGet, "/apidocs/")
		assert.Contains(t, index.Body.String(), "/apidocs/static/swagger-ui-bundle.js")
	})

	t.Run("build failure answers 500", func(t *testing.T) {
		r := chi.NewRouter()
		r.Method(http.MethodGet, "/broken", Doc("Broken\n---\nparameters: [1]\n", noop))

		sw, err := New(ChiRoutes(r), DefaultConfig())
		require.NoError(t, err)
		sw.Register(r)

		w := serveRequest(r, http.MethodGet, "/apispec_1.json")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "mappings")
	})

	t.Run("multiple specs", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Specs = []SpecConfig{
			{Endpoint: "colors", RoutePrefix: "/colors", Title: "Colors"},
			{Endpoint: "empty", Route: "/specs/empty.json", RoutePrefix: "/none"},
		}
		r := setupTestRouter(t, cfg)

		var colors, empty Document
		require.NoError(t, json.Unmarshal(serveRequest(r, http.MethodGet, "/colors.json").Body.Bytes(), &colors))
		require.NoError(t, json.Unmarshal(serveRequest(r, http.MethodGet, "/specs/empty.json").Body.Bytes(), &empty))
		assert.Len(t, colors.Paths(), 1)
		assert.Empty(t, empty.Paths())

		var index DocsIndex
		require.NoError(t, json.Unmarshal(serveRequest(r, http.MethodGet, "/apidocs/?json=1").Body.Bytes(), &index))
		assert.Len(t, index.Specs, 2)
	})
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"true", "1", "True", "yes"} {
		assert.True(t, truthy(v), v)
	}
	for _, v := range []string{"", "false", "0"} {
		assert.False(t, truthy(v), v)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"validation", &ValidationError{Err: assert.AnError}, http.StatusBadRequest, assert.AnError.Error()},
		{"http error", &HTTPError{Code: http.StatusTeapot}, http.StatusTeapot, "I'm a teapot"},
		{"config error is hidden", &ConfigError{Op: "secret", Err: assert.AnError}, http.StatusInternalServerError, "Internal Server Error"},
		{"plain error", assert.AnError, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
