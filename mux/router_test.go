package mux

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouterServeHTTP(t *testing.T) {
	t.Run("dispatches with vars and current route", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/users/{id:int}", func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprintf(w, "%s %s", CurrentRoute(req).GetName(), Vars(req)["id"])
		}).Name("user")

		w := serve(r, http.MethodGet, "/users/42")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user 42", w.Body.String())
	})

	t.Run("macro constraint rejects", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/users/{id:int}", func(http.ResponseWriter, *http.Request) {})

		assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/users/abc").Code)
	})

	t.Run("method mismatch sets Allow", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/pets", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodPost)
		r.HandleFunc("/pets", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodGet)

		w := serve(r, http.MethodDelete, "/pets")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET, POST", w.Header().Get("Allow"))
	})

	t.Run("later route serves the method", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/pets", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodPost)
		r.HandleFunc("/pets", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}).Methods(http.MethodGet)

		assert.Equal(t, http.StatusAccepted, serve(r, http.MethodGet, "/pets").Code)
	})

	t.Run("custom handlers", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/pets", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodGet)
		r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
		r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
		})

		assert.Equal(t, http.StatusTeapot, serve(r, http.MethodGet, "/nope").Code)
		assert.Equal(t, http.StatusConflict, serve(r, http.MethodPut, "/pets").Code)
	})

	t.Run("subrouter", func(t *testing.T) {
		r := NewRouter()
		api := r.PathPrefix("/api/{version}").Subrouter()
		api.HandleFunc("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
			vars := Vars(req)
			fmt.Fprint(w, vars["version"]+"/"+vars["id"])
		}).Methods(http.MethodGet)

		w := serve(r, http.MethodGet, "/api/v1/items/7")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "v1/7", w.Body.String())

		assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/other").Code)
		assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodPost, "/api/v1/items/7").Code)
	})

	t.Run("middleware wraps matched handlers only", func(t *testing.T) {
		r := NewRouter()
		calls := 0
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				calls++
				w.Header().Set("X-Wrapped", "yes")
				next.ServeHTTP(w, req)
			})
		})
		r.HandleFunc("/ok", func(http.ResponseWriter, *http.Request) {})

		w := serve(r, http.MethodGet, "/ok")
		assert.Equal(t, "yes", w.Header().Get("X-Wrapped"))
		serve(r, http.MethodGet, "/ok")
		serve(r, http.MethodGet, "/missing")
		assert.Equal(t, 2, calls)
	})
}

func TestRouterWalk(t *testing.T) {
	r := NewRouter()
	r.HandleFunc("/", func(http.ResponseWriter, *http.Request) {}).Name("index")
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/users", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodGet, "post")
	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/stats", func(http.ResponseWriter, *http.Request) {})

	t.Run("visits every route with full templates", func(t *testing.T) {
		var got []string
		err := r.Walk(func(route *Route, _ *Router, ancestors []*Route) error {
			tpl, err := route.GetPathTemplate()
			require.NoError(t, err)
			got = append(got, fmt.Sprintf("%s:%d", tpl, len(ancestors)))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"/:0", "/api:0", "/api/users:1", "/admin:0", "/admin/stats:1"}, got)
	})

	t.Run("skip router", func(t *testing.T) {
		var got []string
		err := r.Walk(func(route *Route, _ *Router, _ []*Route) error {
			tpl, _ := route.GetPathTemplate()
			got = append(got, tpl)
			if tpl == "/admin" {
				return SkipRouter
			}
			return nil
		})
		require.NoError(t, err)
		assert.NotContains(t, got, "/admin/stats")
	})

	t.Run("error stops the walk", func(t *testing.T) {
		boom := errors.New("boom")
		err := r.Walk(func(*Route, *Router, []*Route) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("methods and names", func(t *testing.T) {
		assert.NotNil(t, r.Get("index"))
		assert.Nil(t, r.Get("missing"))

		var methods []string
		_ = r.Walk(func(route *Route, _ *Router, _ []*Route) error {
			if tpl, _ := route.GetPathTemplate(); tpl == "/api/users" {
				methods, _ = route.GetMethods()
			}
			return nil
		})
		assert.Equal(t, []string{"GET", "POST"}, methods)
	})
}

func TestRouteErrors(t *testing.T) {
	tests := []struct {
		name  string
		route func(r *Router) *Route
	}{
		{"unbalanced braces", func(r *Router) *Route { return r.Path("/users/{id") }},
		{"missing variable name", func(r *Router) *Route { return r.Path("/users/{:int}") }},
		{"duplicate variable", func(r *Router) *Route { return r.Path("/{id}/{id}") }},
		{"invalid regexp", func(r *Router) *Route { return r.Path("/{id:[}") }},
		{"relative path", func(r *Router) *Route { return r.Path("users") }},
		{"duplicate name", func(r *Router) *Route {
			r.Path("/a").Name("x")
			return r.Path("/b").Name("x")
		}},
		{"renamed", func(r *Router) *Route { return r.Path("/a").Name("x").Name("y") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := tt.route(NewRouter())
			assert.Error(t, route.GetError())
			_, err := route.GetPathTemplate()
			assert.Error(t, err)
		})
	}
}

func TestRouteGetters(t *testing.T) {
	t.Run("no path no methods", func(t *testing.T) {
		route := NewRouter().NewRoute()
		_, err := route.GetPathTemplate()
		assert.Error(t, err)
		_, err = route.GetMethods()
		assert.Error(t, err)
	})

	t.Run("var names", func(t *testing.T) {
		route := NewRouter().Path("/a/{x}/b/{y:uuid}")
		names, err := route.GetVarNames()
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, names)
	})

	t.Run("set url vars", func(t *testing.T) {
		req := SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "1"})
		assert.Equal(t, "1", Vars(req)["id"])
		assert.Nil(t, CurrentRoute(req))
	})
}
