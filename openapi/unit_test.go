package openapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/specforge/fragment"
)

type documentedHandler struct{}

func (documentedHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func (documentedHandler) APIDoc() string {
	return "Brew\n---\nresponses:\n  418:\n    description: teapot\n"
}

func TestSourcesFor(t *testing.T) {
	t.Run("nil handler", func(t *testing.T) {
		_, ok, err := sourcesFor(nil, "GET")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("plain handler carries nothing", func(t *testing.T) {
		_, ok, err := sourcesFor(http.HandlerFunc(noop), "GET")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("documented handler", func(t *testing.T) {
		src, ok, err := sourcesFor(documentedHandler{}, "GET")
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, src.Text, 1)
		assert.Equal(t, fragment.KindInline, src.Text[0].Kind)
	})

	t.Run("empty method view is skipped", func(t *testing.T) {
		_, ok, err := sourcesFor(NewMethodView(), "GET")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("method view resolves the verb handler", func(t *testing.T) {
		view := NewMethodView().Handle(http.MethodPost, Doc("Create\n---\n", noop))

		src, ok, err := sourcesFor(view, "post")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Create\n---\n", src.Text[0].Text)
	})

	t.Run("method view without the verb fails", func(t *testing.T) {
		view := NewMethodView().Handle(http.MethodPost, Doc("Create\n---\n", noop))

		_, _, err := sourcesFor(view, "DELETE")
		assert.ErrorIs(t, err, ErrUnresolvedHandler)
	})

	t.Run("dispatch handler serves every verb", func(t *testing.T) {
		view := NewMethodView().Dispatch(Doc("Any\n---\n", noop))

		_, ok, err := sourcesFor(view, "PATCH")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestAnnotated(t *testing.T) {
	t.Run("sources in resolution order", func(t *testing.T) {
		a := Annotate(http.HandlerFunc(noop),
			WithFile("one.yml"),
			WithFiles(map[string]string{"users_get": "two.yml"}),
			WithDoc("Inline\n---\n"),
			WithSpec(map[string]any{"tags": []any{"A"}}),
			WithRoot("/srv/docs"),
			WithEndpoint("users"),
		)

		src, err := a.APISources("GET")
		require.NoError(t, err)
		require.Len(t, src.Text, 3)
		assert.Equal(t, fragment.KindFile, src.Text[0].Kind)
		assert.Equal(t, fragment.KindFilePerVerb, src.Text[1].Kind)
		assert.Equal(t, fragment.KindInline, src.Text[2].Kind)
		assert.Equal(t, fragment.Fragment{"tags": []any{"A"}}, src.Attached)
		assert.Equal(t, "/srv/docs", src.Root)
		assert.Equal(t, "users", src.Endpoint)
		assert.Equal(t, "users", a.EndpointName())
	})

	t.Run("wrapped documented handler", func(t *testing.T) {
		src, err := Annotate(documentedHandler{}).APISources("GET")
		require.NoError(t, err)
		require.Len(t, src.Text, 1)
		assert.Contains(t, src.Text[0].Text, "Brew")
	})

	t.Run("attached data only", func(t *testing.T) {
		src, err := Annotate(nil, WithSpec(map[string]any{})).APISources("GET")
		require.NoError(t, err)
		assert.False(t, src.Empty())
	})

	t.Run("serves the wrapped handler", func(t *testing.T) {
		w := httptest.NewRecorder()
		Annotate(documentedHandler{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("without handler answers 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		Annotate(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMethodView(t *testing.T) {
	status := func(code int) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(code) }
	}

	t.Run("dispatches by method", func(t *testing.T) {
		view := NewMethodView().
			HandleFunc(http.MethodGet, status(http.StatusOK)).
			HandleFunc("post", status(http.StatusCreated))

		w := httptest.NewRecorder()
		view.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("unserved method answers 405 with Allow", func(t *testing.T) {
		view := NewMethodView().
			HandleFunc(http.MethodGet, status(http.StatusOK)).
			HandleFunc(http.MethodPut, status(http.StatusOK))

		w := httptest.NewRecorder()
		view.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET, PUT", w.Header().Get("Allow"))
	})

	t.Run("dispatch fallback", func(t *testing.T) {
		view := NewMethodView().Dispatch(status(http.StatusAccepted))

		w := httptest.NewRecorder()
		view.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/", nil))
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, []string{"GET"}, view.AllowedMethods())
	})

	t.Run("zero value is usable", func(t *testing.T) {
		var view MethodView
		view.HandleFunc(http.MethodGet, status(http.StatusOK))
		assert.Equal(t, []string{"GET"}, view.AllowedMethods())
	})
}

func TestSchemaView(t *testing.T) {
	t.Run("attributes become the schema fragment", func(t *testing.T) {
		view := &SchemaView{
			Summary:     "Users",
			Tags:        []string{"users"},
			Parameters:  []any{map[string]any{"name": "limit", "in": "query", "type": "integer"}},
			Responses:   map[string]any{"200": map[string]any{"description": "ok"}},
			Produces:    []string{"application/json"},
			Deprecated:  true,
			OperationID: "listUsers",
		}
		view.View.HandleFunc(http.MethodGet, noop)

		src, err := view.APISources("GET")
		require.NoError(t, err)
		assert.Empty(t, src.Text)
		assert.Equal(t, fragment.Fragment{
			"summary":     "Users",
			"operationId": "listUsers",
			"tags":        []any{"users"},
			"produces":    []any{"application/json"},
			"parameters":  []any{map[string]any{"name": "limit", "in": "query", "type": "integer"}},
			"responses":   map[string]any{"200": map[string]any{"description": "ok"}},
			"deprecated":  true,
		}, src.Schema)
	})

	t.Run("verb handler documentation is kept", func(t *testing.T) {
		view := &SchemaView{Tags: []string{"users"}}
		view.View.Handle(http.MethodPost, Doc("Create user\n---\n", noop))

		src, err := view.APISources("POST")
		require.NoError(t, err)
		require.Len(t, src.Text, 1)
		assert.Equal(t, fragment.Fragment{"tags": []any{"users"}}, src.Schema)
		assert.Equal(t, []string{"POST"}, view.AllowedMethods())
	})

	t.Run("empty view fragment", func(t *testing.T) {
		assert.Empty(t, (&SchemaView{}).fragment())
	})
}
