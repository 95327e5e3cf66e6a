// Package demo is a small colors, users and pets API documented with every
// documentation shape the openapi package understands. The specforge
// command serves it.
package demo

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitalvas/specforge/fragment"
	"github.com/vitalvas/specforge/middleware"
	"github.com/vitalvas/specforge/openapi"
)

//go:embed docs/*.yml
var docsFS embed.FS

// Docs returns the fragment files shipped with the demo.
func Docs() fs.FS {
	sub, err := fs.Sub(docsFS, "docs")
	if err != nil {
		panic(err)
	}
	return sub
}

// Options configures the demo application.
type Options struct {
	Logger logr.Logger

	// Registerer receives the document build and validation metrics.
	// Nil disables them.
	Registerer prometheus.Registerer
}

// App is the demo application.
type App struct {
	Router  chi.Router
	Swagger *openapi.Swagger

	store *store
}

// New builds the router and its documentation endpoints.
func New(cfg openapi.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID(middleware.RequestIDConfig{
		TrustIncoming: true,
		Logger:        log.WithName("http"),
	}))
	r.Use(middleware.Recovery(middleware.RecoveryConfig{Logger: log}))

	swOpts := []openapi.Option{
		openapi.WithLogger(log.WithName("openapi")),
		openapi.WithLoader(&fragment.Loader{Root: cfg.Root, Fallback: Docs()}),
	}
	if opts.Registerer != nil {
		swOpts = append(swOpts, openapi.WithRegisterer(opts.Registerer))
	}

	sw, err := openapi.New(openapi.ChiRoutes(r), cfg, swOpts...)
	if err != nil {
		return nil, err
	}

	app := &App{Router: r, Swagger: sw, store: newStore()}
	app.routes()

	sw.Definition("Error", fragment.File("error.yml"))
	sw.Register(r)

	return app, nil
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Router.ServeHTTP(w, r)
}

func (a *App) routes() {
	r := a.Router
	sw := a.Swagger

	r.Method(http.MethodGet, "/colors/{palette}", openapi.Doc(colorsDoc, a.colors))

	r.Method(http.MethodGet, "/users", openapi.AnnotateFunc(a.listUsers,
		openapi.WithFile("users_get.yml"),
	))
	r.Method(http.MethodPost, "/users", openapi.AnnotateFunc(a.createUser,
		openapi.WithFile("users_post.yml"),
		openapi.WithValidation(sw.Validator(), "User"),
	))
	r.With(sw.ValidateMiddleware("User", fragment.File("users_post.yml"))).
		Method(http.MethodPost, "/users/check", openapi.Doc(checkUserDoc, a.checkUser))

	pets := &openapi.SchemaView{
		Summary:  "List pets",
		Tags:     []string{"pets"},
		Produces: []string{"application/json"},
		Responses: map[string]any{
			"200": PetList{},
		},
	}
	pets.View.HandleFunc(http.MethodGet, a.listPets)
	r.Method(http.MethodGet, "/pets", pets)

	r.Method(http.MethodPost, "/pets", openapi.AnnotateFunc(a.createPet, openapi.WithSpec(map[string]any{
		"summary":    "Create a pet",
		"tags":       []any{"pets"},
		"parameters": []any{NewPet{}},
		"responses": map[string]any{
			"201": Pet{},
			"400": ErrorBody{},
		},
	})))

	r.Handle("/pets/{id}", openapi.NewMethodView().
		Handle(http.MethodGet, openapi.Doc(getPetDoc, a.getPet)).
		Handle(http.MethodDelete, openapi.Doc(deletePetDoc, a.deletePet)))
}
