package openapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitalvas/specforge/fragment"
	"github.com/vitalvas/specforge/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vitalvas/specforge/openapi"

// minCacheSize is the smallest document cache allocated.
const minCacheSize = 16

// Swagger assembles API description documents from the documentation
// attached to the routes of an application.
type Swagger struct {
	cfg    Config
	routes RouteSource
	models Models
	loader *fragment.Loader

	log     logr.Logger
	metrics *Metrics
	tracer  trace.Tracer

	cache     *lru.Cache[string, Document]
	validator *Validator
}

// Option configures a Swagger.
type Option func(*Swagger)

// WithLogger sets the logger. Defaults to a logger that discards output.
func WithLogger(log logr.Logger) Option {
	return func(s *Swagger) { s.log = log }
}

// WithRegisterer registers build and validation metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Swagger) { s.metrics = NewMetrics(reg) }
}

// WithLoader sets the fragment file loader. Defaults to a loader rooted at
// Config.Root.
func WithLoader(l *fragment.Loader) Option {
	return func(s *Swagger) { s.loader = l }
}

// WithValidator sets the validator returned by Validator and used by
// ValidateMiddleware.
func WithValidator(v *Validator) Option {
	return func(s *Swagger) { s.validator = v }
}

// New returns a Swagger reading routes from routes.
func New(routes RouteSource, cfg Config, opts ...Option) (*Swagger, error) {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Swagger{
		cfg:    cfg,
		routes: routes,
		log:    logr.Discard(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.loader == nil {
		s.loader = fragment.NewLoader(cfg.Root)
	}

	cache, err := lru.New[string, Document](max(len(cfg.Specs), minCacheSize))
	if err != nil {
		return nil, fmt.Errorf("create document cache: %w", err)
	}
	s.cache = cache

	if s.validator == nil {
		s.validator = NewValidator(
			WithValidatorLoader(s.loader),
			WithValidatorLogger(s.log),
			WithValidatorMetrics(s.metrics),
			WithSanitizer(cfg.Sanitizer),
		)
	}

	return s, nil
}

// Config returns the configuration.
func (s *Swagger) Config() Config {
	return s.cfg
}

// Validator returns the validator sharing this instance's loader.
func (s *Swagger) Validator() *Validator {
	return s.validator
}

// ValidateMiddleware validates JSON request bodies against the definition
// schemaID declared in source, using the shared validator.
func (s *Swagger) ValidateMiddleware(schemaID string, source fragment.Source, opts ...ValidateOption) func(http.Handler) http.Handler {
	return s.validator.Middleware(schemaID, source, opts...)
}

// Definition registers a reusable definition that is not exposed as a
// route. See Model for the supported targets.
func (s *Swagger) Definition(name string, target any, tags ...string) {
	s.models.Register(name, target, tags...)
}

// Models returns the registered definition models.
func (s *Swagger) Models() *Models {
	return &s.models
}

// Spec returns the document for the named endpoint. Outside debug mode the
// document is built once and served from the cache afterwards; callers must
// not modify it.
func (s *Swagger) Spec(ctx context.Context, endpoint string) (Document, error) {
	spec, ok := s.cfg.spec(endpoint)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}

	if !s.cfg.Debug {
		if doc, ok := s.cache.Get(endpoint); ok {
			s.metrics.cacheHit(endpoint)
			return doc, nil
		}
	}

	doc, err := s.Build(ctx, spec)
	if err != nil {
		return nil, err
	}

	if !s.cfg.Debug {
		s.cache.Add(endpoint, doc)
	}
	return doc, nil
}

// GetSchema returns the definition registered under id in any of the
// configured documents.
func (s *Swagger) GetSchema(ctx context.Context, id string) (map[string]any, error) {
	for _, spec := range s.cfg.Specs {
		doc, err := s.Spec(ctx, spec.Endpoint)
		if err != nil {
			return nil, err
		}
		if def, ok := fragment.AsMap(doc.Definitions()[id]); ok {
			return fragment.Clone(def).(map[string]any), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, id)
}

// Build assembles the document described by spec from the current route
// table. Configuration mistakes are reported as *ConfigError.
func (s *Swagger) Build(ctx context.Context, spec SpecConfig) (doc Document, err error) {
	_, span := s.tracer.Start(ctx, "specforge.build", trace.WithAttributes(
		attribute.String("spec.endpoint", spec.Endpoint),
	))
	start := time.Now()
	log := requestLog(ctx, s.log)

	defer func() {
		if rv := recover(); rv != nil {
			doc, err = nil, &ConfigError{Op: "build " + spec.Endpoint, Err: fmt.Errorf("panic: %v", rv)}
		}

		s.metrics.observeBuild(spec.Endpoint, time.Since(start), err)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error(err, "spec build failed", "endpoint", spec.Endpoint)
		} else {
			span.SetAttributes(
				attribute.Int("spec.paths", len(doc.Paths())),
				attribute.Int("spec.definitions", len(doc.Definitions())),
			)
			log.Info("spec built",
				"endpoint", spec.Endpoint,
				"paths", len(doc.Paths()),
				"definitions", len(doc.Definitions()),
				"duration", time.Since(start),
				"debug", s.cfg.Debug,
			)
		}
		span.End()
	}()

	if spec.Endpoint == "" {
		return nil, &ConfigError{Op: "build", Err: ErrMissingEndpoint}
	}

	b := newBuild(s, spec)

	if err := b.definitionModels(); err != nil {
		return nil, err
	}
	if err := b.routeOperations(); err != nil {
		return nil, err
	}

	return b.document(), nil
}

// requestLog adds the request ID carried by ctx to log.
func requestLog(ctx context.Context, log logr.Logger) logr.Logger {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		return log.WithValues("request_id", id)
	}
	return log
}

// build holds the state of one document assembly.
type build struct {
	s    *Swagger
	spec SpecConfig
	v3   bool

	refPrefix  string
	doc        Document
	paths      map[string]any
	components map[string]any
	registry   *Registry
	gen        *SchemaGenerator
	extractors map[string]*fragment.Extractor
}

func newBuild(s *Swagger, spec SpecConfig) *build {
	v3 := s.cfg.OpenAPI != ""

	b := &build{
		s:          s,
		spec:       spec,
		v3:         v3,
		refPrefix:  refPrefixV2,
		registry:   NewRegistry(),
		gen:        newSchemaGenerator(v3),
		components: make(map[string]any),
		extractors: make(map[string]*fragment.Extractor),
	}
	if v3 {
		b.refPrefix = refPrefixV3
	}

	b.doc = b.base()

	b.paths, _ = fragment.AsMap(b.doc["paths"])
	if b.paths == nil {
		b.paths = make(map[string]any)
	}

	if v3 {
		if components, ok := fragment.AsMap(b.doc["components"]); ok {
			for key, v := range components {
				if key == "schemas" {
					if schemas, ok := fragment.AsMap(v); ok {
						b.registry.Merge(schemas)
					}
					continue
				}
				b.components[key] = v
			}
		}
	} else if defs, ok := fragment.AsMap(b.doc["definitions"]); ok {
		b.registry.Merge(defs)
	}

	return b
}

// base returns the top-level fields before any route is processed.
// Per-spec values win over global ones, which win over the defaults.
func (b *build) base() Document {
	cfg := b.s.cfg
	doc := Document{}

	if b.v3 {
		doc["openapi"] = cfg.OpenAPI
	} else {
		doc["swagger"] = SwaggerVersion
	}

	if cfg.Info != nil {
		doc["info"] = fragment.Clone(cfg.Info)
	} else {
		doc["info"] = map[string]any{
			"title":          pick(b.spec.Title, cfg.Title, DefaultTitle),
			"version":        pick(b.spec.Version, cfg.Version, DefaultVersion),
			"description":    pick(b.spec.Description, cfg.Description, DefaultDescription),
			"termsOfService": pick(b.spec.TermsOfService, cfg.TermsOfService, DefaultTermsOfService),
		}
	}

	if b.v3 {
		if len(cfg.Servers) > 0 {
			doc["servers"] = fragment.Clone(cfg.Servers)
		}
		components := map[string]any{}
		if cfg.Components != nil {
			components = fragment.Clone(cfg.Components).(map[string]any)
		}
		if len(cfg.SecurityDefinitions) > 0 {
			if _, ok := components["securitySchemes"]; !ok {
				components["securitySchemes"] = fragment.Clone(cfg.SecurityDefinitions)
			}
		}
		doc["components"] = components
	} else {
		if cfg.Host != "" {
			doc["host"] = cfg.Host
		}
		if cfg.BasePath != "" {
			doc["basePath"] = cfg.BasePath
		}
		if len(cfg.Schemes) > 0 {
			doc["schemes"] = append([]string(nil), cfg.Schemes...)
		}
		if len(cfg.SecurityDefinitions) > 0 {
			doc["securityDefinitions"] = fragment.Clone(cfg.SecurityDefinitions)
		}
		doc["definitions"] = map[string]any{}
	}

	if len(cfg.Security) > 0 {
		doc["security"] = fragment.Clone(cfg.Security)
	}
	if len(cfg.Tags) > 0 {
		doc["tags"] = fragment.Clone(cfg.Tags)
	}
	if cfg.ExternalDocs != nil {
		doc["externalDocs"] = fragment.Clone(cfg.ExternalDocs)
	}
	doc["paths"] = map[string]any{}

	for key, v := range cfg.Extensions {
		if strings.HasPrefix(key, "x-") {
			doc[key] = fragment.Clone(v)
		}
	}

	if cfg.Template != nil {
		template := fragment.Clone(cfg.Template).(map[string]any)
		if b.v3 {
			delete(template, "swagger")
		} else {
			delete(template, "openapi")
		}
		fragment.Fragment(doc).Merge(template)
	}

	return doc
}

// extractor returns the documentation extractor for fragment files rooted
// at root.
func (b *build) extractor(root string) *fragment.Extractor {
	if e, ok := b.extractors[root]; ok {
		return e
	}
	e := &fragment.Extractor{
		Loader:    b.s.loader.WithRoot(root),
		Sanitizer: b.s.cfg.Sanitizer,
	}
	b.extractors[root] = e
	return e
}

// definitionModels merges the registered definition models accepted by the
// spec's filter.
func (b *build) definitionModels() error {
	for _, m := range b.s.models.Resolve(b.spec.acceptModel) {
		schema, err := b.modelDefinition(m.Target)
		if err != nil {
			return &ConfigError{Op: "definition " + m.Name, Err: err}
		}
		if m.Name == "" || schema == nil {
			continue
		}

		if defs, ok := fragment.AsMap(schema["definitions"]); ok {
			b.registry.Merge(defs)
			delete(schema, "definitions")
		}
		b.registry.Add(Definition{ID: m.Name, Schema: schema})
	}
	return nil
}

func (b *build) modelDefinition(target any) (map[string]any, error) {
	e := b.extractor("")

	var (
		doc fragment.Doc
		err error
	)

	switch t := target.(type) {
	case Documented:
		doc, err = e.ExtractDefinition(fragment.Inline(t.APIDoc()))
	case fragment.Source:
		doc, err = e.ExtractDefinition(t)
	case string:
		doc, err = e.ExtractDefinition(fragment.Inline(t))
	case fragment.Fragment:
		doc.Fragment = fragment.Fragment(normalized(t))
	case map[string]any:
		doc.Fragment = fragment.Fragment(normalized(t))
	default:
		if IsModel(target) {
			return b.gen.modelSchema(target), nil
		}
		return nil, fmt.Errorf("unsupported definition target %T", target)
	}
	if err != nil {
		return nil, err
	}

	if doc.Fragment == nil {
		return nil, nil
	}

	schema := map[string]any(b.convertModels(doc.Fragment))
	if doc.Description != "" {
		schema["description"] = doc.Description
	}
	return schema, nil
}

// routeOperations walks the route table and adds every documented
// operation to the paths.
func (b *build) routeOperations() error {
	routes, err := b.s.routes.Routes()
	if err != nil {
		return &ConfigError{Op: "list routes", Err: err}
	}

	for _, r := range routes {
		if !b.spec.acceptRoute(r) {
			continue
		}

		operations := make(map[string]any)
		for _, verb := range routeMethods(r) {
			if b.s.cfg.ignored(verb) {
				continue
			}

			src, ok, err := sourcesFor(r.Handler, verb)
			if err != nil {
				return &ConfigError{Op: fmt.Sprintf("route %s %s", verb, r.Pattern), Err: err}
			}
			if !ok {
				continue
			}

			op, ok, err := b.operation(r, verb, src)
			if err != nil {
				return &ConfigError{Op: fmt.Sprintf("route %s %s", verb, r.Pattern), Err: err}
			}
			if ok {
				operations[strings.ToLower(verb)] = op
			}
		}

		if len(operations) == 0 {
			continue
		}

		key := NormalizePath(r.Pattern)
		item, ok := fragment.AsMap(b.paths[key])
		if !ok {
			item = make(map[string]any, len(operations))
			b.paths[key] = item
		}
		for verb, op := range operations {
			item[verb] = op
		}
	}

	return nil
}

// mergeComponents collects the components declared in an OpenAPI 3
// fragment. Schemas join the definitions registry.
//
// See: https://spec.openapis.org/oas/v3.0.3#components-object
func (b *build) mergeComponents(components map[string]any) {
	for _, key := range fragment.SortedKeys(components) {
		v := components[key]
		if key == "schemas" {
			if schemas, ok := fragment.AsMap(v); ok {
				b.registry.Merge(schemas)
			}
			continue
		}

		src, ok := fragment.AsMap(v)
		if !ok {
			b.components[key] = fragment.Clone(v)
			continue
		}
		dst, ok := fragment.AsMap(b.components[key])
		if !ok {
			dst = make(map[string]any)
			b.components[key] = dst
		}
		fragment.Fragment(dst).Merge(src)
	}
}

// document finalizes the document.
func (b *build) document() Document {
	b.registry.AddAll(b.gen.Definitions())

	doc := b.doc
	doc["paths"] = b.paths

	if b.v3 {
		components := make(map[string]any, len(b.components)+1)
		for k, v := range b.components {
			components[k] = v
		}
		components["schemas"] = b.registry.Map()
		doc["components"] = components
		delete(doc, "definitions")
	} else {
		doc["definitions"] = b.registry.Map()
	}

	return doc
}
