package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-logr/logr"
	"github.com/vitalvas/specforge/fragment"
	"github.com/vitalvas/specforge/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxBodySize bounds request bodies read for validation.
const maxBodySize = 10 << 20

// ValidateFunc checks data against a JSON schema.
type ValidateFunc func(data any, schema map[string]any) error

// ErrorHandler decides the outcome of a failed validation. Returning nil
// accepts the data; any returned error is the final result.
type ErrorHandler func(err error, data any, schema map[string]any) error

// Validator checks payloads against definitions declared in fragments.
type Validator struct {
	extractor *fragment.Extractor
	validate  ValidateFunc
	onError   ErrorHandler

	log     logr.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorLoader sets the loader used for fragment files.
func WithValidatorLoader(l *fragment.Loader) ValidatorOption {
	return func(v *Validator) { v.extractor.Loader = l }
}

// WithSanitizer sets the sanitizer applied while parsing fragments.
func WithSanitizer(s fragment.Sanitizer) ValidatorOption {
	return func(v *Validator) { v.extractor.Sanitizer = s }
}

// WithValidateFunc replaces the default JSON schema validation.
func WithValidateFunc(fn ValidateFunc) ValidatorOption {
	return func(v *Validator) { v.validate = fn }
}

// WithErrorHandler sets the handler called on validation failures.
func WithErrorHandler(h ErrorHandler) ValidatorOption {
	return func(v *Validator) { v.onError = h }
}

// WithValidatorLogger sets the logger.
func WithValidatorLogger(log logr.Logger) ValidatorOption {
	return func(v *Validator) { v.log = log }
}

// WithValidatorMetrics records validation failures in m.
func WithValidatorMetrics(m *Metrics) ValidatorOption {
	return func(v *Validator) { v.metrics = m }
}

// NewValidator returns a validator using DefaultValidateFunc.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		extractor: &fragment.Extractor{Loader: fragment.NewLoader("")},
		validate:  DefaultValidateFunc,
		log:       logr.Discard(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// withRoot returns a copy reading relative fragment files under root.
func (v *Validator) withRoot(root string) *Validator {
	if root == "" {
		return v
	}
	cp := *v
	cp.extractor = &fragment.Extractor{
		Loader:    v.extractor.Loader.WithRoot(root),
		Sanitizer: v.extractor.Sanitizer,
	}
	return &cp
}

// ValidateOption overrides validator settings for a single call.
type ValidateOption func(*validateCall)

type validateCall struct {
	validate ValidateFunc
	onError  ErrorHandler
	data     DataFunc
}

// DataFunc extracts the value to validate from a request.
type DataFunc func(r *http.Request) (any, error)

// UsingFunc validates with fn for this call.
func UsingFunc(fn ValidateFunc) ValidateOption {
	return func(c *validateCall) { c.validate = fn }
}

// UsingErrorHandler handles failures with h for this call.
func UsingErrorHandler(h ErrorHandler) ValidateOption {
	return func(c *validateCall) { c.onError = h }
}

// UsingData reads the value to validate with fn instead of the JSON body.
// Only ValidateRequest and the middlewares consult it.
func UsingData(fn DataFunc) ValidateOption {
	return func(c *validateCall) { c.data = fn }
}

// Validate checks data against the definition schemaID declared in source,
// a fragment file or an in-memory fragment.
//
// The definitions pool is extracted from the source's parameters and its
// "definitions" block. Without a schemaID the target of the first body
// parameter is used, then the first extracted definition. The chosen
// definition gets every other definition attached under "definitions" so
// that internal references resolve.
//
// A failure is passed to the error handler when one is set; otherwise a
// *ValidationError is returned. A missing schema yields ErrNoSchema.
func (v *Validator) Validate(ctx context.Context, data any, schemaID string, source fragment.Source, opts ...ValidateOption) error {
	_, span := v.tracer.Start(ctx, "specforge.validate", trace.WithAttributes(
		attribute.String("schema.id", schemaID),
		attribute.String("source.kind", source.Kind.String()),
	))
	defer span.End()

	call := validateCall{validate: v.validate, onError: v.onError}
	for _, opt := range opts {
		opt(&call)
	}
	if call.validate == nil {
		call.validate = DefaultValidateFunc
	}

	schema, err := v.Schema(schemaID, source)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	verr := call.validate(data, schema)
	if verr == nil {
		return nil
	}

	span.RecordError(verr)
	v.metrics.validationFailure()
	requestLog(ctx, v.log).V(1).Info("validation failed", "schema", schemaID, "error", verr.Error())

	if call.onError != nil {
		return call.onError(verr, data, schema)
	}
	return &ValidationError{Err: verr, Data: data, Schema: schema, RequestID: middleware.RequestIDFromContext(ctx)}
}

// Schema returns the schema Validate would check against.
func (v *Validator) Schema(schemaID string, source fragment.Source) (map[string]any, error) {
	doc, err := v.extractor.Extract("", "", source)
	if err != nil {
		return nil, &ConfigError{Op: "load validation source", Err: err}
	}

	frag := doc.Fragment
	if frag == nil {
		frag = fragment.Fragment{}
	}

	var order []string
	pool := make(map[string]map[string]any)
	add := func(id string, schema map[string]any) {
		if _, ok := pool[id]; !ok {
			order = append(order, id)
		}
		pool[id] = schema
	}

	var params []any
	if list, ok := frag.List("parameters"); ok {
		out, defs, err := ExtractDefinitions(list, ExtractOptions{})
		if err != nil {
			return nil, &ConfigError{Op: "extract validation definitions", Err: err}
		}
		params = out
		for _, d := range defs {
			add(d.ID, d.Schema)
		}
	}

	if defs, ok := frag.Map("definitions"); ok {
		for _, id := range fragment.SortedKeys(defs) {
			if schema, ok := fragment.AsMap(defs[id]); ok {
				add(id, schema)
			}
		}
	}

	if schemaID == "" {
		schemaID = bodyParameterRef(params)
	}
	if schemaID == "" && len(order) > 0 {
		schemaID = order[0]
	}
	if schemaID == "" {
		return nil, ErrNoSchema
	}

	target, ok := pool[schemaID]
	if !ok {
		return nil, fmt.Errorf("%w: definition %q not declared", ErrNoSchema, schemaID)
	}

	schema := fragment.Clone(target).(map[string]any)
	delete(schema, "id")

	siblings := make(map[string]any)
	for _, id := range order {
		if id != schemaID {
			siblings[id] = fragment.Clone(pool[id])
		}
	}
	if len(siblings) > 0 {
		schema["definitions"] = siblings
	}

	return schema, nil
}

// modelFragment converts the Go models of f into Swagger 2.0 schemas for
// validation. Generated definitions join the "definitions" block, where
// Schema finds them.
func modelFragment(f fragment.Fragment) fragment.Fragment {
	b := &build{gen: newSchemaGenerator(false)}
	out := b.convertModels(f)

	generated := b.gen.Definitions()
	if len(generated) == 0 {
		return out
	}

	existing, _ := out.Map("definitions")
	defs := make(map[string]any, len(existing)+len(generated))
	for id, schema := range existing {
		defs[id] = schema
	}
	for _, d := range generated {
		if _, ok := defs[d.ID]; !ok {
			defs[d.ID] = d.Schema
		}
	}
	out["definitions"] = defs
	return out
}

// bodyParameterRef returns the definition id referenced by the first body
// parameter.
func bodyParameterRef(params []any) string {
	for _, p := range params {
		m, ok := fragment.AsMap(p)
		if !ok || m["in"] != "body" {
			continue
		}
		schema, _ := fragment.AsMap(m["schema"])
		ref, _ := schema["$ref"].(string)
		for _, prefix := range []string{refPrefixV2, refPrefixV3} {
			if id, ok := strings.CutPrefix(ref, prefix); ok {
				return id
			}
		}
		return ""
	}
	return ""
}

// ValidateRequest decodes the JSON body of r and validates it. The body is
// restored for the next handler. UsingData replaces the body decoding.
func (v *Validator) ValidateRequest(r *http.Request, schemaID string, source fragment.Source, opts ...ValidateOption) error {
	var call validateCall
	for _, opt := range opts {
		opt(&call)
	}

	ctx := r.Context()
	if id := middleware.RequestIDFromRequest(r); id != "" {
		ctx = middleware.WithRequestID(ctx, id)
	}

	if call.data != nil {
		data, err := call.data(r)
		if err != nil {
			return &HTTPError{Code: http.StatusBadRequest, Message: err.Error()}
		}
		return v.Validate(ctx, data, schemaID, source, opts...)
	}

	var data any

	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			return &HTTPError{Code: http.StatusBadRequest, Message: "failed to read request body"}
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &data); err != nil {
				return &HTTPError{Code: http.StatusBadRequest, Message: "invalid JSON body: " + err.Error()}
			}
		}
	}

	return v.Validate(ctx, data, schemaID, source, opts...)
}

// Middleware returns an HTTP middleware validating JSON request bodies.
// Rejected requests are answered with the status of the returned error.
func (v *Validator) Middleware(schemaID string, source fragment.Source, opts ...ValidateOption) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := v.ValidateRequest(r, schemaID, source, opts...); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DefaultValidateFunc validates data with the kin-openapi JSON schema
// validator. Local references to "#/definitions/" and
// "#/components/schemas/" are resolved against the schema's "definitions"
// before validation.
func DefaultValidateFunc(data any, schema map[string]any) error {
	defs, _ := fragment.AsMap(schema["definitions"])

	resolved, _ := inlineRefs(schema, defs, nil).(map[string]any)
	delete(resolved, "definitions")

	raw, err := json.Marshal(resolved)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}

	var s openapi3.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("decode schema: %w", err)
	}

	value, err := jsonValue(data)
	if err != nil {
		return err
	}

	return s.VisitJSON(value, openapi3.MultiErrors())
}

// jsonValue converts data to the generic shapes produced by encoding/json.
func jsonValue(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode data: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return out, nil
}

// inlineRefs replaces local definition references with the referenced
// schema. A reference already being expanded is replaced by an empty
// schema, which accepts anything.
func inlineRefs(v any, defs map[string]any, seen []string) any {
	switch t := v.(type) {
	case map[string]any:
		if ref, ok := t["$ref"].(string); ok {
			id := ""
			for _, prefix := range []string{refPrefixV2, refPrefixV3} {
				if rest, ok := strings.CutPrefix(ref, prefix); ok {
					id = rest
				}
			}
			target, found := fragment.AsMap(defs[id])
			if id == "" || !found {
				return t
			}
			for _, s := range seen {
				if s == id {
					return map[string]any{}
				}
			}
			return inlineRefs(target, defs, append(seen, id))
		}

		out := make(map[string]any, len(t))
		for k, item := range t {
			if k == "definitions" {
				out[k] = item
				continue
			}
			out[k] = inlineRefs(item, defs, seen)
		}
		return out

	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = inlineRefs(item, defs, seen)
		}
		return out
	}
	return v
}
