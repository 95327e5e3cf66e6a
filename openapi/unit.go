package openapi

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/vitalvas/specforge/fragment"
)

// Documented is implemented by handlers and models that carry their own
// documentation text.
type Documented interface {
	APIDoc() string
}

// Unit is implemented by handlers that describe where their documentation
// comes from.
type Unit interface {
	APISources(verb string) (Sources, error)
}

// Sources is everything a handler contributes to one operation. Fragments
// merge in the order Schema, Attached, Text, later ones winning.
type Sources struct {
	// Text lists candidate documentation sources; the first that applies
	// is used.
	Text []fragment.Source

	// Attached is a fragment attached to the handler as data.
	Attached fragment.Fragment

	// Schema is derived from view attributes. Go struct values anywhere in
	// it are models converted to definitions during the build.
	Schema fragment.Fragment

	// Root is the base directory for relative fragment files.
	Root string

	// Endpoint overrides the route name used for per-verb file lookup and
	// prefixed definition ids.
	Endpoint string
}

// Empty reports whether the sources contribute nothing.
func (s Sources) Empty() bool {
	return len(s.Text) == 0 && s.Attached == nil && s.Schema == nil
}

// sourcesFor resolves the documentation sources of handler h for verb. It
// returns ok false for handlers that carry no documentation.
func sourcesFor(h http.Handler, verb string) (Sources, bool, error) {
	switch v := h.(type) {
	case nil:
		return Sources{}, false, nil

	case *MethodView:
		if v.empty() {
			return Sources{}, false, nil
		}
		target := v.handlerFor(verb)
		if target == nil {
			return Sources{}, false, fmt.Errorf("%w: method view does not serve %s", ErrUnresolvedHandler, verb)
		}
		return sourcesFor(target, verb)

	case *SchemaView:
		if v.View.empty() {
			return Sources{}, false, nil
		}
		if v.View.handlerFor(verb) == nil {
			return Sources{}, false, fmt.Errorf("%w: schema view does not serve %s", ErrUnresolvedHandler, verb)
		}
		src, err := v.APISources(verb)
		if err != nil {
			return Sources{}, false, err
		}
		return src, !src.Empty(), nil

	case Unit:
		src, err := v.APISources(verb)
		if err != nil {
			return Sources{}, false, err
		}
		return src, !src.Empty(), nil

	case Documented:
		return Sources{Text: []fragment.Source{fragment.Inline(v.APIDoc())}}, true, nil
	}

	return Sources{}, false, nil
}

// Annotated attaches documentation to a handler.
type Annotated struct {
	http.Handler

	file     string
	files    map[string]string
	text     string
	spec     fragment.Fragment
	root     string
	endpoint string

	validator *Validator
	schemaID  string
	validate  []ValidateOption
}

// AnnotateOption configures an Annotated handler.
type AnnotateOption func(*Annotated)

// Annotate wraps h with documentation.
//
//	r.Method(http.MethodGet, "/colors/{palette}", openapi.Annotate(colorsHandler, openapi.WithFile("docs/colors.yml")))
func Annotate(h http.Handler, opts ...AnnotateOption) *Annotated {
	a := &Annotated{Handler: h}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnnotateFunc wraps a handler function with documentation.
func AnnotateFunc(fn http.HandlerFunc, opts ...AnnotateOption) *Annotated {
	return Annotate(fn, opts...)
}

// Doc wraps a handler function with inline documentation text.
func Doc(text string, fn http.HandlerFunc) *Annotated {
	return Annotate(fn, WithDoc(text))
}

// WithFile documents the handler from a single fragment file.
func WithFile(path string) AnnotateOption {
	return func(a *Annotated) { a.file = path }
}

// WithFiles documents the handler from a mapping of fragment files keyed
// by "<endpoint>_<verb>", "<endpoint>" or "<verb>".
func WithFiles(files map[string]string) AnnotateOption {
	return func(a *Annotated) { a.files = files }
}

// WithDoc documents the handler with inline text.
func WithDoc(text string) AnnotateOption {
	return func(a *Annotated) { a.text = text }
}

// WithSpec attaches a structured fragment.
func WithSpec(spec map[string]any) AnnotateOption {
	return func(a *Annotated) { a.spec = fragment.Fragment(spec) }
}

// WithRoot sets the base directory for relative fragment files.
func WithRoot(dir string) AnnotateOption {
	return func(a *Annotated) { a.root = dir }
}

// WithEndpoint names the route.
func WithEndpoint(name string) AnnotateOption {
	return func(a *Annotated) { a.endpoint = name }
}

// WithValidation validates JSON request bodies against the handler's own
// documentation before calling it. An empty schemaID selects the schema of
// the first body parameter.
func WithValidation(v *Validator, schemaID string, opts ...ValidateOption) AnnotateOption {
	return func(a *Annotated) {
		a.validator = v
		a.schemaID = schemaID
		a.validate = opts
	}
}

// APISources implements Unit.
func (a *Annotated) APISources(_ string) (Sources, error) {
	src := Sources{Attached: a.spec, Root: a.root, Endpoint: a.endpoint}

	if a.file != "" {
		src.Text = append(src.Text, fragment.File(a.file))
	}
	if len(a.files) > 0 {
		src.Text = append(src.Text, fragment.FilePerVerb(a.files))
	}

	text := a.text
	if text == "" {
		if d, ok := a.Handler.(Documented); ok {
			text = d.APIDoc()
		}
	}
	if text != "" {
		src.Text = append(src.Text, fragment.Inline(text))
	}

	return src, nil
}

// EndpointName returns the explicit route name, if any.
func (a *Annotated) EndpointName() string {
	return a.endpoint
}

// validationSource returns the fragment request validation reads schemas
// from: the attached fragment merged with the documentation that applies
// to the request's route and verb, the same sources the document is built
// from.
func (a *Annotated) validationSource(v *Validator, r *http.Request) (fragment.Source, error) {
	src, err := a.APISources(r.Method)
	if err != nil {
		return fragment.Source{}, err
	}

	doc, err := v.extractor.Extract(pick(src.Endpoint, requestEndpoint(r)), r.Method, src.Text...)
	if err != nil {
		return fragment.Source{}, &ConfigError{Op: "load validation source", Err: err}
	}

	merged := mergeSources(Sources{Attached: src.Attached}, doc)
	return fragment.Dict(modelFragment(merged)), nil
}

// ServeHTTP validates the request body when validation is enabled and calls
// the wrapped handler.
func (a *Annotated) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.validator != nil {
		v := a.validator.withRoot(a.root)

		source, err := a.validationSource(v, r)
		if err == nil {
			err = v.ValidateRequest(r, a.schemaID, source, a.validate...)
		}
		if err != nil {
			writeError(w, err)
			return
		}
	}

	if a.Handler == nil {
		http.NotFound(w, r)
		return
	}
	a.Handler.ServeHTTP(w, r)
}

// MethodView dispatches requests to one handler per verb, with an optional
// handler for every other verb.
type MethodView struct {
	handlers map[string]http.Handler
	dispatch http.Handler
}

// NewMethodView returns an empty view.
func NewMethodView() *MethodView {
	return &MethodView{handlers: make(map[string]http.Handler)}
}

// Handle sets the handler for method.
func (v *MethodView) Handle(method string, h http.Handler) *MethodView {
	if v.handlers == nil {
		v.handlers = make(map[string]http.Handler)
	}
	v.handlers[strings.ToUpper(method)] = h
	return v
}

// HandleFunc sets the handler function for method.
func (v *MethodView) HandleFunc(method string, fn http.HandlerFunc) *MethodView {
	return v.Handle(method, fn)
}

// Dispatch sets the handler used for verbs without their own handler.
func (v *MethodView) Dispatch(h http.Handler) *MethodView {
	v.dispatch = h
	return v
}

// AllowedMethods returns the verbs with their own handler, sorted. A view
// with only a dispatch handler serves GET.
func (v *MethodView) AllowedMethods() []string {
	methods := make([]string, 0, len(v.handlers))
	for m := range v.handlers {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	if len(methods) == 0 && v.dispatch != nil {
		methods = append(methods, http.MethodGet)
	}
	return methods
}

func (v *MethodView) empty() bool {
	return len(v.handlers) == 0 && v.dispatch == nil
}

func (v *MethodView) handlerFor(method string) http.Handler {
	if h, ok := v.handlers[strings.ToUpper(method)]; ok {
		return h
	}
	return v.dispatch
}

// ServeHTTP dispatches by request method. Unserved verbs are answered with
// 405 Method Not Allowed.
func (v *MethodView) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := v.handlerFor(r.Method)
	if h == nil {
		w.Header().Set("Allow", strings.Join(v.AllowedMethods(), ", "))
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.ServeHTTP(w, r)
}

// SchemaView is a method view whose attributes describe every verb it
// serves. Attribute values may be Go struct values, which are converted to
// definitions and replaced by references when the document is built:
//
//	view := &openapi.SchemaView{
//	    Tags:       []string{"users"},
//	    Parameters: []any{User{}},
//	    Responses:  map[string]any{"200": UserList{}},
//	}
//	view.View.HandleFunc(http.MethodPost, createUser)
type SchemaView struct {
	View MethodView

	Summary      string
	Description  string
	Tags         []string
	Parameters   []any
	Responses    map[string]any
	Definitions  map[string]any
	RequestBody  any
	Callbacks    map[string]any
	Consumes     []string
	Produces     []string
	Schemes      []string
	Security     []any
	Deprecated   bool
	OperationID  string
	ExternalDocs map[string]any

	// Validation checks JSON request bodies against the body parameter of
	// the attributes before dispatching.
	Validation bool

	// ValidateFunc replaces the validator's schema check.
	ValidateFunc ValidateFunc

	// Validator runs the validation. Defaults to NewValidator().
	Validator *Validator
}

// APISources implements Unit. The verb handler's own documentation takes
// precedence over the view attributes.
func (s *SchemaView) APISources(verb string) (Sources, error) {
	var src Sources
	if h := s.View.handlerFor(verb); h != nil {
		handlerSrc, _, err := sourcesFor(h, verb)
		if err != nil {
			return Sources{}, err
		}
		src = handlerSrc
	}
	src.Schema = s.fragment()
	return src, nil
}

// AllowedMethods returns the verbs served by the view.
func (s *SchemaView) AllowedMethods() []string {
	return s.View.AllowedMethods()
}

// ServeHTTP validates the request when Validation is set and dispatches to
// the view.
func (s *SchemaView) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.Validation && s.View.handlerFor(r.Method) != nil {
		if err := s.validateRequest(r); err != nil {
			writeError(w, err)
			return
		}
	}
	s.View.ServeHTTP(w, r)
}

func (s *SchemaView) validateRequest(r *http.Request) error {
	v := s.Validator
	if v == nil {
		v = NewValidator()
	}

	var opts []ValidateOption
	if s.ValidateFunc != nil {
		opts = append(opts, UsingFunc(s.ValidateFunc))
	}

	source := fragment.Dict(modelFragment(fragment.Fragment(normalized(s.fragment()))))
	return v.ValidateRequest(r, "", source, opts...)
}

func (s *SchemaView) fragment() fragment.Fragment {
	f := fragment.Fragment{}

	setString := func(key, value string) {
		if value != "" {
			f[key] = value
		}
	}
	setStrings := func(key string, values []string) {
		if len(values) > 0 {
			list := make([]any, len(values))
			for i, v := range values {
				list[i] = v
			}
			f[key] = list
		}
	}

	setString("summary", s.Summary)
	setString("description", s.Description)
	setString("operationId", s.OperationID)
	setStrings("tags", s.Tags)
	setStrings("consumes", s.Consumes)
	setStrings("produces", s.Produces)
	setStrings("schemes", s.Schemes)

	if len(s.Parameters) > 0 {
		f["parameters"] = append([]any(nil), s.Parameters...)
	}
	if s.Responses != nil {
		f["responses"] = shallowCopy(s.Responses)
	}
	if len(s.Definitions) > 0 {
		f["definitions"] = shallowCopy(s.Definitions)
	}
	if s.RequestBody != nil {
		f["requestBody"] = s.RequestBody
	}
	if len(s.Callbacks) > 0 {
		f["callbacks"] = shallowCopy(s.Callbacks)
	}
	if len(s.Security) > 0 {
		f["security"] = append([]any(nil), s.Security...)
	}
	if s.Deprecated {
		f["deprecated"] = true
	}
	if s.ExternalDocs != nil {
		f["externalDocs"] = shallowCopy(s.ExternalDocs)
	}

	return f
}

func shallowCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
