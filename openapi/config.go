package openapi

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/vitalvas/specforge/fragment"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither a SpecConfig nor the global configuration sets
// a value.
const (
	DefaultTitle          = "A swagger API"
	DefaultVersion        = "0.0.1"
	DefaultDescription    = "API description"
	DefaultTermsOfService = "/tos"
	DefaultSpecsRoute     = "/apidocs/"
	DefaultStaticURLPath  = "/apidocs/static"
)

// SpecConfig describes one generated document.
type SpecConfig struct {
	// Endpoint names the document. Required.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Route is the URL the JSON document is served at.
	Route string `yaml:"route" json:"route"`

	Title          string `yaml:"title" json:"title,omitempty"`
	Version        string `yaml:"version" json:"version,omitempty"`
	Description    string `yaml:"description" json:"description,omitempty"`
	TermsOfService string `yaml:"termsOfService" json:"termsOfService,omitempty"`

	// RoutePrefix limits the document to routes whose pattern starts with
	// the prefix. Combined with RouteFilter when both are set.
	RoutePrefix string `yaml:"route_prefix" json:"route_prefix,omitempty"`

	// DefinitionTags limits registered models to those carrying one of the
	// tags. Combined with DefinitionFilter when both are set.
	DefinitionTags []string `yaml:"definition_tags" json:"definition_tags,omitempty"`

	RouteFilter      func(Route) bool `yaml:"-" json:"-"`
	DefinitionFilter func(Model) bool `yaml:"-" json:"-"`
}

func (sc SpecConfig) acceptRoute(r Route) bool {
	if sc.RoutePrefix != "" && !strings.HasPrefix(r.Pattern, sc.RoutePrefix) {
		return false
	}
	return sc.RouteFilter == nil || sc.RouteFilter(r)
}

func (sc SpecConfig) acceptModel(m Model) bool {
	if len(sc.DefinitionTags) > 0 {
		match := false
		for _, tag := range sc.DefinitionTags {
			if m.HasTag(tag) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return sc.DefinitionFilter == nil || sc.DefinitionFilter(m)
}

// DocsUI selects the interactive documentation UI served by the docs index.
type DocsUI string

const (
	DocsSwaggerUI DocsUI = "swagger-ui"
	DocsRapiDoc   DocsUI = "rapidoc"
	DocsRedoc     DocsUI = "redoc"
)

// Config controls how documents are assembled and served.
type Config struct {
	Specs []SpecConfig `yaml:"specs"`

	Title          string         `yaml:"title"`
	Version        string         `yaml:"version"`
	Description    string         `yaml:"description"`
	TermsOfService string         `yaml:"termsOfService"`
	Info           map[string]any `yaml:"info"`

	// Swagger 2.0 fields.
	Host                string         `yaml:"host"`
	BasePath            string         `yaml:"basePath"`
	Schemes             []string       `yaml:"schemes"`
	SecurityDefinitions map[string]any `yaml:"securityDefinitions"`

	// OpenAPI selects OpenAPI 3 output when set, e.g. "3.0.2".
	OpenAPI    string         `yaml:"openapi"`
	Servers    []any          `yaml:"servers"`
	Components map[string]any `yaml:"components"`

	Security     []any          `yaml:"security"`
	Tags         []any          `yaml:"tags"`
	ExternalDocs map[string]any `yaml:"externalDocs"`

	// Template is merged over the generated top-level fields.
	Template map[string]any `yaml:"template"`

	// Extensions holds top-level "x-" vendor extensions.
	Extensions map[string]any `yaml:"extensions"`

	// SwaggerUI registers the docs index and UI routes.
	SwaggerUI     bool   `yaml:"swagger_ui"`
	UI            DocsUI `yaml:"ui"`
	UITitle       string `yaml:"ui_title"`
	SpecsRoute    string `yaml:"specs_route"`
	StaticURLPath string `yaml:"static_url_path"`
	StaticFolder  string `yaml:"static_folder"`

	// YAML additionally serves every document as YAML next to the JSON one.
	YAML bool `yaml:"yaml"`

	// IgnoreVerbs are left out of every document. Nil means HEAD and
	// OPTIONS; an empty list ignores nothing.
	IgnoreVerbs []string `yaml:"ignore_verbs"`

	OptionalFields []string `yaml:"optional_fields"`

	// PrefixIDs namespaces extracted definition ids as
	// "<endpoint>_<verb>_<id>".
	PrefixIDs bool `yaml:"prefix_ids"`

	// Headers are set on every response of the documentation endpoints.
	Headers map[string]string `yaml:"headers"`

	// Debug rebuilds documents on every request instead of caching them.
	Debug bool `yaml:"debug"`

	// Root is the base directory for relative fragment files.
	Root string `yaml:"root"`

	// Sanitizer post-processes summaries and descriptions. Defaults to
	// fragment.BRSanitizer.
	Sanitizer fragment.Sanitizer `yaml:"-"`
}

// DefaultConfig returns the configuration used when nothing is set: one
// document "apispec_1" at /apispec_1.json and the docs UI at /apidocs/.
func DefaultConfig() Config {
	return Config{
		Specs: []SpecConfig{
			{Endpoint: "apispec_1", Route: "/apispec_1.json"},
		},
		SwaggerUI:      true,
		SpecsRoute:     DefaultSpecsRoute,
		StaticURLPath:  DefaultStaticURLPath,
		IgnoreVerbs:    defaultIgnoreVerbs(),
		OptionalFields: defaultOptionalFields(),
	}
}

func defaultIgnoreVerbs() []string {
	return []string{http.MethodHead, http.MethodOptions}
}

func defaultOptionalFields() []string {
	return []string{"tags", "consumes", "produces", "schemes", "security", "deprecated", "operationId", "externalDocs"}
}

// LoadConfig reads a YAML or JSON configuration file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Specs))
	for i, spec := range c.Specs {
		if spec.Endpoint == "" {
			return &ConfigError{Op: fmt.Sprintf("spec %d", i), Err: ErrMissingEndpoint}
		}
		if seen[spec.Endpoint] {
			return &ConfigError{Op: "spec " + spec.Endpoint, Err: fmt.Errorf("duplicate endpoint")}
		}
		seen[spec.Endpoint] = true
	}
	return nil
}

// normalize converts values decoded from YAML into the generic shapes used
// by the builder.
func (c *Config) normalize() {
	normMap := func(m map[string]any) map[string]any {
		if m == nil {
			return nil
		}
		out, _ := fragment.Normalize(m).(map[string]any)
		return out
	}
	normList := func(l []any) []any {
		if l == nil {
			return nil
		}
		out, _ := fragment.Normalize(l).([]any)
		return out
	}

	c.Info = normMap(c.Info)
	c.SecurityDefinitions = normMap(c.SecurityDefinitions)
	c.Components = normMap(c.Components)
	c.ExternalDocs = normMap(c.ExternalDocs)
	c.Template = normMap(c.Template)
	c.Extensions = normMap(c.Extensions)
	c.Servers = normList(c.Servers)
	c.Security = normList(c.Security)
	c.Tags = normList(c.Tags)

	for i := range c.Specs {
		if c.Specs[i].Route == "" && c.Specs[i].Endpoint != "" {
			c.Specs[i].Route = "/" + c.Specs[i].Endpoint + ".json"
		}
	}
}

func (c Config) ignored(verb string) bool {
	verbs := c.IgnoreVerbs
	if verbs == nil {
		verbs = defaultIgnoreVerbs()
	}
	for _, v := range verbs {
		if strings.EqualFold(v, verb) {
			return true
		}
	}
	return false
}

func (c Config) optionalFields() []string {
	if c.OptionalFields == nil {
		return defaultOptionalFields()
	}
	return c.OptionalFields
}

func (c Config) spec(endpoint string) (SpecConfig, bool) {
	for _, s := range c.Specs {
		if s.Endpoint == endpoint {
			return s, true
		}
	}
	return SpecConfig{}, false
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
