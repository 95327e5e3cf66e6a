package openapi

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Exampler can be implemented by model types to provide an example value
// for the generated schema.
//
//	func (c Color) OpenAPIExample() any {
//	    return Color{Name: "red"}
//	}
//
// See: https://swagger.io/specification/v2/#schema-object (example)
type Exampler interface {
	OpenAPIExample() any
}

// SchemaGenerator converts Go model types into schemas and collects named
// struct types as definitions referenced via $ref.
//
// See: https://swagger.io/specification/v2/#schema-object
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
type SchemaGenerator struct {
	refPrefix string
	v3        bool

	schemas   map[string]map[string]any
	order     []string
	visited   map[reflect.Type]bool
	typeNames map[reflect.Type]string // type -> chosen schema name
	nameTypes map[string]reflect.Type // schema name -> type that claimed it
}

// NewSchemaGenerator creates a generator emitting Swagger 2.0 schemas.
func NewSchemaGenerator() *SchemaGenerator {
	return newSchemaGenerator(false)
}

func newSchemaGenerator(v3 bool) *SchemaGenerator {
	prefix := refPrefixV2
	if v3 {
		prefix = refPrefixV3
	}
	return &SchemaGenerator{
		refPrefix: prefix,
		v3:        v3,
		schemas:   make(map[string]map[string]any),
		visited:   make(map[reflect.Type]bool),
		typeNames: make(map[reflect.Type]string),
		nameTypes: make(map[string]reflect.Type),
	}
}

// Definitions returns the collected named schemas in generation order.
func (g *SchemaGenerator) Definitions() []Definition {
	out := make([]Definition, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, Definition{ID: name, Schema: g.schemas[name]})
	}
	return out
}

// IsModel reports whether v is a Go value the generator turns into a named
// definition: a struct, or a pointer to one, other than time.Time.
func IsModel(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != reflect.TypeOf(time.Time{}) && t.Name() != ""
}

// Generate produces a schema for the given Go value. Named struct types are
// stored as definitions and referenced via $ref.
func (g *SchemaGenerator) Generate(v any) map[string]any {
	if v == nil {
		return nil
	}
	return g.generateType(reflect.TypeOf(v))
}

// generateType produces a schema for t, using $ref for named struct types
// and inline schemas for everything else.
func (g *SchemaGenerator) generateType(t reflect.Type) map[string]any {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	if t.Kind() == reflect.Struct && t != reflect.TypeOf(time.Time{}) {
		if name := g.schemaName(t); name != "" {
			if !g.visited[t] {
				g.visited[t] = true
				schema := g.generateStructSchema(t)

				if ex, ok := reflect.New(t).Interface().(Exampler); ok {
					schema["example"] = ex.OpenAPIExample()
				}

				g.schemas[name] = schema
				g.order = append(g.order, name)
			}

			// Siblings of $ref are ignored, so nullable refs are expressed
			// through allOf in OpenAPI 3.0.
			if nullable && g.v3 {
				return map[string]any{
					"allOf":    []any{map[string]any{"$ref": g.refPrefix + name}},
					"nullable": true,
				}
			}
			return map[string]any{"$ref": g.refPrefix + name}
		}
	}

	schema := g.generateInlineType(t)
	if nullable && schema != nil {
		g.applyNullable(schema)
	}
	return schema
}

// generateInlineType maps Go primitive and composite types to schema types.
//
// See: https://swagger.io/specification/v2/#data-types
func (g *SchemaGenerator) generateInlineType(t reflect.Type) map[string]any {
	if t == reflect.TypeOf(time.Time{}) {
		return map[string]any{"type": "string", "format": "date-time"}
	}

	switch t.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return map[string]any{"type": "integer", "format": "int32"}

	case reflect.Int64:
		return map[string]any{"type": "integer", "format": "int64"}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer", "minimum": 0}

	case reflect.Float32:
		return map[string]any{"type": "number", "format": "float"}

	case reflect.Float64:
		return map[string]any{"type": "number", "format": "double"}

	case reflect.String:
		return map[string]any{"type": "string"}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return map[string]any{"type": "string", "format": "byte"}
		}
		return g.arraySchema(t.Elem())

	case reflect.Array:
		return g.arraySchema(t.Elem())

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return map[string]any{"type": "object"}
		}
		schema := map[string]any{"type": "object"}
		if inner := g.generateType(t.Elem()); inner != nil {
			schema["additionalProperties"] = inner
		}
		return schema

	case reflect.Struct:
		return g.generateStructSchema(t)

	case reflect.Interface:
		return map[string]any{}
	}

	return nil
}

func (g *SchemaGenerator) arraySchema(elem reflect.Type) map[string]any {
	items := g.generateType(elem)
	if items == nil {
		items = map[string]any{}
	}
	return map[string]any{"type": "array", "items": items}
}

// generateStructSchema builds an object schema from struct fields.
//
// See: https://swagger.io/specification/v2/#schema-object (properties, required)
func (g *SchemaGenerator) generateStructSchema(t reflect.Type) map[string]any {
	schema := map[string]any{"type": "object"}
	props := make(map[string]any)
	var required []any

	g.collectFields(t, props, &required, false)

	if len(props) > 0 {
		schema["properties"] = props
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// collectFields recursively collects struct fields. When allOptional is
// true, every field is optional; pointer-embedded structs may be nil and
// then omit all of their fields.
func (g *SchemaGenerator) collectFields(t reflect.Type, props map[string]any, required *[]any, allOptional bool) {
	for i := range t.NumField() {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		// Embedded structs are inlined only without an explicit json name,
		// matching encoding/json.
		if field.Anonymous {
			jsonName, _ := parseJSONTag(field.Tag.Get("json"))
			if jsonName == "" {
				ft := field.Type
				isPtr := ft.Kind() == reflect.Pointer
				if isPtr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					g.collectFields(ft, props, required, allOptional || isPtr)
					continue
				}
			}
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name, opts := parseJSONTag(jsonTag)
		if name == "" {
			name = field.Name
		}

		fieldSchema := g.generateType(field.Type)
		if fieldSchema == nil {
			continue
		}

		applyOpenAPITag(fieldSchema, field.Tag.Get("openapi"))

		if opts.stringEncode && !isRefSchema(fieldSchema) {
			fieldSchema["type"] = "string"
			delete(fieldSchema, "format")
		}

		props[name] = fieldSchema

		if !opts.omitempty && !allOptional {
			*required = append(*required, name)
		}
	}
}

type jsonTagOpts struct {
	omitempty    bool
	stringEncode bool // encoding/json ",string" option
}

func parseJSONTag(tag string) (string, jsonTagOpts) {
	if tag == "" {
		return "", jsonTagOpts{}
	}
	name, rest, _ := strings.Cut(tag, ",")
	return name, jsonTagOpts{
		omitempty:    strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero"),
		stringEncode: strings.Contains(rest, "string"),
	}
}

func isRefSchema(schema map[string]any) bool {
	_, ref := schema["$ref"]
	_, allOf := schema["allOf"]
	return ref || allOf
}

// exclusiveBounds maps exclusive bound tag keys to the bound they flag.
var exclusiveBounds = map[string]string{
	"exclusiveMinimum": "minimum",
	"exclusiveMaximum": "maximum",
}

// applyOpenAPITag parses the `openapi` struct tag and applies validation
// keywords to the schema:
//
//	Age int `json:"age" openapi:"description=Age in years,minimum=0,maximum=150"`
//	Palette string `json:"palette" openapi:"enum=all|rgb|cmyk"`
//
// See: https://swagger.io/specification/v2/#schema-object
func applyOpenAPITag(schema map[string]any, tag string) {
	if tag == "" || isRefSchema(schema) {
		return
	}

	for part := range strings.SplitSeq(tag, ",") {
		key, value, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "description", "format", "pattern", "title":
			schema[key] = value
		case "example", "default":
			schema[key] = parseTagValue(schema, value)
		case "minimum", "maximum", "multipleOf":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				schema[key] = v
			}
		case "exclusiveMinimum", "exclusiveMaximum":
			// Swagger 2.0 and OpenAPI 3.0 express exclusive bounds as a flag
			// on minimum and maximum.
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				schema[exclusiveBounds[key]] = v
				schema[key] = true
			}
		case "minLength", "maxLength", "minItems", "maxItems", "minProperties", "maxProperties":
			if v, err := strconv.Atoi(value); err == nil {
				schema[key] = v
			}
		case "enum":
			values := strings.Split(value, "|")
			enum := make([]any, len(values))
			for i, v := range values {
				enum[i] = parseTagValue(schema, v)
			}
			schema["enum"] = enum
		case "readOnly", "uniqueItems", "deprecated":
			schema[key] = true
		}
	}
}

// parseTagValue converts a tag value to the Go type matching the schema
// type.
func parseTagValue(schema map[string]any, value string) any {
	switch schema["type"] {
	case "integer":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}

// schemaName returns a unique definition name for t. A second type sharing
// the simple name of an earlier one gets its package name as prefix, then a
// numeric suffix if that still collides.
//
// See: https://swagger.io/specification/v2/#definitions-object
func (g *SchemaGenerator) schemaName(t reflect.Type) string {
	simple := sanitizeSchemaName(t.Name())
	if simple == "" || t.PkgPath() == "" {
		return ""
	}

	if name, ok := g.typeNames[t]; ok {
		return name
	}

	name := simple
	if existing, ok := g.nameTypes[name]; ok && existing != t {
		name = pkgPrefix(t.PkgPath()) + simple
		if existing, ok := g.nameTypes[name]; ok && existing != t {
			base := name
			for i := 2; ; i++ {
				candidate := base + strconv.Itoa(i)
				if _, ok := g.nameTypes[candidate]; !ok {
					name = candidate
					break
				}
			}
		}
	}

	g.typeNames[t] = name
	g.nameTypes[name] = t
	return name
}

// pkgPrefix capitalizes the last segment of a package path for use as a
// name prefix ("net/http" -> "Http").
func pkgPrefix(pkgPath string) string {
	if idx := strings.LastIndexByte(pkgPath, '/'); idx >= 0 {
		pkgPath = pkgPath[idx+1:]
	}
	if len(pkgPath) == 0 {
		return ""
	}
	pkgPath = strings.ReplaceAll(pkgPath, "-", "_")
	pkgPath = strings.ReplaceAll(pkgPath, ".", "_")
	return strings.ToUpper(pkgPath[:1]) + pkgPath[1:]
}

// sanitizeSchemaName turns generic instantiation names into plain keys:
// "Page[User]" becomes "PageUser" and "Page[[]User]" becomes "PageUserList".
func sanitizeSchemaName(name string) string {
	idx := strings.IndexByte(name, '[')
	if idx < 0 {
		return name
	}

	base := name[:idx]
	inner := name[idx+1 : len(name)-1]

	isList := strings.HasPrefix(inner, "[]")
	inner = strings.TrimPrefix(inner, "[]")

	if dot := strings.LastIndexByte(inner, '.'); dot >= 0 {
		inner = inner[dot+1:]
	}

	result := base + inner
	if isList {
		result += "List"
	}

	return result
}

// applyNullable marks an inline schema as accepting null: "nullable" in
// OpenAPI 3.0 and the "x-nullable" vendor extension in Swagger 2.0.
func (g *SchemaGenerator) applyNullable(schema map[string]any) {
	if g.v3 {
		schema["nullable"] = true
		return
	}
	schema["x-nullable"] = true
}

// modelSchema returns the inline object schema of a model's own type, for
// models registered under an explicit name.
func (g *SchemaGenerator) modelSchema(v any) map[string]any {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	schema := g.generateStructSchema(t)
	if ex, ok := reflect.New(t).Interface().(Exampler); ok {
		schema["example"] = ex.OpenAPIExample()
	}
	return schema
}
