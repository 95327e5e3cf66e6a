package openapi

import (
	"strings"

	"github.com/vitalvas/specforge/fragment"
)

const (
	// SwaggerVersion is the version marker of Swagger 2.0 documents.
	SwaggerVersion = "2.0"

	refPrefixV2 = "#/definitions/"
	refPrefixV3 = "#/components/schemas/"
)

// Document is an assembled API description: a Swagger 2.0 document or an
// OpenAPI 3 document, never a mix of both.
//
// See: https://swagger.io/specification/v2/#swagger-object
// See: https://spec.openapis.org/oas/v3.0.3#openapi-object
type Document map[string]any

// IsOpenAPI3 reports whether the document carries the "openapi" marker.
func (d Document) IsOpenAPI3() bool {
	_, ok := d["openapi"]
	return ok
}

// Paths returns the paths object.
func (d Document) Paths() map[string]any {
	paths, _ := fragment.AsMap(d["paths"])
	return paths
}

// Definitions returns the definitions registry: "definitions" for Swagger
// 2.0, "components.schemas" for OpenAPI 3.
func (d Document) Definitions() map[string]any {
	if d.IsOpenAPI3() {
		components, _ := fragment.AsMap(d["components"])
		schemas, _ := fragment.AsMap(components["schemas"])
		return schemas
	}
	defs, _ := fragment.AsMap(d["definitions"])
	return defs
}

// Operation returns the operation for path and verb.
func (d Document) Operation(path, verb string) (map[string]any, bool) {
	item, ok := fragment.AsMap(d.Paths()[path])
	if !ok {
		return nil, false
	}
	return fragment.AsMap(item[strings.ToLower(verb)])
}

// Refs returns every "$ref" string found in the document, in no particular
// order.
func (d Document) Refs() []string {
	var refs []string
	collectRefs(map[string]any(d), &refs)
	return refs
}

// DanglingRefs returns the local definition references that do not resolve
// to a registered definition. An OpenAPI 3 document keeps its definitions
// under components, so any "#/definitions/" reference in it dangles.
func (d Document) DanglingRefs() []string {
	prefix := refPrefixV2
	if d.IsOpenAPI3() {
		prefix = refPrefixV3
	}

	defs := d.Definitions()
	var dangling []string
	for _, ref := range d.Refs() {
		id, ok := strings.CutPrefix(ref, prefix)
		if !ok {
			if prefix == refPrefixV3 && strings.HasPrefix(ref, refPrefixV2) {
				dangling = append(dangling, ref)
			}
			continue
		}
		if _, found := defs[id]; !found {
			dangling = append(dangling, ref)
		}
	}
	return dangling
}

func collectRefs(v any, refs *[]string) {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			if s, ok := item.(string); ok && k == "$ref" {
				*refs = append(*refs, s)
				continue
			}
			collectRefs(item, refs)
		}
	case fragment.Fragment:
		collectRefs(map[string]any(t), refs)
	case []any:
		for _, item := range t {
			collectRefs(item, refs)
		}
	}
}
