package openapi

import (
	"fmt"

	"github.com/vitalvas/specforge/fragment"
)

// Definition is a named schema promoted to the document's definitions.
type Definition struct {
	ID     string
	Schema map[string]any
}

// ExtractOptions controls definition extraction.
type ExtractOptions struct {
	// RefPrefix is prepended to definition ids to form $ref pointers.
	// Defaults to "#/definitions/".
	RefPrefix string

	// PrefixIDs namespaces every id as "<route>_<verb>_<id>".
	PrefixIDs bool

	Route string
	Verb  string
}

func (o ExtractOptions) refPrefix() string {
	if o.RefPrefix == "" {
		return refPrefixV2
	}
	return o.RefPrefix
}

// ExtractDefinitions finds schemas carrying an "id" inside a parameter or
// response list and promotes them to definitions. It returns a copy of
// items in which each promoted schema is replaced by a $ref; the input is
// left untouched.
//
// Items at the top of the list keep the pointer under "schema". Nested
// items, such as object properties and array items, carry the "$ref"
// directly and lose their "schema" key.
//
// See: https://swagger.io/specification/v2/#definitions-object
func ExtractDefinitions(items []any, opts ExtractOptions) ([]any, []Definition, error) {
	if items == nil {
		return nil, nil, nil
	}

	out, _ := fragment.Clone(items).([]any)

	defs, err := extractLevel(out, 0, opts)
	if err != nil {
		return nil, nil, err
	}

	return out, defs, nil
}

// ExtractDefinitionMap is ExtractDefinitions for a mapping keyed by
// response code or media type.
func ExtractDefinitionMap(items map[string]any, opts ExtractOptions) (map[string]any, []Definition, error) {
	if items == nil {
		return nil, nil, nil
	}

	out, _ := fragment.Clone(items).(map[string]any)

	list := make([]any, 0, len(out))
	for _, key := range fragment.SortedKeys(out) {
		list = append(list, out[key])
	}

	defs, err := extractLevel(list, 0, opts)
	if err != nil {
		return nil, nil, err
	}

	return out, defs, nil
}

func extractLevel(items []any, level int, opts ExtractOptions) ([]Definition, error) {
	var defs []Definition

	for _, raw := range items {
		item, ok := fragment.AsMap(raw)
		if !ok {
			return nil, fmt.Errorf("%w: got %T", ErrNotMapping, raw)
		}

		if schema, ok := fragment.AsMap(item["schema"]); ok {
			if id, ok := schema["id"].(string); ok && id != "" {
				if opts.PrefixIDs {
					id = fmt.Sprintf("%s_%s_%s", opts.Route, opts.Verb, id)
					schema["id"] = id
				}

				defs = append(defs, Definition{ID: id, Schema: schema})

				ref := opts.refPrefix() + id
				if level == 0 {
					item["schema"] = map[string]any{"$ref": ref}
				} else {
					item["$ref"] = ref
					delete(item, "schema")
				}
			}

			if props, ok := fragment.AsMap(schema["properties"]); ok {
				nested, err := extractLevel(mapValues(props), level+1, opts)
				if err != nil {
					return nil, err
				}
				defs = append(defs, nested...)
			}

			nested, err := extractArrayItems(schema, level, opts)
			if err != nil {
				return nil, err
			}
			defs = append(defs, nested...)
		}

		nested, err := extractArrayItems(item, level, opts)
		if err != nil {
			return nil, err
		}
		defs = append(defs, nested...)
	}

	// The id key stays on the schema while nested levels run; drop it once
	// the definition is complete.
	if level == 0 {
		for i := range defs {
			delete(defs[i].Schema, "id")
		}
	}

	return defs, nil
}

func extractArrayItems(source map[string]any, level int, opts ExtractOptions) ([]Definition, error) {
	items, ok := fragment.AsMap(source["items"])
	if !ok {
		return nil, nil
	}
	if _, ok := items["schema"]; !ok {
		return nil, nil
	}
	return extractLevel([]any{items}, level+1, opts)
}

func mapValues(m map[string]any) []any {
	out := make([]any, 0, len(m))
	for _, key := range fragment.SortedKeys(m) {
		out = append(out, m[key])
	}
	return out
}
