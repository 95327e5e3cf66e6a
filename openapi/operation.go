package openapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vitalvas/specforge/fragment"
)

// operation assembles one verb of one route. It returns ok false when none
// of the sources carries a fragment.
//
// See: https://swagger.io/specification/v2/#operation-object
// See: https://spec.openapis.org/oas/v3.0.3#operation-object
func (b *build) operation(r Route, verb string, src Sources) (map[string]any, bool, error) {
	endpoint := pick(src.Endpoint, r.Endpoint, handlerEndpoint(r.Handler), EndpointName(r.Pattern))
	verb = strings.ToLower(verb)

	doc, err := b.extractor(src.Root).Extract(endpoint, verb, src.Text...)
	if err != nil {
		return nil, false, err
	}

	if src.Schema == nil && src.Attached == nil && !doc.Documented() {
		return nil, false, nil
	}

	merged := mergeSources(src, doc)

	merged = b.convertModels(merged)

	if defs, ok := merged.Map("definitions"); ok {
		b.registry.Merge(defs)
	}
	if components, ok := merged.Map("components"); ok {
		b.mergeComponents(components)
	}

	opts := ExtractOptions{
		RefPrefix: b.refPrefix,
		PrefixIDs: b.s.cfg.PrefixIDs,
		Route:     endpoint,
		Verb:      verb,
	}

	op := make(map[string]any)

	if summary := summaryOf("summary", doc, merged); summary != "" {
		op["summary"] = summary
	}
	if description := summaryOf("description", doc, merged); description != "" {
		op["description"] = description
	}

	if raw, ok := merged["parameters"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, false, fmt.Errorf("%w: parameters is %T", ErrNotMapping, raw)
		}
		params, defs, err := ExtractDefinitions(dedupeParameters(list), opts)
		if err != nil {
			return nil, false, err
		}
		b.registry.AddAll(defs)
		typePathParams(params, r.Pattern, b.v3)

		// Tooling treats an empty list differently from an absent key.
		if len(params) > 0 {
			op["parameters"] = params
		}
	}

	if raw, ok := merged["responses"]; ok {
		responses, ok := fragment.AsMap(raw)
		if !ok {
			return nil, false, fmt.Errorf("%w: responses is %T", ErrNotMapping, raw)
		}
		out, defs, err := ExtractDefinitionMap(responses, opts)
		if err != nil {
			return nil, false, err
		}
		b.registry.AddAll(defs)

		if b.v3 {
			for _, code := range fragment.SortedKeys(out) {
				response, _ := fragment.AsMap(out[code])
				if err := b.extractContent(response, opts); err != nil {
					return nil, false, err
				}
			}
		}
		op["responses"] = out
	}

	for _, key := range b.s.cfg.optionalFields() {
		if v, ok := merged[key]; ok {
			op[key] = v
		}
	}

	if b.v3 {
		if body, ok := fragment.AsMap(merged["requestBody"]); ok {
			if err := b.extractContent(body, opts); err != nil {
				return nil, false, err
			}
			op["requestBody"] = body
		}
		if callbacks, ok := merged["callbacks"]; ok {
			op["callbacks"] = callbacks
		}
	}

	for key, v := range merged {
		if strings.HasPrefix(key, "x-") {
			op[key] = v
		}
	}

	return op, true, nil
}

// mergeSources merges the fragments of one operation: schema, attached,
// then documentation, later ones winning. Go literals in the schema and
// attached fragments are normalized first.
func mergeSources(src Sources, doc fragment.Doc) fragment.Fragment {
	merged := fragment.Fragment{}
	if src.Schema != nil {
		merged.Merge(normalized(src.Schema))
	}
	if src.Attached != nil {
		merged.Merge(normalized(src.Attached))
	}
	if doc.Fragment != nil {
		merged.Merge(doc.Fragment)
	}
	return merged
}

func normalized(f fragment.Fragment) map[string]any {
	m, _ := fragment.Normalize(map[string]any(f)).(map[string]any)
	return m
}

// extractContent promotes definitions found in the media types of an
// OpenAPI 3 request body or response.
//
// See: https://spec.openapis.org/oas/v3.0.3#media-type-object
func (b *build) extractContent(holder map[string]any, opts ExtractOptions) error {
	content, ok := fragment.AsMap(holder["content"])
	if !ok {
		return nil
	}
	out, defs, err := ExtractDefinitionMap(content, opts)
	if err != nil {
		return err
	}
	b.registry.AddAll(defs)
	holder["content"] = out
	return nil
}

// summaryOf resolves the summary or description of an operation. A key set
// in the documentation fragment wins over the documentation text, which
// wins over the attached and schema fragments.
func summaryOf(key string, doc fragment.Doc, merged fragment.Fragment) string {
	if doc.Fragment != nil {
		if v := doc.Fragment.String(key); v != "" {
			return v
		}
	}

	text := doc.Summary
	if key == "description" {
		text = doc.Description
	}
	if text != "" {
		return text
	}

	return merged.String(key)
}

// dedupeParameters keeps one parameter per name and location. A later
// entry replaces an earlier one in place.
//
// See: https://swagger.io/specification/v2/#parameter-object
func dedupeParameters(params []any) []any {
	index := make(map[[2]string]int, len(params))
	out := make([]any, 0, len(params))

	for _, p := range params {
		m, ok := fragment.AsMap(p)
		if !ok {
			out = append(out, p)
			continue
		}

		name, _ := m["name"].(string)
		in, _ := m["in"].(string)
		if name == "" && in == "" {
			out = append(out, p)
			continue
		}

		key := [2]string{name, in}
		if i, ok := index[key]; ok {
			out[i] = p
			continue
		}
		index[key] = len(out)
		out = append(out, p)
	}

	return out
}

// convertModels replaces Go struct values in a fragment with references to
// generated definitions. Models listed as parameters become the request
// body, models given as responses become response objects.
func (b *build) convertModels(f fragment.Fragment) fragment.Fragment {
	if params, ok := f.List("parameters"); ok {
		kept := make([]any, 0, len(params))
		for _, p := range params {
			if !IsModel(p) {
				kept = append(kept, b.convertValue(p))
				continue
			}

			if b.v3 {
				if _, exists := f["requestBody"]; !exists {
					f["requestBody"] = b.requestBody(p)
				}
				continue
			}

			kept = append(kept, map[string]any{
				"in":       "body",
				"name":     "body",
				"required": true,
				"schema":   b.gen.Generate(p),
			})
		}
		f["parameters"] = kept
	}

	if responses, ok := f.Map("responses"); ok {
		out := make(map[string]any, len(responses))
		for code, r := range responses {
			if IsModel(r) {
				out[code] = b.response(code, r)
				continue
			}
			out[code] = b.convertValue(r)
		}
		f["responses"] = out
	}

	if defs, ok := f.Map("definitions"); ok {
		out := make(map[string]any, len(defs))
		for name, d := range defs {
			if IsModel(d) {
				out[name] = b.gen.modelSchema(d)
				continue
			}
			out[name] = b.convertValue(d)
		}
		f["definitions"] = out
	}

	if body, ok := f["requestBody"]; ok && IsModel(body) {
		f["requestBody"] = b.requestBody(body)
	}

	for key, v := range f {
		switch key {
		case "parameters", "responses", "definitions", "requestBody":
			continue
		}
		f[key] = b.convertValue(v)
	}

	return f
}

// convertValue replaces every Go struct value nested in v with a reference.
func (b *build) convertValue(v any) any {
	if IsModel(v) {
		return b.gen.Generate(v)
	}

	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = b.convertValue(item)
		}
	case fragment.Fragment:
		for k, item := range t {
			t[k] = b.convertValue(item)
		}
	case []any:
		for i, item := range t {
			t[i] = b.convertValue(item)
		}
	}
	return v
}

func (b *build) requestBody(model any) map[string]any {
	return map[string]any{
		"required": true,
		"content": map[string]any{
			"application/json": map[string]any{"schema": b.gen.Generate(model)},
		},
	}
}

func (b *build) response(code string, model any) map[string]any {
	schema := b.gen.Generate(model)
	if b.v3 {
		return map[string]any{
			"description": responseDescription(code),
			"content": map[string]any{
				"application/json": map[string]any{"schema": schema},
			},
		}
	}
	return map[string]any{
		"description": responseDescription(code),
		"schema":      schema,
	}
}

// responseDescription returns a human-readable description for a response
// key.
//
// See: https://swagger.io/specification/v2/#response-object (description)
func responseDescription(key string) string {
	if key == "default" {
		return "Default response"
	}
	code, err := strconv.Atoi(key)
	if err == nil {
		if text := http.StatusText(code); text != "" {
			return text
		}
	}
	return key
}

// handlerEndpoint returns the route name a handler declares for itself.
func handlerEndpoint(h http.Handler) string {
	if named, ok := h.(interface{ EndpointName() string }); ok {
		return named.EndpointName()
	}
	return ""
}
