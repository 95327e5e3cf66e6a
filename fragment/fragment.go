package fragment

import (
	"fmt"
	"reflect"
	"sort"
)

// Fragment is one parsed block of structured documentation: the mapping that
// follows the "---" separator of a handler's documentation text, an attached
// dict, or the contents of a fragment file.
//
// Nested mappings are plain map[string]any values; only the top level carries
// the Fragment type.
type Fragment map[string]any

// Clone returns a deep copy of the fragment. Mappings and lists are copied,
// scalar values are shared.
func (f Fragment) Clone() Fragment {
	if f == nil {
		return nil
	}
	return Fragment(cloneMap(f))
}

// Merge merges src into f with src taking precedence. Mappings merge key by
// key, lists are unioned in order, and anything else is replaced by the value
// from src.
func (f Fragment) Merge(src map[string]any) {
	mergeMaps(f, src)
}

// Map returns the value stored under key as a mapping.
func (f Fragment) Map(key string) (map[string]any, bool) {
	return AsMap(f[key])
}

// List returns the value stored under key as a list.
func (f Fragment) List(key string) ([]any, bool) {
	v, ok := f[key].([]any)
	return v, ok
}

// String returns the value stored under key when it is a string.
func (f Fragment) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// AsMap returns v as a mapping. It accepts both map[string]any and Fragment.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Fragment:
		return map[string]any(m), true
	}
	return nil, false
}

// Clone returns a deep copy of a value built from mappings, lists and scalars.
func Clone(v any) any {
	switch t := v.(type) {
	case Fragment:
		return t.Clone()
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	}
	return v
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

func mergeMaps(dst, src map[string]any) {
	for k, sv := range src {
		dv, exists := dst[k]
		if !exists {
			dst[k] = Clone(sv)
			continue
		}

		if dm, ok := AsMap(dv); ok {
			if sm, ok := AsMap(sv); ok {
				mergeMaps(dm, sm)
				continue
			}
		}

		if dl, ok := toList(dv); ok {
			if sl, ok := toList(sv); ok {
				dst[k] = unionLists(dl, sl)
				continue
			}
		}

		dst[k] = Clone(sv)
	}
}

func toList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func unionLists(dst, src []any) []any {
	out := make([]any, 0, len(dst)+len(src))
	for _, v := range dst {
		out = append(out, Clone(v))
	}
	for _, v := range src {
		if !containsDeep(out, v) {
			out = append(out, Clone(v))
		}
	}
	return out
}

func containsDeep(list []any, v any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

// Normalize converts the generic values produced by YAML decoding, and Go
// literals such as []map[string]any, into the shape used throughout the
// package: every mapping becomes map[string]any with stringified keys, so
// that response codes written as 200 and "200" address the same entry, and
// every list becomes []any. Structs and other values are kept as they are.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Normalize(item)
		}
		return out
	case Fragment:
		return Normalize(map[string]any(t))
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Normalize(item)
		}
		return out
	case []byte, nil:
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any(nil)
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return map[string]any(nil)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = Normalize(iter.Value().Interface())
		}
		return out
	}
	return v
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
