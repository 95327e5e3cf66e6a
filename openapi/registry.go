package openapi

import (
	"maps"
	"slices"
	"sync"

	"github.com/vitalvas/specforge/fragment"
)

// Registry owns the definitions collected during one document build,
// keyed by id.
type Registry struct {
	defs map[string]map[string]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]map[string]any)}
}

// Add upserts a definition. Keys of an existing entry are overwritten one
// by one, so adding the same definition twice converges on one entry.
func (r *Registry) Add(def Definition) {
	if def.ID == "" {
		return
	}

	entry, ok := r.defs[def.ID]
	if !ok {
		entry = make(map[string]any, len(def.Schema))
		r.defs[def.ID] = entry
	}

	for k, v := range def.Schema {
		if k == "id" {
			continue
		}
		entry[k] = fragment.Clone(v)
	}
}

// AddAll upserts every definition in order.
func (r *Registry) AddAll(defs []Definition) {
	for _, def := range defs {
		r.Add(def)
	}
}

// Merge upserts already final definitions given as a mapping of id to
// schema, such as the "definitions" block of a fragment.
func (r *Registry) Merge(defs map[string]any) {
	for _, id := range fragment.SortedKeys(defs) {
		if schema, ok := fragment.AsMap(defs[id]); ok {
			r.Add(Definition{ID: id, Schema: schema})
		}
	}
}

// Get returns the definition registered under id.
func (r *Registry) Get(id string) (map[string]any, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// IDs returns the registered ids in lexical order.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.defs))
}

// Map returns the definitions as a generic mapping.
func (r *Registry) Map() map[string]any {
	out := make(map[string]any, len(r.defs))
	for id, def := range r.defs {
		out[id] = def
	}
	return out
}

// Model is a reusable definition that is not exposed as a route.
//
// Target supplies the definition's documentation. Supported targets are
// values implementing Documented, fragment.Source values, fragment
// mappings, documentation text given as a string, and Go struct values
// whose schema is derived by reflection.
type Model struct {
	Name   string
	Target any
	Tags   []string
}

// HasTag reports whether the model carries tag.
func (m Model) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

// Models is the append-only list of registered definition models. Models
// are registered at startup and read during document builds.
type Models struct {
	mu    sync.RWMutex
	items []Model
}

// Register appends a model.
func (m *Models) Register(name string, target any, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = append(m.items, Model{Name: name, Target: target, Tags: tags})
}

// Resolve returns the models accepted by filter, in registration order. A
// nil filter accepts every model.
func (m *Models) Resolve(filter func(Model) bool) []Model {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Model, 0, len(m.items))
	for _, item := range m.items {
		if filter == nil || filter(item) {
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of registered models.
func (m *Models) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}
