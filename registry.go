package goshape

import (
	"sort"
	"strings"
	"sync"
)

// Registry stores named schemas and doubles as a RefLookup. It resolves the
// fragment forms "#/components/schemas/<name>", "#/<name>" and bare
// "<name>"; references carrying a scheme or host are a configuration
// mistake, not missing data. Reads are safe for concurrent validation.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	builds  map[buildKey]*buildEntry
}

type buildKey struct {
	name    string
	variant string
}

type buildPhase int

const (
	buildAbsent buildPhase = iota
	buildBuilding
	buildBuilt
)

type buildEntry struct {
	phase buildPhase
	node  *Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: map[string]*Schema{},
		builds:  map[buildKey]*buildEntry{},
	}
}

// Register stores s under name, replacing any previous registration.
func (r *Registry) Register(name string, s *Schema) {
	r.mu.Lock()
	r.schemas[name] = s
	r.mu.Unlock()
}

// Get returns the schema registered under name.
func (r *Registry) Get(name string) (*Schema, bool) {
	r.mu.RLock()
	s, ok := r.schemas[name]
	r.mu.RUnlock()
	return s, ok
}

// Names lists registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Lookup implements RefLookup. Unknown names resolve to nil (not found);
// unsupported reference shapes return a *SchemaError.
func (r *Registry) Lookup(ref string) (any, error) {
	name, err := refName(ref)
	if err != nil {
		return nil, err
	}
	s, ok := r.Get(name)
	if !ok {
		return nil, nil
	}
	return s, nil
}

// refName extracts the schema name from a supported reference form.
func refName(ref string) (string, error) {
	if ref == "" {
		return "", schemaErrf("", "empty $ref")
	}
	if strings.Contains(ref, "://") {
		return "", schemaErrf("", "unsupported $ref %q: remote references are not resolvable here", ref)
	}
	name := ref
	if strings.HasPrefix(name, "#/") {
		name = strings.TrimPrefix(name, "#/")
		name = strings.TrimPrefix(name, "components/schemas/")
	} else if strings.HasPrefix(name, "#") {
		return "", schemaErrf("", "unsupported $ref %q", ref)
	}
	if name == "" || strings.Contains(name, "/") {
		return "", schemaErrf("", "unsupported $ref %q: expected a schema name", ref)
	}
	return unescapeSegment(name), nil
}

// Build derives a schema once per (name, variant) key. A nil error from fn
// moves the key to built and caches the node; building the same key while
// it is already building is a circular derivation and fails, while a
// different variant of the same name may proceed independently. The ""
// variant also registers the result under name.
func (r *Registry) Build(name, variant string, fn func() (*Schema, error)) (*Schema, error) {
	key := buildKey{name: name, variant: variant}
	r.mu.Lock()
	e := r.builds[key]
	if e == nil {
		e = &buildEntry{}
		r.builds[key] = e
	}
	switch e.phase {
	case buildBuilt:
		r.mu.Unlock()
		return e.node, nil
	case buildBuilding:
		r.mu.Unlock()
		return nil, schemaErrf("", "circular schema build for %q (variant %q)", name, variant)
	}
	e.phase = buildBuilding
	r.mu.Unlock()

	node, err := fn()
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		e.phase = buildAbsent
		return nil, err
	}
	e.phase = buildBuilt
	e.node = node
	if variant == "" {
		r.schemas[name] = node
	}
	return node, nil
}

// BuildPhase reports the cache state for a key: absent, building or built.
func (r *Registry) BuildPhase(name, variant string) (building, built bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e := r.builds[buildKey{name: name, variant: variant}]
	if e == nil {
		return false, false
	}
	return e.phase == buildBuilding, e.phase == buildBuilt
}

// RegistryFromComponents builds a registry from a decoded OpenAPI-style
// document, reading components.schemas. Raw maps pass through FromMap, so
// authoring mistakes surface immediately with the schema name attached.
func RegistryFromComponents(doc map[string]any) (*Registry, error) {
	r := NewRegistry()
	components, ok := doc["components"].(map[string]any)
	if !ok {
		return r, nil
	}
	raw, ok := components["schemas"].(map[string]any)
	if !ok {
		return r, nil
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m, ok := raw[name].(map[string]any)
		if !ok {
			return nil, schemaErrf("/"+escapeSegment(name), "schema entry must be a mapping")
		}
		s, err := FromMap(m)
		if err != nil {
			if se, isSchema := AsSchemaError(err); isSchema && se.Path == "" {
				se.Path = "/" + escapeSegment(name)
			}
			return nil, err
		}
		r.Register(name, s)
	}
	return r, nil
}
