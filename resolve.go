package goshape

// RefLookup resolves a reference string into a *Schema, a raw constraint
// map (converted through FromMap), or nil for not-found. It is consulted
// lazily at validation time, so referenced schemas may be registered after
// a node graph mentioning them was assembled. An error return surfaces as a
// resolution failure carried by ResolveError, never a crash; a *SchemaError
// return passes through untouched (configuration mistakes such as an
// unsupported reference form).
type RefLookup func(ref string) (any, error)

// deref follows $ref chains until a concrete node appears. The walker's
// active chain tracks the refs currently being dereferenced at this value
// level: seeing the same ref again before any data was consumed is a true
// cycle (508), while recursive data schemas re-enter the same ref one data
// level deeper with a fresh chain and stay valid.
func (w *walker) deref(s *Schema) (*Schema, error) {
	for s.IsRef() {
		ref := s.Ref
		for _, seen := range w.chain {
			if seen == ref {
				return nil, &ResolveError{Ref: ref, Code: CodeRefCycle, Status: 508}
			}
		}
		if len(w.chain) >= w.opt.MaxDepth {
			return nil, &ResolveError{Ref: ref, Code: CodeRefCycle, Status: 508}
		}
		w.chain = append(w.chain, ref)
		target, err := w.lookupRef(ref)
		if err != nil {
			return nil, err
		}
		s = target
	}
	return s, nil
}

func (w *walker) lookupRef(ref string) (*Schema, error) {
	if w.opt.Lookup == nil {
		return nil, schemaErrf("", "no ref lookup configured, cannot resolve %q", ref)
	}
	got, err := w.opt.Lookup(ref)
	if err != nil {
		if se, ok := AsSchemaError(err); ok {
			return nil, se
		}
		return nil, &ResolveError{Ref: ref, Code: CodeRefLookup, Status: 400, Err: err}
	}
	switch t := got.(type) {
	case nil:
		return nil, &ResolveError{Ref: ref, Code: CodeRefNotFound, Status: 404}
	case *Schema:
		if t == nil {
			return nil, &ResolveError{Ref: ref, Code: CodeRefNotFound, Status: 404}
		}
		return t, nil
	case map[string]any:
		s, err := FromMap(t)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, schemaErrf("", "ref lookup for %q returned %T, want *Schema or map[string]any", ref, got)
}

// chainMark remembers the active chain length so composition can unwind it
// once the effective node for a value level is established.
func (w *walker) chainMark() int { return len(w.chain) }

func (w *walker) chainReset(mark int) { w.chain = w.chain[:mark] }
