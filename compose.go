package goshape

import "strings"

// Composition: allOf folding and discriminator dispatch. Both run per value
// level on top of ref resolution. Authoring mistakes and resolution failures
// abort the call; everything data-shaped lands in the accumulator.

// foldAllOf produces the effective node for n: a clone of n's own
// constraints with every allOf member resolved and merged in, left to right.
// The clone keeps composition from ever mutating caller-owned nodes. The
// node's own discriminator survives the fold; discriminators arriving
// through members do not re-dispatch.
func (w *walker) foldAllOf(n *Schema) (*Schema, error) {
	return w.fold(n, 0)
}

func (w *walker) fold(n *Schema, depth int) (*Schema, error) {
	if depth >= w.opt.MaxDepth {
		return nil, &ResolveError{Ref: n.Ref, Code: CodeRefCycle, Status: 508}
	}
	eff := n.Clone()
	eff.AllOf = nil
	ownDisc := eff.Discriminator
	for i, m := range n.AllOf {
		if m == nil {
			return nil, schemaErrf("", "allOf[%d] is not a schema node", i)
		}
		mark := w.chainMark()
		rm, owned, err := w.resolveMember(m, depth+1)
		w.chainReset(mark)
		if err != nil {
			return nil, err
		}
		if !owned {
			rm = rm.Clone()
		}
		eff.Merge(rm)
	}
	eff.Discriminator = ownDisc
	return eff, nil
}

// resolveMember derefs one allOf member and folds its own nested allOf.
// owned reports whether the result is a private copy the caller may merge
// children out of without cloning again.
func (w *walker) resolveMember(m *Schema, depth int) (*Schema, bool, error) {
	n, err := w.deref(m)
	if err != nil {
		return nil, false, err
	}
	if len(n.AllOf) == 0 {
		return n, false, nil
	}
	folded, err := w.fold(n, depth)
	if err != nil {
		return nil, false, err
	}
	return folded, true, nil
}

// discriminate validates v against the concrete schema selected by n's
// discriminator property. The visited set guards recursive discriminator
// chains: reaching the same declaring node twice without progress is an
// enum-style rejection, not an infinite loop.
func (w *walker) discriminate(n *Schema, v any, p PathRef, visited map[*Schema]bool) (any, bool, error) {
	d := n.Discriminator
	if d.PropertyName == "" {
		return nil, false, schemaErrf(p.Pointer(), "discriminator requires a propertyName")
	}
	view, ok := asObject(v)
	if !ok {
		w.v.AddError(p.Err(CodeInvalidType, "value", displayValue(v), "type", "object"))
		return nil, false, nil
	}
	raw, ok := objectGet(view, d.PropertyName)
	if !ok {
		w.v.AddError(p.Field(d.PropertyName).Err(CodeRequired))
		return nil, false, nil
	}
	name, ok := raw.(string)
	if !ok {
		w.v.AddError(p.Field(d.PropertyName).Err(CodeInvalidEnum, "value", displayValue(raw)))
		return nil, false, nil
	}
	target, err := w.discriminatorTarget(d, name)
	if err != nil {
		return nil, false, err
	}
	reject := func() (any, bool, error) {
		w.v.AddError(p.Field(d.PropertyName).Err(CodeInvalidEnum, "value", name))
		return nil, false, nil
	}
	if target == nil || target == n || visited[target] {
		return reject()
	}
	if len(n.OneOf) > 0 && !w.oneOfMember(n.OneOf, target) {
		return reject()
	}
	if visited == nil {
		visited = map[*Schema]bool{}
	}
	visited[n] = true
	if len(visited) > w.opt.MaxDepth {
		return reject()
	}
	return w.walkValue(target, v, p, visited)
}

// discriminatorTarget resolves a discriminator value to a concrete schema:
// mapping entry first, then the sibling-name convention. Resolution failures
// come back as a nil target (the caller reports them as bad data); only
// authoring mistakes surface as errors.
func (w *walker) discriminatorTarget(d *Discriminator, name string) (*Schema, error) {
	ref := name
	if m, ok := d.Mapping[name]; ok && m != "" {
		ref = m
	}
	if !strings.ContainsAny(ref, "#/") {
		ref = "#/components/schemas/" + ref
	}
	if w.opt.Lookup == nil {
		return nil, nil
	}
	mark := w.chainMark()
	defer w.chainReset(mark)
	t, err := w.lookupRef(ref)
	if err != nil {
		if se, ok := AsSchemaError(err); ok {
			return nil, se
		}
		return nil, nil
	}
	t, err = w.deref(t)
	if err != nil {
		if se, ok := AsSchemaError(err); ok {
			return nil, se
		}
		return nil, nil
	}
	return t, nil
}

// oneOfMember checks list membership by identity, resolving ref members so
// a oneOf of $ref entries still recognizes the resolved target.
func (w *walker) oneOfMember(list []*Schema, target *Schema) bool {
	for _, m := range list {
		if m == target {
			return true
		}
		if m.IsRef() {
			mark := w.chainMark()
			t, err := w.deref(m)
			w.chainReset(mark)
			if err == nil && t == target {
				return true
			}
		}
	}
	return false
}
