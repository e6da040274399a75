// Package dsl builds canonical schema nodes in code: chainable per-kind
// constructors plus a compact field shorthand for the common flat cases.
// Everything here produces plain goshape.Schema trees; no validation logic
// lives in the builders.
package dsl

import (
	goshape "github.com/reoring/goshape"
)

// Node wraps a schema under construction. The required mark is consumed by
// the parent Prop call; everything else writes straight into the node.
type Node struct {
	s        *goshape.Schema
	required bool
}

// String starts a string node.
func String() *Node { return kind(goshape.TypeString) }

// Integer starts an integer node.
func Integer() *Node { return kind(goshape.TypeInteger) }

// Number starts a number node.
func Number() *Node { return kind(goshape.TypeNumber) }

// Bool starts a boolean node.
func Bool() *Node { return kind(goshape.TypeBoolean) }

// Object starts an object node.
func Object() *Node { return kind(goshape.TypeObject) }

// Array starts an array node validating elements against items.
func Array(items *Node) *Node {
	n := kind(goshape.TypeArray)
	if items != nil {
		n.s.Items = items.s
	}
	return n
}

// Any starts a node with no declared kind: it accepts any value.
func Any() *Node { return &Node{s: &goshape.Schema{}} }

// Union starts a node accepting several kinds, tried in the given order.
func Union(kinds ...goshape.Type) *Node {
	return &Node{s: &goshape.Schema{Type: append(goshape.TypeSet(nil), kinds...)}}
}

// Ref starts an unresolved reference node.
func Ref(ref string) *Node { return &Node{s: &goshape.Schema{Ref: ref}} }

func kind(t goshape.Type) *Node {
	return &Node{s: &goshape.Schema{Type: goshape.TypeSet{t}}}
}

// Schema returns the built node.
func (n *Node) Schema() *goshape.Schema { return n.s }

// Required marks the node for the enclosing Prop call.
func (n *Node) Required() *Node { n.required = true; return n }

// Nullable widens the node to accept null.
func (n *Node) Nullable() *Node { n.s.Nullable = true; return n }

// Format tags the node with a format name.
func (n *Node) Format(f string) *Node { n.s.Format = f; return n }

// Enum restricts the node to the given values.
func (n *Node) Enum(vals ...any) *Node { n.s.Enum = vals; return n }

// Default attaches a default injected for required-but-missing fields.
func (n *Node) Default(v any) *Node { n.s.Default = v; return n }

// Title sets the node title.
func (n *Node) Title(t string) *Node { n.s.Title = t; return n }

// Desc sets the node description.
func (n *Node) Desc(d string) *Node { n.s.Description = d; return n }

// Min sets the inclusive numeric lower bound.
func (n *Node) Min(f float64) *Node {
	n.s.Minimum = &f
	n.s.ExclusiveMinimum = false
	return n
}

// Max sets the inclusive numeric upper bound.
func (n *Node) Max(f float64) *Node {
	n.s.Maximum = &f
	n.s.ExclusiveMaximum = false
	return n
}

// ExclusiveMin sets an exclusive numeric lower bound.
func (n *Node) ExclusiveMin(f float64) *Node {
	n.s.Minimum = &f
	n.s.ExclusiveMinimum = true
	return n
}

// ExclusiveMax sets an exclusive numeric upper bound.
func (n *Node) ExclusiveMax(f float64) *Node {
	n.s.Maximum = &f
	n.s.ExclusiveMaximum = true
	return n
}

// MultipleOf requires the value to be a multiple of f.
func (n *Node) MultipleOf(f float64) *Node { n.s.MultipleOf = &f; return n }

// MinLen sets the minimum string length.
func (n *Node) MinLen(c int) *Node { n.s.MinLength = &c; return n }

// MaxLen sets the maximum string length.
func (n *Node) MaxLen(c int) *Node { n.s.MaxLength = &c; return n }

// MaxBytes caps the raw byte length regardless of the counting mode.
func (n *Node) MaxBytes(c int) *Node { n.s.MaxByteLength = &c; return n }

// Pattern requires the string to match a regular expression.
func (n *Node) Pattern(p string) *Node { n.s.Pattern = p; return n }

// MinItems sets the minimum element count.
func (n *Node) MinItems(c int) *Node { n.s.MinItems = &c; return n }

// MaxItems sets the maximum element count.
func (n *Node) MaxItems(c int) *Node { n.s.MaxItems = &c; return n }

// Unique requires array elements to be distinct.
func (n *Node) Unique() *Node { n.s.UniqueItems = true; return n }

// Style lets a scalar string expand into an array on the given delimiter.
func (n *Node) Style(st goshape.Style) *Node { n.s.Style = st; return n }

// Prop declares a property. A child marked Required joins the required set.
func (n *Node) Prop(name string, child *Node) *Node {
	if n.s.Properties == nil {
		n.s.Properties = goshape.NewProperties()
	}
	n.s.Properties.Set(name, child.s)
	if child.required && !n.s.IsRequired(name) {
		n.s.Required = append(n.s.Required, name)
	}
	return n
}

// Require marks the named properties required.
func (n *Node) Require(names ...string) *Node {
	for _, name := range names {
		if !n.s.IsRequired(name) {
			n.s.Required = append(n.s.Required, name)
		}
	}
	return n
}

// Additional allows or denies undeclared keys outright.
func (n *Node) Additional(allowed bool) *Node {
	n.s.AdditionalProperties = &goshape.AdditionalProperties{Has: &allowed}
	return n
}

// AdditionalSchema validates undeclared keys against a node.
func (n *Node) AdditionalSchema(child *Node) *Node {
	n.s.AdditionalProperties = &goshape.AdditionalProperties{Schema: child.s}
	return n
}

// MinProps sets the minimum raw key count.
func (n *Node) MinProps(c int) *Node { n.s.MinProperties = &c; return n }

// MaxProps sets the maximum raw key count.
func (n *Node) MaxProps(c int) *Node { n.s.MaxProperties = &c; return n }

// ReadOnly marks the node readOnly (stripped under request mode).
func (n *Node) ReadOnly() *Node { n.s.ReadOnly = true; return n }

// WriteOnly marks the node writeOnly (stripped under response mode).
func (n *Node) WriteOnly() *Node { n.s.WriteOnly = true; return n }

// AllOf composes the node with the given members.
func (n *Node) AllOf(members ...*Node) *Node {
	for _, m := range members {
		n.s.AllOf = append(n.s.AllOf, m.s)
	}
	return n
}

// OneOf lists the admissible concrete schemas for discriminator dispatch.
func (n *Node) OneOf(members ...*Node) *Node {
	for _, m := range members {
		n.s.OneOf = append(n.s.OneOf, m.s)
	}
	return n
}

// Discriminator dispatches on the runtime value of a property.
func (n *Node) Discriminator(property string, mapping map[string]string) *Node {
	n.s.Discriminator = &goshape.Discriminator{PropertyName: property, Mapping: mapping}
	return n
}
