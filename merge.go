package goshape

// Pure tree manipulation. No validation logic lives here. Merge and Add
// mutate their receiver: callers compose schemas before first use, and the
// composition resolver clones before folding so shared nodes stay intact
// during validation.

// Merge folds other into s with allOf semantics: scalar constraints from
// other win when set, required sets union, enum and allOf concatenate
// without duplicates, nested properties and items merge recursively.
// Properties present only in other are shared by reference, not copied.
func (s *Schema) Merge(other *Schema) {
	if other == nil {
		return
	}
	if len(other.Type) > 0 {
		s.Type = append(TypeSet(nil), other.Type...)
	}
	if other.Format != "" {
		s.Format = other.Format
	}
	s.Nullable = s.Nullable || other.Nullable
	if other.Title != "" {
		s.Title = other.Title
	}
	if other.Description != "" {
		s.Description = other.Description
	}
	for _, e := range other.Enum {
		if !containsValue(s.Enum, e) {
			s.Enum = append(s.Enum, e)
		}
	}
	if other.Default != nil {
		s.Default = other.Default
	}
	if other.Minimum != nil {
		s.Minimum = clonePtr(other.Minimum)
		s.ExclusiveMinimum = other.ExclusiveMinimum
	}
	if other.Maximum != nil {
		s.Maximum = clonePtr(other.Maximum)
		s.ExclusiveMaximum = other.ExclusiveMaximum
	}
	if other.MultipleOf != nil {
		s.MultipleOf = clonePtr(other.MultipleOf)
	}
	if other.MinLength != nil {
		s.MinLength = clonePtr(other.MinLength)
	}
	if other.MaxLength != nil {
		s.MaxLength = clonePtr(other.MaxLength)
	}
	if other.MaxByteLength != nil {
		s.MaxByteLength = clonePtr(other.MaxByteLength)
	}
	if other.Pattern != "" {
		s.Pattern = other.Pattern
	}
	if other.Items != nil {
		if s.Items != nil {
			s.Items.Merge(other.Items)
		} else {
			s.Items = other.Items
		}
	}
	if other.MinItems != nil {
		s.MinItems = clonePtr(other.MinItems)
	}
	if other.MaxItems != nil {
		s.MaxItems = clonePtr(other.MaxItems)
	}
	s.UniqueItems = s.UniqueItems || other.UniqueItems
	if other.Style != "" {
		s.Style = other.Style
	}
	if other.Properties != nil {
		if s.Properties == nil {
			s.Properties = NewProperties()
		}
		for name, child := range other.Properties.All() {
			if mine, ok := s.Properties.Get(name); ok {
				mine.Merge(child)
			} else {
				s.Properties.Set(name, child)
			}
		}
	}
	for _, r := range other.Required {
		if !s.IsRequired(r) {
			s.Required = append(s.Required, r)
		}
	}
	if other.AdditionalProperties != nil {
		s.AdditionalProperties = other.AdditionalProperties
	}
	if other.MinProperties != nil {
		s.MinProperties = clonePtr(other.MinProperties)
	}
	if other.MaxProperties != nil {
		s.MaxProperties = clonePtr(other.MaxProperties)
	}
	s.ReadOnly = s.ReadOnly || other.ReadOnly
	s.WriteOnly = s.WriteOnly || other.WriteOnly
	for _, m := range other.AllOf {
		if !containsSchema(s.AllOf, m) {
			s.AllOf = append(s.AllOf, m)
		}
	}
	for _, m := range other.OneOf {
		if !containsSchema(s.OneOf, m) {
			s.OneOf = append(s.OneOf, m)
		}
	}
	if other.Discriminator != nil {
		s.Discriminator = other.Discriminator
	}
	if other.Ref != "" {
		s.Ref = other.Ref
	}
}

// Add fills fields that are missing on s from other, leaving existing
// customizations untouched. includeDetails extends the fill to the
// documentation fields (title, description, default).
func (s *Schema) Add(other *Schema, includeDetails bool) {
	if other == nil {
		return
	}
	if len(s.Type) == 0 && len(other.Type) > 0 {
		s.Type = append(TypeSet(nil), other.Type...)
	}
	if s.Format == "" {
		s.Format = other.Format
	}
	if !s.Nullable {
		s.Nullable = other.Nullable
	}
	if includeDetails {
		if s.Title == "" {
			s.Title = other.Title
		}
		if s.Description == "" {
			s.Description = other.Description
		}
		if s.Default == nil {
			s.Default = other.Default
		}
	}
	if s.Enum == nil {
		s.Enum = other.Enum
	}
	if s.Minimum == nil && other.Minimum != nil {
		s.Minimum = clonePtr(other.Minimum)
		s.ExclusiveMinimum = other.ExclusiveMinimum
	}
	if s.Maximum == nil && other.Maximum != nil {
		s.Maximum = clonePtr(other.Maximum)
		s.ExclusiveMaximum = other.ExclusiveMaximum
	}
	if s.MultipleOf == nil {
		s.MultipleOf = clonePtr(other.MultipleOf)
	}
	if s.MinLength == nil {
		s.MinLength = clonePtr(other.MinLength)
	}
	if s.MaxLength == nil {
		s.MaxLength = clonePtr(other.MaxLength)
	}
	if s.MaxByteLength == nil {
		s.MaxByteLength = clonePtr(other.MaxByteLength)
	}
	if s.Pattern == "" {
		s.Pattern = other.Pattern
	}
	if s.Items == nil {
		s.Items = other.Items
	}
	if s.MinItems == nil {
		s.MinItems = clonePtr(other.MinItems)
	}
	if s.MaxItems == nil {
		s.MaxItems = clonePtr(other.MaxItems)
	}
	if !s.UniqueItems {
		s.UniqueItems = other.UniqueItems
	}
	if s.Style == "" {
		s.Style = other.Style
	}
	if s.Properties == nil {
		s.Properties = other.Properties
	} else if other.Properties != nil {
		for name, child := range other.Properties.All() {
			if !s.Properties.Has(name) {
				s.Properties.Set(name, child)
			}
		}
	}
	if s.Required == nil {
		s.Required = append([]string(nil), other.Required...)
	}
	if s.AdditionalProperties == nil {
		s.AdditionalProperties = other.AdditionalProperties
	}
	if s.MinProperties == nil {
		s.MinProperties = clonePtr(other.MinProperties)
	}
	if s.MaxProperties == nil {
		s.MaxProperties = clonePtr(other.MaxProperties)
	}
	if !s.ReadOnly {
		s.ReadOnly = other.ReadOnly
	}
	if !s.WriteOnly {
		s.WriteOnly = other.WriteOnly
	}
	if s.AllOf == nil {
		s.AllOf = other.AllOf
	}
	if s.OneOf == nil {
		s.OneOf = other.OneOf
	}
	if s.Discriminator == nil {
		s.Discriminator = other.Discriminator
	}
	if s.Ref == "" {
		s.Ref = other.Ref
	}
}

// SchemaAt walks the schema tree by a value-shaped path: name segments
// descend into properties, all-digit segments into items. Refs and allOf
// are not resolved here.
func (s *Schema) SchemaAt(path string) (*Schema, bool) {
	cur := s
	for _, seg := range SplitPath(path) {
		if cur == nil {
			return nil, false
		}
		if child, ok := cur.Properties.Get(seg); ok {
			cur = child
			continue
		}
		if isIndexSegment(seg) && cur.Items != nil {
			cur = cur.Items
			continue
		}
		return nil, false
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// SetSchemaAt replaces or installs the node at path. Parents up to the last
// segment must already exist; the final segment installs a property (or the
// items node for an all-digit segment).
func (s *Schema) SetSchemaAt(path string, node *Schema) bool {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return false
	}
	parent := s
	if len(segs) > 1 {
		p, ok := s.SchemaAt("/" + joinSegments(segs[:len(segs)-1]))
		if !ok {
			return false
		}
		parent = p
	}
	last := segs[len(segs)-1]
	if isIndexSegment(last) {
		parent.Items = node
		return true
	}
	if parent.Properties == nil {
		parent.Properties = NewProperties()
	}
	parent.Properties.Set(last, node)
	return true
}

func isIndexSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func joinSegments(segs []string) string {
	out := ""
	for i, seg := range segs {
		if i > 0 {
			out += "/"
		}
		out += escapeSegment(seg)
	}
	return out
}

func containsValue(list []any, v any) bool {
	for _, e := range list {
		if valueEqual(e, v) {
			return true
		}
	}
	return false
}

func containsSchema(list []*Schema, s *Schema) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
