package goshape

import (
	"context"
	"strings"
)

// FilterFunc transforms a value at its binding point, after base coercion
// and before constraint checks. ok=false marks the value intentionally
// invalid and records a generic invalidity at the path.
type FilterFunc func(ctx context.Context, v any) (any, bool)

// ValidatorFunc inspects a cleaned value and returns additional field
// errors without altering the value. Returned paths are relative to the
// binding point and get rebased onto it.
type ValidatorFunc func(ctx context.Context, v any) []FieldError

type formatFilter struct {
	fn         FilterFunc
	validating bool
}

// Extensions holds the two per-call registries: filters (value in, value
// out) and validators (value in, errors out), each bound to a canonical
// value path or to a format name. Registration order is execution order.
// Extensions are read-only during validation; build them up front and hang
// them on Options.Ext.
type Extensions struct {
	pathFilters      map[string][]FilterFunc
	formatFilters    map[string][]formatFilter
	pathValidators   map[string][]ValidatorFunc
	formatValidators map[string][]ValidatorFunc
}

// NewExtensions returns an empty registry pair.
func NewExtensions() *Extensions {
	return &Extensions{
		pathFilters:      map[string][]FilterFunc{},
		formatFilters:    map[string][]formatFilter{},
		pathValidators:   map[string][]ValidatorFunc{},
		formatValidators: map[string][]ValidatorFunc{},
	}
}

// FilterPath binds a filter to a value path. "" binds the root.
func (e *Extensions) FilterPath(path string, fn FilterFunc) *Extensions {
	key := At(path).Pointer()
	e.pathFilters[key] = append(e.pathFilters[key], fn)
	return e
}

// FilterFormat binds a filter to every node carrying the format tag. A
// validating format filter replaces the built-in coercion for that format.
func (e *Extensions) FilterFormat(format string, validating bool, fn FilterFunc) *Extensions {
	key := strings.ToLower(format)
	e.formatFilters[key] = append(e.formatFilters[key], formatFilter{fn: fn, validating: validating})
	return e
}

// ValidatePath binds a validator to a value path. Bound to "" it runs once
// against the cleaned root value after all properties were processed.
func (e *Extensions) ValidatePath(path string, fn ValidatorFunc) *Extensions {
	key := At(path).Pointer()
	e.pathValidators[key] = append(e.pathValidators[key], fn)
	return e
}

// ValidateFormat binds a validator to every node carrying the format tag.
func (e *Extensions) ValidateFormat(format string, fn ValidatorFunc) *Extensions {
	key := strings.ToLower(format)
	e.formatValidators[key] = append(e.formatValidators[key], fn)
	return e
}

func (e *Extensions) overridesFormat(format string) bool {
	if format == "" {
		return false
	}
	for _, ff := range e.formatFilters[strings.ToLower(format)] {
		if ff.validating {
			return true
		}
	}
	return false
}

func (e *Extensions) filtersFor(path, format string) []FilterFunc {
	var out []FilterFunc
	out = append(out, e.pathFilters[path]...)
	if format != "" {
		for _, ff := range e.formatFilters[strings.ToLower(format)] {
			out = append(out, ff.fn)
		}
	}
	return out
}

func (e *Extensions) validatorsFor(path, format string) []ValidatorFunc {
	var out []ValidatorFunc
	out = append(out, e.pathValidators[path]...)
	if format != "" {
		out = append(out, e.formatValidators[strings.ToLower(format)]...)
	}
	return out
}

func (w *walker) formatOverridden(format string) bool {
	return w.opt.Ext != nil && w.opt.Ext.overridesFormat(format)
}

func (w *walker) applyFilters(eff *Schema, p PathRef, v any) (any, bool) {
	if w.opt.Ext == nil {
		return v, true
	}
	out := v
	for _, f := range w.opt.Ext.filtersFor(p.Pointer(), eff.Format) {
		nv, ok := f(w.ctx, out)
		if !ok {
			w.v.AddError(p.Err(CodeInvalid, "value", displayValue(out)))
			return nil, false
		}
		out = nv
	}
	return out, true
}

func (w *walker) runValidators(eff *Schema, p PathRef, cleaned any) {
	if w.opt.Ext == nil {
		return
	}
	for _, fn := range w.opt.Ext.validatorsFor(p.Pointer(), eff.Format) {
		for _, fe := range fn(w.ctx, cleaned) {
			fe.Path = rebasePath(p.Pointer(), fe.Path)
			if fe.Code == "" {
				fe.Code = CodeInvalid
			}
			if fe.Message == "" {
				rendered := newFieldError(fe.Path, fe.Code, fe.Params)
				if fe.Status != 0 {
					rendered.Status = fe.Status
				}
				fe = rendered
			}
			if fe.Status == 0 {
				fe.Status = statusFor(fe.Code)
			}
			w.v.AddError(fe)
		}
	}
}
