// Package rule builds cross-field validators over cleaned values: simple
// If/Then conditions, collection rules, and compiled expressions. Every rule
// is a goshape.ValidatorFunc, bound through Extensions.ValidatePath and run
// after the value at the binding point has been coerced.
package rule

import (
	"context"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	json "github.com/goccy/go-json"

	goshape "github.com/reoring/goshape"
)

// Rule inspects a cleaned value and returns field errors, paths relative to
// the binding point.
type Rule = goshape.ValidatorFunc

// Op is the comparison operator for If conditions.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Condition guards a set of rules. Composite conditions combine with And/Or.
type Condition struct {
	path string
	op   Op
	want any
	all  []Condition
	any  []Condition
}

// If compares the value at a pointer path against want.
func If(path string, op Op, want any) Condition {
	return Condition{path: normalize(path), op: op, want: want}
}

// IfAll holds when every condition holds.
func IfAll(conds ...Condition) Condition { return Condition{all: conds} }

// IfAny holds when at least one condition holds.
func IfAny(conds ...Condition) Condition { return Condition{any: conds} }

// And combines the receiver with more conditions, all required.
func (c Condition) And(others ...Condition) Condition {
	return IfAll(append([]Condition{c}, others...)...)
}

// Or combines the receiver with more conditions, any sufficient.
func (c Condition) Or(others ...Condition) Condition {
	return IfAny(append([]Condition{c}, others...)...)
}

// Then runs the rules only when the condition holds.
func (c Condition) Then(rules ...Rule) Rule {
	return func(ctx context.Context, v any) []goshape.FieldError {
		if !c.eval(v) {
			return nil
		}
		var out []goshape.FieldError
		for _, r := range rules {
			if r == nil {
				continue
			}
			out = append(out, r(ctx, v)...)
		}
		return out
	}
}

func (c Condition) eval(v any) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.eval(v) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.eval(v) {
				return true
			}
		}
		return false
	}
	cur, ok := valueAt(v, c.path)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// AtLeastOne requires the collection at path to have at least one element.
func AtLeastOne(path string) Rule {
	p := normalize(path)
	return func(ctx context.Context, v any) []goshape.FieldError {
		val, ok := valueAt(v, p)
		if !ok {
			return nil
		}
		if seq, isSeq := val.([]any); isSeq && len(seq) == 0 {
			return []goshape.FieldError{goshape.At(p).Err(goshape.CodeTooShort, "n", 1, "unit", "items")}
		}
		return nil
	}
}

// UniqueBy requires elements of the collection at path to be unique by the
// value at keyPath inside each element. Errors land on the repeating
// element's key.
func UniqueBy(path, keyPath string) Rule {
	p := normalize(path)
	kp := strings.TrimPrefix(keyPath, "/")
	return func(ctx context.Context, v any) []goshape.FieldError {
		val, ok := valueAt(v, p)
		if !ok {
			return nil
		}
		seq, isSeq := val.([]any)
		if !isSeq {
			return nil
		}
		segs := goshape.SplitPath("/" + kp)
		field := collectionName(p)
		seen := map[string]int{}
		var out []goshape.FieldError
		for i, el := range seq {
			kv, ok := valueAt(el, "/"+kp)
			if !ok {
				continue
			}
			key := displayKey(kv)
			if _, dup := seen[key]; dup {
				at := goshape.At(p).Index(i)
				for _, seg := range segs {
					at = at.Field(seg)
				}
				out = append(out, at.Err(goshape.CodeDuplicateItem, "field", field, "value", key))
			} else {
				seen[key] = i
			}
		}
		return out
	}
}

// Requires makes the presence of one field imply others: when the value at
// path is present, every path in also must be present too.
func Requires(path string, also ...string) Rule {
	p := normalize(path)
	return func(ctx context.Context, v any) []goshape.FieldError {
		if _, ok := valueAt(v, p); !ok {
			return nil
		}
		var out []goshape.FieldError
		for _, a := range also {
			ap := normalize(a)
			if _, ok := valueAt(v, ap); !ok {
				out = append(out, goshape.At(ap).Err(goshape.CodeRequired))
			}
		}
		return out
	}
}

// MutuallyExclusive rejects values where more than one of the paths is
// present.
func MutuallyExclusive(paths ...string) Rule {
	return func(ctx context.Context, v any) []goshape.FieldError {
		var present []string
		for _, p := range paths {
			np := normalize(p)
			if _, ok := valueAt(v, np); ok {
				present = append(present, np)
			}
		}
		if len(present) <= 1 {
			return nil
		}
		out := make([]goshape.FieldError, 0, len(present))
		for _, p := range present {
			out = append(out, goshape.At(p).Err(goshape.CodeInvalid))
		}
		return out
	}
}

// And runs every rule and concatenates their errors.
func And(rules ...Rule) Rule {
	return func(ctx context.Context, v any) []goshape.FieldError {
		var out []goshape.FieldError
		for _, r := range rules {
			if r == nil {
				continue
			}
			out = append(out, r(ctx, v)...)
		}
		return out
	}
}

// Or passes when any rule passes. When all fail, the branch with the fewest
// errors surfaces, so the report points at the nearest miss.
func Or(rules ...Rule) Rule {
	return func(ctx context.Context, v any) []goshape.FieldError {
		var best []goshape.FieldError
		bestSet := false
		for _, r := range rules {
			if r == nil {
				continue
			}
			errs := r(ctx, v)
			if len(errs) == 0 {
				return nil
			}
			if !bestSet || len(errs) < len(best) {
				best = errs
				bestSet = true
			}
		}
		if bestSet {
			return best
		}
		return nil
	}
}

// Expr compiles a boolean expression evaluated against the cleaned value. A
// map value is the expression environment directly; anything else is bound
// as "value". A false result or a runtime failure records an invalidity at
// path.
func Expr(path, src string) (Rule, error) {
	prg, err := expr.Compile(src, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, &goshape.SchemaError{Reason: "bad rule expression " + strconv.Quote(src) + ": " + err.Error()}
	}
	p := normalize(path)
	return func(ctx context.Context, v any) []goshape.FieldError {
		out, err := runExpr(prg, v)
		if err != nil || !out {
			return []goshape.FieldError{goshape.At(p).Err(goshape.CodeInvalid)}
		}
		return nil
	}, nil
}

// MustExpr is Expr for statically known expressions; it panics on a bad one.
func MustExpr(path, src string) Rule {
	r, err := Expr(path, src)
	if err != nil {
		panic(err)
	}
	return r
}

func runExpr(prg *vm.Program, v any) (bool, error) {
	env, ok := v.(map[string]any)
	if !ok {
		env = map[string]any{"value": v}
	}
	out, err := expr.Run(prg, env)
	if err != nil {
		return false, err
	}
	b, _ := out.(bool)
	return b, nil
}

func collectionName(p string) string {
	segs := goshape.SplitPath(p)
	if len(segs) == 0 {
		return "value"
	}
	return segs[len(segs)-1]
}

func normalize(p string) string {
	if p == "" || p == "/" {
		return ""
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}

// valueAt walks a cleaned value (maps and slices) by pointer segments.
func valueAt(v any, pointer string) (any, bool) {
	cur := v
	for _, seg := range goshape.SplitPath(pointer) {
		switch t := cur.(type) {
		case map[string]any:
			val, ok := t[seg]
			if !ok {
				return nil, false
			}
			cur = val
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func displayKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "?"
	}
	return string(b)
}

func compare(cur any, op Op, want any) bool {
	if cf, ok := toFloat(cur); ok {
		if wf, ok := toFloat(want); ok {
			switch op {
			case Eq:
				return cf == wf
			case Ne:
				return cf != wf
			case Lt:
				return cf < wf
			case Le:
				return cf <= wf
			case Gt:
				return cf > wf
			case Ge:
				return cf >= wf
			}
		}
		return op == Ne
	}
	switch c := cur.(type) {
	case string:
		w, ok := want.(string)
		if !ok {
			return op == Ne
		}
		switch op {
		case Eq:
			return c == w
		case Ne:
			return c != w
		case Lt:
			return c < w
		case Le:
			return c <= w
		case Gt:
			return c > w
		case Ge:
			return c >= w
		}
	case bool:
		w, ok := want.(bool)
		if !ok {
			return op == Ne
		}
		switch op {
		case Eq:
			return c == w
		case Ne:
			return c != w
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
