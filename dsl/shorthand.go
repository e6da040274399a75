package dsl

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	goshape "github.com/reoring/goshape"
)

// Fields compiles a compact field list into an object schema. The grammar:
//
//	fields := field ("," field)*
//	field  := name ":" type
//	type   := kind [ "{" fields "}" ] suffix* | "[]" type
//	kind   := "s"|"str"|"string" | "i"|"int"|"integer" | "n"|"num"|"number"
//	          | "b"|"bool"|"boolean" | "o"|"obj"|"object" | "a"|"any"
//	suffix := "?" optional | "!" required | "*" nullable | "=" literal
//
// Fields are required unless marked "?". "=" attaches a default: a JSON
// scalar or a bare word taken as a string. Suffixes after an array type
// describe the field, except "*", which makes the elements nullable. So
//
//	"name:s, age:i?, tags:[]s, state:str=pending"
//
// declares a required string, an optional integer, a required string array,
// and a required state that fills in as "pending" when missing.
func Fields(spec string) (*goshape.Schema, error) {
	p := &shorthandParser{src: spec}
	node, err := p.fields()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errf("unexpected %q", p.rest())
	}
	return node.Schema(), nil
}

// MustFields is Fields for statically known specs; it panics on a bad one.
func MustFields(spec string) *goshape.Schema {
	s, err := Fields(spec)
	if err != nil {
		panic(err)
	}
	return s
}

type shorthandParser struct {
	src string
	pos int
}

func (p *shorthandParser) fields() (*Node, error) {
	obj := Object()
	for {
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] == '}' {
			return obj, nil
		}
		name, err := p.name()
		if err != nil {
			return nil, err
		}
		if !p.eat(':') {
			return nil, p.errf("expected ':' after %q", name)
		}
		child, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		obj.Prop(name, child)
		p.skipSpace()
		if !p.eat(',') {
			return obj, nil
		}
	}
}

var shorthandKinds = map[string]func() *Node{
	"s": String, "str": String, "string": String,
	"i": Integer, "int": Integer, "integer": Integer,
	"n": Number, "num": Number, "number": Number,
	"b": Bool, "bool": Bool, "boolean": Bool,
	"o": Object, "obj": Object, "object": Object,
	"a": Any, "any": Any,
}

func (p *shorthandParser) typeExpr() (*Node, error) {
	p.skipSpace()
	if strings.HasPrefix(p.rest(), "[]") {
		p.pos += 2
		items, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		// nullability stays on the element; the field marks move up
		node := Array(items)
		node.required, items.required = items.required, false
		if items.s.Default != nil {
			node.s.Default, items.s.Default = items.s.Default, nil
		}
		return p.suffixes(node)
	}
	word := p.word()
	mk, ok := shorthandKinds[word]
	if !ok {
		return nil, p.errf("unknown type %q", word)
	}
	node := mk()
	if node.s.Kinds().Has(goshape.TypeObject) && p.eat('{') {
		inner, err := p.fields()
		if err != nil {
			return nil, err
		}
		if !p.eat('}') {
			return nil, p.errf("missing '}'")
		}
		node = inner
	}
	node.required = true
	return p.suffixes(node)
}

func (p *shorthandParser) suffixes(node *Node) (*Node, error) {
	for {
		switch p.peek() {
		case '?':
			p.pos++
			node.required = false
		case '!':
			p.pos++
			node.required = true
		case '*':
			p.pos++
			node.Nullable()
		case '=':
			p.pos++
			lit, err := p.literal()
			if err != nil {
				return nil, err
			}
			node.Default(lit)
		default:
			return node, nil
		}
	}
}

// literal reads a default value: a JSON string when quoted, otherwise a bare
// token interpreted as a number, boolean, or plain string.
func (p *shorthandParser) literal() (any, error) {
	p.skipSpace()
	if p.peek() == '"' {
		raw, err := p.quoted()
		if err != nil {
			return nil, err
		}
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, p.errf("bad default literal %s", raw)
		}
		return s, nil
	}
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(",}?!* \t\n", rune(p.src[p.pos])) {
		p.pos++
	}
	tok := p.src[start:p.pos]
	if tok == "" {
		return nil, p.errf("expected a default literal after '='")
	}
	if tok == "null" {
		return nil, p.errf("a default cannot be null")
	}
	var v any
	if err := json.Unmarshal([]byte(tok), &v); err == nil {
		return v, nil
	}
	return tok, nil
}

func (p *shorthandParser) quoted() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
		case '"':
			p.pos++
			return p.src[start:p.pos], nil
		default:
			p.pos++
		}
	}
	return "", p.errf("unterminated string literal")
}

func (p *shorthandParser) name() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(":,{}[]!?*=", rune(p.src[p.pos])) {
		p.pos++
	}
	name := strings.TrimSpace(p.src[start:p.pos])
	if name == "" {
		return "", p.errf("expected a field name")
	}
	return name, nil
}

func (p *shorthandParser) word() string {
	start := p.pos
	for p.pos < len(p.src) && isAlpha(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func (p *shorthandParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *shorthandParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *shorthandParser) eat(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *shorthandParser) rest() string {
	r := p.src[p.pos:]
	if len(r) > 12 {
		r = r[:12]
	}
	return r
}

func (p *shorthandParser) errf(format string, args ...any) error {
	return &goshape.SchemaError{
		Reason: fmt.Sprintf("shorthand at offset %d: %s", p.pos, fmt.Sprintf(format, args...)),
	}
}
