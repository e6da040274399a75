// Package decode holds the strict JSON intake helpers shared by the
// validation entry points, the HTTP middleware and the CLI: generic decoding
// with number precision kept, and a raw-byte duplicate key scan with real
// JSON-Pointer paths.
package decode

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Value decodes data into generic Go values. Numbers come back as
// json.Number so integer precision survives; trailing non-whitespace after
// the first value is an error.
func Value(data []byte) (any, error) {
	return FromReader(bytes.NewReader(data))
}

// FromReader decodes one JSON value from r the same way Value does.
func FromReader(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

// Duplicate is one repeated object key in raw JSON input.
type Duplicate struct {
	// Path is the JSON-Pointer of the duplicated key, segments escaped
	// with ~0/~1.
	Path string
	Key  string
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	path         string
	key          string
	index        int
	expectingKey bool
	keys         map[string]struct{}
}

// DuplicateKeys scans raw JSON and reports every repeat occurrence of a key
// within one object. The scan is independent of decoding: last-value-wins
// semantics of the decoder stay untouched.
func DuplicateKeys(data []byte) ([]Duplicate, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var dups []Duplicate
	var stack []frame

	childPath := func() string {
		if len(stack) == 0 {
			return ""
		}
		top := &stack[len(stack)-1]
		if top.kind == kindObject {
			return top.path + "/" + escapeSegment(top.key)
		}
		return top.path + "/" + strconv.Itoa(top.index)
	}
	advance := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		if top.kind == kindObject {
			top.expectingKey = true
		} else {
			top.index++
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return dups, err
		}
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				stack = append(stack, frame{
					kind:         kindObject,
					path:         childPath(),
					expectingKey: true,
					keys:         map[string]struct{}{},
				})
			case '[':
				stack = append(stack, frame{kind: kindArray, path: childPath()})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				advance()
			}
		case string:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.kind == kindObject && top.expectingKey {
					if _, seen := top.keys[t]; seen {
						dups = append(dups, Duplicate{
							Path: top.path + "/" + escapeSegment(t),
							Key:  t,
						})
					}
					top.keys[t] = struct{}{}
					top.key = t
					top.expectingKey = false
					continue
				}
			}
			advance()
		default:
			advance()
		}
	}
	return dups, nil
}

func escapeSegment(name string) string {
	name = strings.ReplaceAll(name, "~", "~0")
	return strings.ReplaceAll(name, "/", "~1")
}
