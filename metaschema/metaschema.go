// Package metaschema lints raw schema documents against the supported
// dialect. It answers a different question than Schema.Check: Check guards
// semantic invariants on an interpreted tree, the meta-schema catches shape
// mistakes in the raw document, such as unknown keywords, misspelled kinds,
// or keyword values of the wrong type.
package metaschema

import (
	"bytes"
	_ "embed"

	json "github.com/goccy/go-json"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	goshape "github.com/reoring/goshape"
)

//go:embed schema.json
var metaJSON []byte

var meta *jsonschema.Schema

func init() {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(metaJSON))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		panic(err)
	}
	meta = c.MustCompile("schema.json")
}

// Problem is one lint finding against the meta-schema.
type Problem struct {
	Path   string // JSON Pointer into the document, "" for the root
	Detail string
}

func (p Problem) String() string {
	path := p.Path
	if path == "" {
		path = "/"
	}
	return path + ": " + p.Detail
}

// Lint validates a raw schema document. The document is maps, slices, and
// scalars as produced by a JSON or YAML decode; scalars are normalized
// through a JSON round trip first, so yaml-decoded integers validate the
// same as JSON numbers. A nil return means the document fits the dialect.
func Lint(doc any) []Problem {
	data, err := json.Marshal(doc)
	if err != nil {
		return []Problem{{Detail: "not a plain JSON document: " + err.Error()}}
	}
	norm, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []Problem{{Detail: err.Error()}}
	}
	return lint(norm)
}

// LintBytes decodes raw JSON and lints the result. The error reports a
// decode failure, not a lint finding.
func LintBytes(data []byte) ([]Problem, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return lint(doc), nil
}

func lint(doc any) []Problem {
	err := meta.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Problem{{Detail: err.Error()}}
	}
	printer := message.NewPrinter(language.English)
	return flatten(ve, printer, nil)
}

func flatten(ve *jsonschema.ValidationError, printer *message.Printer, out []Problem) []Problem {
	if len(ve.Causes) == 0 {
		return append(out, Problem{
			Path:   pointerOf(ve.InstanceLocation),
			Detail: ve.ErrorKind.LocalizedString(printer),
		})
	}
	for _, cause := range ve.Causes {
		out = flatten(cause, printer, out)
	}
	return out
}

func pointerOf(loc []string) string {
	ref := goshape.Root()
	for _, tok := range loc {
		ref = ref.Field(tok)
	}
	return ref.Pointer()
}
