package metaschema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/goshape/metaschema"
)

func render(ps []metaschema.Problem) string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return strings.Join(out, "; ")
}

func TestLint_AcceptsTheFullDialect(t *testing.T) {
	doc := map[string]any{
		"type":        "object",
		"title":       "Pet",
		"description": "A pet record.",
		"properties": map[string]any{
			"petType": map[string]any{"type": "string", "readOnly": true},
			"age": map[string]any{
				"type":             "integer",
				"minimum":          0.0,
				"exclusiveMinimum": false,
				"multipleOf":       1.0,
			},
			"tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string", "minLength": 1.0},
				"uniqueItems": true,
				"style":       "form",
			},
			"nick":  map[string]any{"type": []any{"string", "null"}, "default": "buddy"},
			"owner": map[string]any{"$ref": "#/components/schemas/Owner"},
		},
		"required":             []any{"petType"},
		"additionalProperties": false,
		"discriminator": map[string]any{
			"propertyName": "petType",
			"mapping":      map[string]any{"kitty": "Cat"},
		},
		"oneOf": []any{
			map[string]any{"$ref": "#/components/schemas/Cat"},
		},
	}

	require.Empty(t, metaschema.Lint(doc))
}

// YAML decoding yields Go ints where JSON decoding yields float64; both
// shapes must lint the same.
func TestLint_AcceptsYAMLDecodedScalars(t *testing.T) {
	doc := map[string]any{
		"type":      "string",
		"minLength": 1,
		"maxLength": 64,
	}
	require.Empty(t, metaschema.Lint(doc))

	bad := map[string]any{"type": "string", "minLength": -2}
	got := metaschema.Lint(bad)
	require.NotEmpty(t, got)
	for _, p := range got {
		require.Equal(t, "/minLength", p.Path)
	}
}

// Lint checks shape, not semantics: a discriminator pointing at a property
// the document never declares is Schema.Check territory and passes here.
func TestLint_IgnoresSemanticMistakes(t *testing.T) {
	doc := map[string]any{
		"type":          "object",
		"discriminator": map[string]any{"propertyName": "ghost"},
	}
	require.Empty(t, metaschema.Lint(doc))
}

func TestLint_FlagsUnknownKeywords(t *testing.T) {
	doc := map[string]any{
		"type":     "string",
		"minimumm": 3.0,
	}

	got := metaschema.Lint(doc)
	require.NotEmpty(t, got)
	require.Contains(t, render(got), "minimumm")
}

func TestLint_FlagsWrongKeywordShapes(t *testing.T) {
	cases := []struct {
		name string
		doc  map[string]any
		path string
	}{
		{"misspelled kind", map[string]any{"type": "objekt"}, "/type"},
		{"pattern not a string", map[string]any{"pattern": 12.0}, "/pattern"},
		{"negative length bound", map[string]any{"minLength": -3.0}, "/minLength"},
		{"unknown style", map[string]any{"style": "matrix"}, "/style"},
		{"duplicate required names", map[string]any{"required": []any{"a", "a"}}, "/required"},
		{"empty composition", map[string]any{"allOf": []any{}}, "/allOf"},
		{"empty enum", map[string]any{"enum": []any{}}, "/enum"},
		{
			"discriminator without propertyName",
			map[string]any{"discriminator": map[string]any{"mapping": map[string]any{}}},
			"/discriminator",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := metaschema.Lint(tc.doc)
			require.NotEmpty(t, got)
			for _, p := range got {
				require.Equal(t, tc.path, p.Path, "detail: %s", p.Detail)
				require.NotEmpty(t, p.Detail)
			}
		})
	}
}

func TestLint_PointersEscapeFunnyPropertyNames(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{
			"a/b": map[string]any{"pattern": 7.0},
		},
	}

	got := metaschema.Lint(doc)
	require.NotEmpty(t, got)
	for _, p := range got {
		require.Equal(t, "/properties/a~1b/pattern", p.Path)
	}
}

func TestLint_RootMustBeAnObject(t *testing.T) {
	got := metaschema.Lint([]any{})
	require.NotEmpty(t, got)
	for _, p := range got {
		require.Equal(t, "", p.Path)
	}
}

func TestLint_RejectsNonDataDocuments(t *testing.T) {
	got := metaschema.Lint(map[string]any{"default": func() {}})
	require.Len(t, got, 1)
	require.Contains(t, got[0].Detail, "not a plain JSON document")
}

func TestLintBytes(t *testing.T) {
	t.Run("clean document", func(t *testing.T) {
		got, err := metaschema.LintBytes([]byte(`{"type":"string","format":"uuid"}`))
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("findings are not errors", func(t *testing.T) {
		got, err := metaschema.LintBytes([]byte(`{"minimum":"high"}`))
		require.NoError(t, err)
		require.NotEmpty(t, got)
		for _, p := range got {
			require.Equal(t, "/minimum", p.Path)
		}
	})

	t.Run("malformed input is an error", func(t *testing.T) {
		got, err := metaschema.LintBytes([]byte(`{"type":`))
		require.Error(t, err)
		require.Nil(t, got)
	})
}

func TestProblem_String(t *testing.T) {
	require.Equal(t, "/: boom", metaschema.Problem{Detail: "boom"}.String())
	require.Equal(t, "/type: boom", metaschema.Problem{Path: "/type", Detail: "boom"}.String())
}
