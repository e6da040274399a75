package goshape_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	goshape "github.com/reoring/goshape"
)

func TestExtensions_PathFiltersRunBeforeConstraints(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {"name": {"type": "string", "maxLength": 6}},
		"required": ["name"]
	}`)
	ext := goshape.NewExtensions().
		FilterPath("/name", func(_ context.Context, v any) (any, bool) {
			return strings.TrimSpace(v.(string)), true
		}).
		FilterPath("/name", func(_ context.Context, v any) (any, bool) {
			return strings.ToUpper(v.(string)), true
		})

	// "  padded  " is 10 runes raw; the chain trims then uppercases, and the
	// length check sees the result.
	out, err := goshape.Validate(context.Background(), s,
		map[string]any{"name": "  padded  "}, goshape.Options{Ext: ext})
	if err != nil {
		t.Fatalf("filtered value should pass the length check: %v", err)
	}
	if got := out.(map[string]any)["name"]; got != "PADDED" {
		t.Fatalf("filters should chain in registration order, got %#v", got)
	}
}

func TestExtensions_FilterSeesCoercedScalar(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {"age": {"type": "integer", "maximum": 130}}
	}`)
	var saw any
	ext := goshape.NewExtensions().FilterPath("/age", func(_ context.Context, v any) (any, bool) {
		saw = v
		if i := v.(int64); i > 130 {
			return int64(130), true
		}
		return v, true
	})

	out, err := goshape.Validate(context.Background(), s,
		map[string]any{"age": "200"}, goshape.Options{Ext: ext})
	if err != nil {
		t.Fatalf("the clamp runs before the bound check: %v", err)
	}
	if saw != int64(200) {
		t.Fatalf("filter should receive the coerced value, saw %#v", saw)
	}
	if out.(map[string]any)["age"] != int64(130) {
		t.Fatalf("clamped value should flow into the output: %#v", out)
	}
}

func TestExtensions_FilterRejectionIsGenericInvalid(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {"age": {"type": "integer"}}
	}`)
	ext := goshape.NewExtensions().FilterPath("/age", func(_ context.Context, v any) (any, bool) {
		if v.(int64) < 0 {
			return nil, false
		}
		return v, true
	})

	val := checkOne(t, s, map[string]any{"age": -3}, goshape.Options{Ext: ext})
	got := val.ByPath("/age")
	if len(got) != 1 || got[0].Code != goshape.CodeInvalid {
		t.Fatalf("expected a generic invalid at /age: %#v", val.Errors())
	}
	if got[0].Status != 422 {
		t.Fatalf("filter rejections are semantic failures, got status %d", got[0].Status)
	}
}

func TestExtensions_RootFilterCanRewriteTheValue(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"]
	}`)
	// migrate a legacy payload shape before validation sees it
	ext := goshape.NewExtensions().FilterPath("", func(_ context.Context, v any) (any, bool) {
		m, ok := v.(map[string]any)
		if !ok {
			return v, true
		}
		if legacy, has := m["userName"]; has {
			out := map[string]any{"name": legacy}
			return out, true
		}
		return v, true
	})

	out, err := goshape.Validate(context.Background(), s,
		map[string]any{"userName": "ann"}, goshape.Options{Ext: ext})
	if err != nil {
		t.Fatalf("migrated payload should validate: %v", err)
	}
	if out.(map[string]any)["name"] != "ann" {
		t.Fatalf("rewritten object should be walked: %#v", out)
	}
}

func TestExtensions_ValidatingFormatFilterReplacesBuiltIn(t *testing.T) {
	s := mustSchema(t, `{"type": "string", "format": "uuid"}`)

	// without the override the built-in parser rejects this
	val := checkOne(t, s, "not-a-uuid")
	if len(val.Errors()) != 1 || val.Errors()[0].Code != goshape.CodeInvalidFormat {
		t.Fatalf("expected the built-in invalid_format: %#v", val.Errors())
	}

	ext := goshape.NewExtensions().FilterFormat("uuid", true, func(_ context.Context, v any) (any, bool) {
		if v == "nil" {
			return uuid.Nil, true
		}
		return nil, false
	})
	out, err := goshape.Validate(context.Background(), s, "nil", goshape.Options{Ext: ext})
	if err != nil {
		t.Fatalf("the override decides acceptance: %v", err)
	}
	if out != uuid.Nil {
		t.Fatalf("override output should replace the value: %#v", out)
	}
	// the built-in parser never runs, so its verdict is gone too
	val = checkOne(t, s, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", goshape.Options{Ext: ext})
	got := val.Errors()
	if len(got) != 1 || got[0].Code != goshape.CodeInvalid {
		t.Fatalf("a validating filter fully replaces format handling: %#v", got)
	}
}

func TestExtensions_NonValidatingFormatFilterSeesCoercedValue(t *testing.T) {
	s := mustSchema(t, `{"type": "string", "format": "uuid"}`)
	var saw any
	ext := goshape.NewExtensions().FilterFormat("uuid", false, func(_ context.Context, v any) (any, bool) {
		saw = v
		return v, true
	})

	id := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	if !goshape.IsValid(context.Background(), s, id, goshape.Options{Ext: ext}) {
		t.Fatalf("built-in coercion still applies")
	}
	if _, ok := saw.(uuid.UUID); !ok {
		t.Fatalf("non-validating filters run after coercion, saw %#v", saw)
	}
}

func TestExtensions_ValidatePathRebasesRelativePaths(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {
			"user": {
				"type": "object",
				"properties": {
					"name":  {"type": "string"},
					"email": {"type": "string"}
				}
			}
		}
	}`)
	ext := goshape.NewExtensions().ValidatePath("/user", func(_ context.Context, v any) []goshape.FieldError {
		return []goshape.FieldError{
			{Path: "/name"},
			{Path: "email", Code: goshape.CodeRequired},
			{Path: "/name", Code: goshape.CodeInvalid, Message: "taken"},
		}
	})

	val := checkOne(t, s, map[string]any{"user": map[string]any{"name": "x"}},
		goshape.Options{Ext: ext})
	name := val.ByPath("/user/name")
	if len(name) != 2 {
		t.Fatalf("both name errors should land at /user/name: %#v", val.Errors())
	}
	if name[0].Code != goshape.CodeInvalid || name[0].Message == "" || name[0].Status != 422 {
		t.Fatalf("empty code and message should be filled in: %#v", name[0])
	}
	if name[1].Message != "taken" {
		t.Fatalf("explicit messages pass through untouched: %#v", name[1])
	}
	email := val.ByPath("/user/email")
	if len(email) != 1 || email[0].Code != goshape.CodeRequired || email[0].Status != 400 {
		t.Fatalf("status should follow the code when unset: %#v", email)
	}
}

func TestExtensions_RootValidatorSeesCleanedValue(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {
			"plan":  {"type": "string", "default": "free"},
			"seats": {"type": "integer"}
		},
		"required": ["plan", "seats"]
	}`)
	ext := goshape.NewExtensions().ValidatePath("", func(_ context.Context, v any) []goshape.FieldError {
		m := v.(map[string]any)
		if m["plan"] == "free" && m["seats"].(int64) > 5 {
			return []goshape.FieldError{{Path: "/seats", Code: goshape.CodeTooBig, Params: map[string]any{"max": 5}}}
		}
		return nil
	})

	// the validator runs against the cleaned root: default applied, seats coerced
	val := checkOne(t, s, map[string]any{"seats": "9"}, goshape.Options{Ext: ext})
	got := val.ByPath("/seats")
	if len(got) != 1 || got[0].Code != goshape.CodeTooBig {
		t.Fatalf("cross-field check should see defaults and coercions: %#v", val.Errors())
	}
	if !goshape.IsValid(context.Background(), s, map[string]any{"seats": 3}, goshape.Options{Ext: ext}) {
		t.Fatalf("three seats fit the free plan")
	}
}

func TestExtensions_ValidateFormat(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {"id": {"type": "string", "format": "uuid"}}
	}`)
	ext := goshape.NewExtensions().ValidateFormat("uuid", func(_ context.Context, v any) []goshape.FieldError {
		if v == uuid.Nil {
			return []goshape.FieldError{{Code: goshape.CodeInvalidEnum, Params: map[string]any{"value": "nil uuid"}}}
		}
		return nil
	})

	val := checkOne(t, s,
		map[string]any{"id": "00000000-0000-0000-0000-000000000000"},
		goshape.Options{Ext: ext})
	got := val.ByPath("/id")
	if len(got) != 1 || got[0].Code != goshape.CodeInvalidEnum {
		t.Fatalf("format validators bind to every tagged node: %#v", val.Errors())
	}
}
