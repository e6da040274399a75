package i18n

import (
	"strings"
	"testing"
)

func TestRender_Substitution(t *testing.T) {
	cases := []struct {
		tmpl   string
		params map[string]any
		want   string
	}{
		{"{field} must be at least {min}.", map[string]any{"field": "age", "min": 18}, "age must be at least 18."},
		{"limit is {max}", map[string]any{"max": 100.0}, "limit is 100"},
		{"step is {multiple}", map[string]any{"multiple": 0.5}, "step is 0.5"},
		{"flag is {on}", map[string]any{"on": true}, "flag is true"},
		{"no tokens here", nil, "no tokens here"},
		{"{ghost} walks", map[string]any{"field": "x"}, "{ghost} walks"},
		{"{unclosed", map[string]any{"unclosed": "y"}, "{unclosed"},
	}
	for _, tc := range cases {
		if got := Render(tc.tmpl, tc.params); got != tc.want {
			t.Errorf("Render(%q, %v) = %q, want %q", tc.tmpl, tc.params, got, tc.want)
		}
	}
}

func TestRender_PluralSelection(t *testing.T) {
	tmpl := "{n} {n,plural,item,items}"
	cases := []struct {
		n    any
		want string
	}{
		{1, "1 item"},
		{2, "2 items"},
		{0, "0 items"},
		{int64(1), "1 item"},
		{1.0, "1 item"},
		{3.0, "3 items"},
	}
	for _, tc := range cases {
		if got := Render(tmpl, map[string]any{"n": tc.n}); got != tc.want {
			t.Errorf("n=%v: got %q, want %q", tc.n, got, tc.want)
		}
	}

	// a non-numeric or missing count leaves the token alone
	if got := Render(tmpl, map[string]any{"n": "many"}); got != "many {n,plural,item,items}" {
		t.Fatalf("non-numeric count: got %q", got)
	}
	if got := Render("{n,plural,item,items}", nil); got != "{n,plural,item,items}" {
		t.Fatalf("missing count: got %q", got)
	}
}

func TestT_VariantFallsBackToBase(t *testing.T) {
	SetLanguage("en")
	params := map[string]any{"field": "age", "min": 5}

	if got := T("too_small.exclusive", params); got != "age must be greater than 5." {
		t.Fatalf("variant: got %q", got)
	}
	if got := T("too_small.weird", params); got != "age must be at least 5." {
		t.Fatalf("fallback to base: got %q", got)
	}
	if got := T("no_such_key", nil); got != "no_such_key" {
		t.Fatalf("unknown key: got %q", got)
	}
	if got := T("nope.variant", nil); got != "nope.variant" {
		t.Fatalf("unknown variant and base: got %q", got)
	}
}

func TestT_QuantifiedUnits(t *testing.T) {
	SetLanguage("en")

	one := T("unknown_key", map[string]any{"n": 1, "keys": "'ghost'"})
	if one != "Unexpected property: 'ghost'." {
		t.Fatalf("singular: got %q", one)
	}
	two := T("unknown_key", map[string]any{"n": 2, "keys": "'a', 'b'"})
	if two != "Unexpected properties: 'a', 'b'." {
		t.Fatalf("plural: got %q", two)
	}

	items := T("too_short.items", map[string]any{"field": "tags", "n": 1})
	if items != "tags must have at least 1 item." {
		t.Fatalf("unit variant: got %q", items)
	}
}

func TestSetLanguage_Matching(t *testing.T) {
	defer SetLanguage("en")

	cases := []struct {
		lang string
		want string
	}{
		{"ja", "name は必須です。"},
		{"ja-JP", "name は必須です。"},
		{"en", "name is required."},
		{"en-GB", "name is required."},
		{"fr", "name is required."},
		{"!!!", "name is required."},
	}
	for _, tc := range cases {
		SetLanguage(tc.lang)
		if got := T("required", map[string]any{"field": "name"}); got != tc.want {
			t.Errorf("SetLanguage(%q): got %q, want %q", tc.lang, got, tc.want)
		}
	}
}

func TestMatchAcceptLanguage(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"ja, en;q=0.8", "ja"},
		{"ja;q=0.9, en", "en"},
		{"en-US,en;q=0.9", "en"},
		{"fr-CH, fr;q=0.9", "en"},
		{"", "en"},
		{"@@@", "en"},
	}
	for _, tc := range cases {
		if got := MatchAcceptLanguage(tc.header); got != tc.want {
			t.Errorf("MatchAcceptLanguage(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

type shoutingTranslator struct{}

func (shoutingTranslator) Message(key string, _ map[string]any) string {
	return strings.ToUpper(key)
}

func TestSetTranslator(t *testing.T) {
	SetTranslator(shoutingTranslator{})
	if got := T("required", nil); got != "REQUIRED" {
		t.Fatalf("custom translator: got %q", got)
	}

	// nil restores the built-in English catalog
	SetTranslator(nil)
	if got := T("required", map[string]any{"field": "id"}); got != "id is required." {
		t.Fatalf("restored translator: got %q", got)
	}
}
