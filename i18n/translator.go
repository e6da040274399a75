package i18n

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Catalog maps message keys (error codes, possibly suffixed with a variant
// like "too_small.exclusive") to templates. Templates substitute {name} from
// params; {name,plural,singular,plural} selects by the numeric value of
// params[name].
type Catalog map[string]string

// Translator retrieves localized messages for error codes.
type Translator interface {
	Message(key string, params map[string]any) string
}

type catalogTranslator struct{ cat Catalog }

func (t catalogTranslator) Message(key string, params map[string]any) string {
	if tmpl, ok := t.cat[key]; ok {
		return Render(tmpl, params)
	}
	// fall back to the base key when a variant has no translation
	if i := strings.IndexByte(key, '.'); i >= 0 {
		if tmpl, ok := t.cat[key[:i]]; ok {
			return Render(tmpl, params)
		}
	}
	return key
}

var english = Catalog{
	"invalid_type":        "{value} is not a valid {type}.",
	"required":            "{field} is required.",
	"unknown_key":         "{n,plural,Unexpected property,Unexpected properties}: {keys}.",
	"duplicate_key":       "Duplicate key: {key}.",
	"too_small":           "{field} must be at least {min}.",
	"too_small.exclusive": "{field} must be greater than {min}.",
	"too_big":             "{field} must be at most {max}.",
	"too_big.exclusive":   "{field} must be less than {max}.",
	"too_short":           "{field} must be at least {n} {n,plural,character,characters} long.",
	"too_short.bytes":     "{field} must be at least {n} {n,plural,byte,bytes} long.",
	"too_short.items":     "{field} must have at least {n} {n,plural,item,items}.",
	"too_short.properties": "{field} must have at least {n} {n,plural,property,properties}.",
	"too_long":             "{field} must be at most {n} {n,plural,character,characters} long.",
	"too_long.bytes":       "{field} must be at most {n} {n,plural,byte,bytes} long.",
	"too_long.items":       "{field} must have at most {n} {n,plural,item,items}.",
	"too_long.properties":  "{field} must have at most {n} {n,plural,property,properties}.",
	"pattern":              "{field} does not match the required pattern.",
	"invalid_enum":         "\"{value}\" is not a valid option.",
	"invalid_format":       "{field} is not a valid {label}.",
	"not_multiple":         "{field} must be a multiple of {multiple}.",
	"duplicate_item":       "{field} must not contain duplicate items.",
	"parse_error":          "Invalid JSON: {detail}.",
	"invalid":              "{field} is invalid.",
	"validation_failed":    "Validation failed.",
}

var japanese = Catalog{
	"invalid_type":         "{value} は有効な {type} ではありません。",
	"required":             "{field} は必須です。",
	"unknown_key":          "未知のプロパティ: {keys}。",
	"duplicate_key":        "キーが重複しています: {key}。",
	"too_small":            "{field} は {min} 以上でなければなりません。",
	"too_small.exclusive":  "{field} は {min} より大きくなければなりません。",
	"too_big":              "{field} は {max} 以下でなければなりません。",
	"too_big.exclusive":    "{field} は {max} より小さくなければなりません。",
	"too_short":            "{field} は {n} 文字以上でなければなりません。",
	"too_short.bytes":      "{field} は {n} バイト以上でなければなりません。",
	"too_short.items":      "{field} の要素数は {n} 以上でなければなりません。",
	"too_short.properties": "{field} のプロパティ数は {n} 以上でなければなりません。",
	"too_long":             "{field} は {n} 文字以内でなければなりません。",
	"too_long.bytes":       "{field} は {n} バイト以内でなければなりません。",
	"too_long.items":       "{field} の要素数は {n} 以下でなければなりません。",
	"too_long.properties":  "{field} のプロパティ数は {n} 以下でなければなりません。",
	"pattern":              "{field} の形式が正しくありません。",
	"invalid_enum":         "\"{value}\" は有効な選択肢ではありません。",
	"invalid_format":       "{field} は有効な {label} ではありません。",
	"not_multiple":         "{field} は {multiple} の倍数でなければなりません。",
	"duplicate_item":       "{field} に重複した要素があります。",
	"parse_error":          "不正な JSON です: {detail}。",
	"invalid":              "{field} は不正です。",
	"validation_failed":    "バリデーションに失敗しました。",
}

var supported = []language.Tag{language.English, language.Japanese}

var byIndex = []Catalog{english, japanese}

var matcher = language.NewMatcher(supported)

var (
	mu      sync.RWMutex
	current Translator = catalogTranslator{cat: english}
)

// SetLanguage switches the built-in Translator to the closest supported
// language. Unknown inputs fall back to English.
func SetLanguage(lang string) {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	_, idx, _ := matcher.Match(tag)
	mu.Lock()
	current = catalogTranslator{cat: byIndex[idx]}
	mu.Unlock()
}

// MatchAcceptLanguage resolves an Accept-Language header to a supported
// language code suitable for SetLanguage.
func MatchAcceptLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "en"
	}
	_, idx, _ := matcher.Match(tags...)
	b, _ := supported[idx].Base()
	return b.String()
}

// SetTranslator replaces the Translator implementation. nil restores the
// built-in English catalog.
func SetTranslator(tr Translator) {
	mu.Lock()
	if tr == nil {
		current = catalogTranslator{cat: english}
	} else {
		current = tr
	}
	mu.Unlock()
}

// T renders the message for key using the current Translator.
func T(key string, params map[string]any) string {
	mu.RLock()
	tr := current
	mu.RUnlock()
	return tr.Message(key, params)
}

// Render substitutes {name} tokens from params and evaluates
// {name,plural,singular,plural} tokens by the numeric value of params[name].
// Tokens with no matching param are left untouched.
func Render(tmpl string, params map[string]any) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end += open
		b.WriteString(tmpl[:open])
		token := tmpl[open+1 : end]
		b.WriteString(renderToken(token, params))
		tmpl = tmpl[end+1:]
	}
}

func renderToken(token string, params map[string]any) string {
	parts := strings.SplitN(token, ",", 4)
	name := strings.TrimSpace(parts[0])
	if len(parts) == 1 {
		if v, ok := params[name]; ok {
			return formatParam(v)
		}
		return "{" + token + "}"
	}
	if len(parts) == 4 && strings.TrimSpace(parts[1]) == "plural" {
		n, ok := numericParam(params[name])
		if !ok {
			return "{" + token + "}"
		}
		if n == 1 {
			return parts[2]
		}
		return parts[3]
	}
	return "{" + token + "}"
}

func numericParam(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func formatParam(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// render integral floats without the trailing fraction
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(v)
	}
}
