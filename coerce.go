package goshape

import (
	"math"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Per-kind coercion. Each function reports acceptance of the raw value for
// one declared kind; constraint checking happens afterwards on the coerced
// form. Values produced by an earlier successful validation (int64, float64,
// time.Time, uuid.UUID) are accepted again so outputs re-validate cleanly.

func coerceBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(b) {
		case "true", "yes", "on", "1":
			return true, true
		case "false", "no", "off", "0", "":
			return false, true
		}
		return false, false
	}
	if f, ok := asFloat(v); ok {
		switch f {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	}
	return false, false
}

func coerceInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case bool:
		return 0, false
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(n, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) && f == float64(int64(f)) {
			return int64(f), true
		}
		return 0, false
	}
	return asInt(v)
}

func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case bool:
		return 0, false
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return asFloat(v)
}

// strResult carries a string-kind coercion outcome. val is the coerced value
// (string, time.Time or uuid.UUID), src its textual form used for length,
// pattern and enum checks. formatBad marks an accepted string whose coercing
// format failed to parse: a constraint violation, not a kind mismatch.
type strResult struct {
	val       any
	src       string
	formatBad bool
}

// coerceString accepts strings and, per format, their structured
// counterparts. It never auto-stringifies: booleans, numbers (outside
// date-time epochs) and containers are rejected. skipFormat suppresses the
// built-in coercion when a validating format filter takes over.
func coerceString(s *Schema, v any, skipFormat bool) (strResult, bool) {
	format := strings.ToLower(s.Format)
	switch t := v.(type) {
	case string:
		if !skipFormat {
			switch format {
			case "date-time":
				tm, err := parseDateTime(t)
				if err != nil {
					return strResult{val: t, src: t, formatBad: true}, true
				}
				return strResult{val: tm, src: t}, true
			case "uuid":
				u, err := uuid.Parse(t)
				if err != nil {
					return strResult{val: t, src: t, formatBad: true}, true
				}
				return strResult{val: u, src: t}, true
			}
		}
		return strResult{val: t, src: t}, true
	case time.Time:
		if format == "date-time" && !skipFormat {
			return strResult{val: t, src: t.UTC().Format(time.RFC3339Nano)}, true
		}
		return strResult{}, false
	case uuid.UUID:
		if format == "uuid" && !skipFormat {
			return strResult{val: t, src: t.String()}, true
		}
		return strResult{}, false
	case []byte:
		if format == "uuid" && !skipFormat && len(t) == 16 {
			u, err := uuid.FromBytes(t)
			if err != nil {
				return strResult{}, false
			}
			return strResult{val: u, src: u.String()}, true
		}
		return strResult{}, false
	}
	if format == "date-time" && !skipFormat {
		if epoch, ok := asInt(v); ok {
			tm := time.Unix(epoch, 0).UTC()
			return strResult{val: tm, src: tm.Format(time.RFC3339Nano)}, true
		}
	}
	return strResult{}, false
}

// parseDateTime accepts the machine and human date forms the engine
// recognizes, plus integer epoch seconds in string form.
func parseDateTime(s string) (time.Time, error) {
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(epoch, 0).UTC(), nil
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// splitStyled expands a scalar string into array elements per the node's
// style. An empty string expands to an empty array.
func splitStyled(style Style, s string) ([]any, bool) {
	var sep string
	switch style {
	case StyleForm:
		sep = ","
	case StyleSpaceDelimited:
		sep = " "
	case StylePipeDelimited:
		sep = "|"
	default:
		return nil, false
	}
	if s == "" {
		return []any{}, true
	}
	parts := strings.Split(s, sep)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out, true
}

const multipleOfEps = 1e-9

// isMultiple checks divisibility with a relative epsilon so decimal divisors
// like 1.1 behave as authored despite binary floats.
func isMultiple(value, divisor float64) bool {
	if divisor == 0 {
		return false
	}
	q := value / divisor
	r := math.Round(q)
	scale := math.Max(math.Abs(value), math.Abs(divisor))
	if scale == 0 {
		return true
	}
	return math.Abs(value-r*divisor) <= multipleOfEps*scale
}

// displayValue renders a raw value for error messages, compact and bounded.
func displayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	if f, ok := asFloat(v); ok {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "value"
	}
	const maxShown = 40
	s := string(b)
	if len(s) > maxShown {
		s = s[:maxShown] + "..."
	}
	return s
}
