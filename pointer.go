package goshape

import (
	"strconv"
	"strings"
)

// Paths are JSON-Pointer style: "/"-delimited segments with "~0"/"~1"
// escaping for literal "~"/"/" in property names, array elements as bare
// indices. The empty string addresses the root.

func escapeSegment(name string) string {
	if !strings.ContainsAny(name, "~/") {
		return name
	}
	return strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
}

func unescapeSegment(seg string) string {
	if !strings.Contains(seg, "~") {
		return seg
	}
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
}

// JoinPath appends an escaped property segment to base.
func JoinPath(base, name string) string {
	return base + "/" + escapeSegment(name)
}

// JoinIndex appends an array index segment to base.
func JoinIndex(base string, i int) string {
	return base + "/" + strconv.Itoa(i)
}

// SplitPath splits a path into unescaped segments. The root path yields nil.
func SplitPath(path string) []string {
	if path == "" || path == "/" {
		return nil
	}
	raw := strings.Split(strings.TrimPrefix(path, "/"), "/")
	out := make([]string, len(raw))
	for i, seg := range raw {
		out[i] = unescapeSegment(seg)
	}
	return out
}

// LastSegment returns the final unescaped segment, or "" for the root.
func LastSegment(path string) string {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// PathRef builds paths in a chain-safe way and creates FieldErrors for
// extension validators. The zero value addresses the root.
type PathRef struct {
	parts []string
}

// Root returns a PathRef addressing the root.
func Root() PathRef { return PathRef{} }

// At parses an existing path into a PathRef.
func At(path string) PathRef {
	if path == "" || path == "/" {
		return PathRef{}
	}
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return PathRef{parts: parts}
}

// Field appends an escaped property segment.
func (p PathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	return PathRef{parts: append(append([]string{}, p.parts...), escapeSegment(name))}
}

// Index appends an array index segment.
func (p PathRef) Index(i int) PathRef {
	return PathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

// Pointer renders the path. The root renders as "".
func (p PathRef) Pointer() string {
	if len(p.parts) == 0 {
		return ""
	}
	return "/" + strings.Join(p.parts, "/")
}

// Err builds a FieldError at this path with structured params given as
// alternating key/value pairs.
func (p PathRef) Err(code Code, kv ...any) FieldError {
	params := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			params[k] = kv[i+1]
		}
	}
	return newFieldError(p.Pointer(), code, params)
}

// rebasePath prefixes a relative error path onto base. Extension validators
// report relative to their binding; the engine rebases before recording.
func rebasePath(base, rel string) string {
	if rel == "" || rel == "/" {
		return base
	}
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return base + rel
}
