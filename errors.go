package goshape

import (
	"errors"
	"fmt"
)

// Code identifies a field error kind. Exported consts for IDE completion and
// stable wire values.
type Code string

const (
	CodeInvalidType   Code = "invalid_type"
	CodeRequired      Code = "required"
	CodeUnknownKey    Code = "unknown_key"
	CodeDuplicateKey  Code = "duplicate_key"
	CodeTooSmall      Code = "too_small"
	CodeTooBig        Code = "too_big"
	CodeTooShort      Code = "too_short"
	CodeTooLong       Code = "too_long"
	CodePattern       Code = "pattern"
	CodeInvalidEnum   Code = "invalid_enum"
	CodeInvalidFormat Code = "invalid_format"
	CodeNotMultiple   Code = "not_multiple"
	CodeDuplicateItem Code = "duplicate_item"
	CodeParseError    Code = "parse_error"
	// CodeInvalid is the generic invalidity recorded when a filter rejects a
	// value without a more specific code.
	CodeInvalid Code = "invalid"
	// Reference resolution codes, carried by ResolveError.
	CodeRefNotFound Code = "ref_not_found"
	CodeRefCycle    Code = "ref_cycle"
	CodeRefLookup   Code = "ref_lookup"
)

// statusFor maps codes to their default numeric status: 400-class for
// structural problems, 422 for constraint violations, the transport-shaped
// resolution codes for ref failures.
func statusFor(code Code) int {
	switch code {
	case CodeInvalidType, CodeRequired, CodeUnknownKey, CodeDuplicateKey, CodeParseError, CodeRefLookup:
		return 400
	case CodeTooSmall, CodeTooBig, CodeTooShort, CodeTooLong, CodePattern,
		CodeInvalidEnum, CodeInvalidFormat, CodeNotMultiple, CodeDuplicateItem, CodeInvalid:
		return 422
	case CodeRefNotFound:
		return 404
	case CodeRefCycle:
		return 508
	}
	return 0
}

// SchemaError reports a schema authoring or configuration mistake: malformed
// discriminator, non-node allOf member, invalid reference syntax, bad
// shorthand. It is fatal to the call and distinct from data errors.
type SchemaError struct {
	Path   string // schema location when known, "" otherwise
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid schema at %q: %s", e.Path, e.Reason)
	}
	return "invalid schema: " + e.Reason
}

func schemaErrf(path, format string, args ...any) *SchemaError {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// ResolveError reports a reference resolution failure: not found (404),
// lookup raised (400), or cycle detected (508). Always fatal to the call.
type ResolveError struct {
	Ref    string
	Code   Code
	Status int
	Err    error
}

func (e *ResolveError) Error() string {
	switch e.Code {
	case CodeRefNotFound:
		return fmt.Sprintf("cannot resolve %q: not found", e.Ref)
	case CodeRefCycle:
		return fmt.Sprintf("cannot resolve %q: reference cycle", e.Ref)
	default:
		return fmt.Sprintf("cannot resolve %q: %v", e.Ref, e.Err)
	}
}

func (e *ResolveError) Unwrap() error { return e.Err }

// AsSchemaError extracts a *SchemaError using errors.As.
func AsSchemaError(err error) (*SchemaError, bool) {
	var se *SchemaError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsResolveError extracts a *ResolveError using errors.As.
func AsResolveError(err error) (*ResolveError, bool) {
	var re *ResolveError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
