// Package middleware validates HTTP JSON bodies against a schema. The net/http
// wrappers here are framework neutral; echo and gin adapters live in
// submodules so their framework dependencies stay out of the core module.
package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"

	json "github.com/goccy/go-json"

	goshape "github.com/reoring/goshape"
)

// ctxKeyClean is a typed context key for the coerced request body.
type ctxKeyClean struct{}

type cleanBox struct{ v any }

// ContextWithClean attaches a coerced body to the context.
func ContextWithClean(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, ctxKeyClean{}, cleanBox{v})
}

// CleanFromContext retrieves the coerced body stored by ValidateRequest.
func CleanFromContext(ctx context.Context) (any, bool) {
	b, ok := ctx.Value(ctxKeyClean{}).(cleanBox)
	if !ok {
		return nil, false
	}
	return b.v, true
}

// DefaultOptions is the recommended posture for HTTP JSON boundaries:
// duplicate keys in the raw bytes are errors.
func DefaultOptions() goshape.Options {
	return goshape.Options{DupKeys: goshape.ExtraFail}
}

var logger *slog.Logger

// SetLogger replaces the package logger. Nil restores slog.Default.
func SetLogger(l *slog.Logger) { logger = l }

func log() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// ValidateRequest validates JSON request bodies against s before the next
// handler runs. Request mode is forced, so readOnly properties are stripped.
// The coerced body is stored in the request context; failures are answered
// directly with the standard error payload and the validation's status.
func ValidateRequest(s *goshape.Schema, opts ...goshape.Options) func(http.Handler) http.Handler {
	opt := pick(opts)
	opt.Request = true
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeFailure(w, http.StatusBadRequest, "cannot read request body")
				return
			}
			clean, val, cerr := goshape.CheckJSON(r.Context(), s, body, opt)
			if cerr != nil {
				log().Error("request schema unusable", "path", r.URL.Path, "err", cerr)
				writeFailure(w, FatalStatus(cerr), "request cannot be validated")
				return
			}
			if !val.Valid() {
				WriteValidation(w, val)
				return
			}
			logWarnings(val, "request", r.URL.Path)
			next.ServeHTTP(w, r.WithContext(ContextWithClean(r.Context(), clean)))
		})
	}
}

// ValidateResponse buffers the downstream response and validates JSON bodies
// against s in response mode, so writeOnly properties must not appear.
// Violations go to the log and the response passes through unchanged; use
// EnforceResponse to replace invalid bodies. Non-JSON and empty responses
// pass through untouched.
func ValidateResponse(s *goshape.Schema, opts ...goshape.Options) func(http.Handler) http.Handler {
	return responseMiddleware(s, false, opts)
}

// EnforceResponse is ValidateResponse with teeth: an invalid body is replaced
// by a 500. The detail goes to the log, never to the client.
func EnforceResponse(s *goshape.Schema, opts ...goshape.Options) func(http.Handler) http.Handler {
	return responseMiddleware(s, true, opts)
}

func responseMiddleware(s *goshape.Schema, enforce bool, opts []goshape.Options) func(http.Handler) http.Handler {
	opt := pick(opts)
	opt.Response = true
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newRecorder()
			next.ServeHTTP(rec, r)
			if rec.body.Len() == 0 || !jsonContentType(rec.header.Get("Content-Type")) {
				rec.flush(w)
				return
			}
			_, val, err := goshape.CheckJSON(r.Context(), s, rec.body.Bytes(), opt)
			if err != nil {
				log().Error("response schema unusable", "path", r.URL.Path, "err", err)
				if enforce {
					writeFailure(w, http.StatusInternalServerError, "response validation failed")
					return
				}
				rec.flush(w)
				return
			}
			if !val.Valid() {
				log().Error("response contract violated", "path", r.URL.Path, "err", (&goshape.ValidationError{Validation: val}).Error())
				if enforce {
					writeFailure(w, http.StatusInternalServerError, "response validation failed")
					return
				}
				rec.flush(w)
				return
			}
			logWarnings(val, "response", r.URL.Path)
			rec.flush(w)
		})
	}
}

// WriteValidation writes the standard error payload with the validation's
// status.
func WriteValidation(w http.ResponseWriter, val *goshape.Validation) {
	b, err := json.Marshal(val)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "cannot encode validation result")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(val.Status())
	_, _ = w.Write(b)
}

// FailurePayload shapes non-validation failures (unreadable body, unusable
// schema) like validation errors, with an empty errors map.
func FailurePayload(status int, msg string) map[string]any {
	return map[string]any{"message": msg, "code": status, "errors": map[string]any{}}
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	b, _ := json.Marshal(FailurePayload(status, msg))
	_, _ = w.Write(b)
}

func logWarnings(val *goshape.Validation, dir, path string) {
	for _, warn := range val.Warnings() {
		log().Warn("validation warning", "dir", dir, "path", path, "at", warn.Path, "code", string(warn.Code), "detail", warn.Message)
	}
}

// FatalStatus maps a fatal validation error to a response status: reference
// resolution failures carry their own status, everything else is a 500.
func FatalStatus(err error) int {
	if re, ok := goshape.AsResolveError(err); ok && re.Status != 0 {
		return re.Status
	}
	return http.StatusInternalServerError
}

func jsonContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || mt == "application/problem+json"
}

func pick(opts []goshape.Options) goshape.Options {
	if len(opts) == 0 {
		return DefaultOptions()
	}
	return opts[len(opts)-1]
}

// recorder buffers a downstream response for post-hoc validation.
type recorder struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newRecorder() *recorder {
	return &recorder{header: http.Header{}, status: http.StatusOK}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) Write(p []byte) (int, error) { return r.body.Write(p) }

func (r *recorder) WriteHeader(code int) { r.status = code }

func (r *recorder) flush(w http.ResponseWriter) {
	h := w.Header()
	for k, vs := range r.header {
		h[k] = vs
	}
	w.WriteHeader(r.status)
	_, _ = w.Write(r.body.Bytes())
}
