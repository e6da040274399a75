package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/dsl"
	"github.com/reoring/goshape/middleware"
)

func userSchema() *goshape.Schema {
	return dsl.Object().
		Prop("id", dsl.String().Required()).
		Prop("age", dsl.Integer().Min(0)).
		Additional(false).
		Schema()
}

func postJSON(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestValidateRequest_PassesCleanBodyDownstream(t *testing.T) {
	var clean any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		clean, ok = middleware.CleanFromContext(r.Context())
		require.True(t, ok, "clean body must be in the context")
		w.WriteHeader(http.StatusCreated)
	})
	h := middleware.ValidateRequest(userSchema())(next)

	rr := postJSON(h, `{"id":"u1","age":"30"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, map[string]any{"id": "u1", "age": int64(30)}, clean)
}

func TestValidateRequest_InvalidBodyGetsTheWirePayload(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	h := middleware.ValidateRequest(userSchema())(next)

	rr := postJSON(h, `{"age":-1,"ghost":true}`)
	require.False(t, called, "invalid requests stop at the middleware")
	require.Equal(t, 422, rr.Code, "too_small outranks the 400 errors")
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var payload struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
		Errors  map[string][]struct {
			Error   string `json:"error"`
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Message)
	require.Equal(t, 422, payload.Code)
	require.Len(t, payload.Errors["/id"], 1)
	require.Equal(t, "required", payload.Errors["/id"][0].Error)
	require.Equal(t, 400, payload.Errors["/id"][0].Code)
	require.Len(t, payload.Errors["/age"], 1)
	require.Equal(t, "too_small", payload.Errors["/age"][0].Error)
	require.Len(t, payload.Errors[""], 1, "unknown keys aggregate at the object path")
}

func TestValidateRequest_MalformedJSONIsAParseError(t *testing.T) {
	h := middleware.ValidateRequest(userSchema())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))
	rr := postJSON(h, `{"id":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	errs := payload["errors"].(map[string]any)
	require.Contains(t, errs, "")
}

func TestValidateRequest_ForcesRequestMode(t *testing.T) {
	s := dsl.Object().
		Prop("id", dsl.String().ReadOnly().Required()).
		Prop("name", dsl.String().Required()).
		Additional(false).
		Schema()
	var clean any
	h := middleware.ValidateRequest(s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean, _ = middleware.CleanFromContext(r.Context())
	}))

	// the server-owned id neither blocks the request nor survives into clean
	rr := postJSON(h, `{"id":"forged","name":"ann"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, map[string]any{"name": "ann"}, clean)
}

func TestValidateRequest_DuplicateKeyPosture(t *testing.T) {
	h := middleware.ValidateRequest(userSchema())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rr := postJSON(h, `{"id":"a","id":"b"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code, "duplicate keys fail by default")
	require.Contains(t, rr.Body.String(), "duplicate_key")

	// explicit options replace the default posture entirely
	relaxed := middleware.ValidateRequest(userSchema(), goshape.Options{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rr = postJSON(relaxed, `{"id":"a","id":"b"}`)
	require.Equal(t, http.StatusOK, rr.Code, "zero options ignore duplicates")
}

func TestValidateRequest_UnusableSchemaKeepsResolveStatus(t *testing.T) {
	dangling := dsl.Ref("#/components/schemas/Ghost").Schema()
	opt := middleware.DefaultOptions()
	opt.Lookup = goshape.NewRegistry().Lookup
	h := middleware.ValidateRequest(dangling, opt)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rr := postJSON(h, `{}`)
	require.Equal(t, http.StatusNotFound, rr.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.Equal(t, float64(http.StatusNotFound), payload["code"])
	require.Empty(t, payload["errors"])
}

func respond(status int, contentType, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	middleware.SetLogger(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() { middleware.SetLogger(nil) })
	return buf
}

func TestValidateResponse_LogsAndPassesThrough(t *testing.T) {
	buf := captureLog(t)
	h := middleware.ValidateResponse(userSchema())(
		respond(http.StatusOK, "application/json", `{"id":123}`))

	rr := postJSON(h, `{}`)
	require.Equal(t, http.StatusOK, rr.Code, "log-only mode never rewrites")
	require.Equal(t, `{"id":123}`, rr.Body.String())
	require.Contains(t, buf.String(), "response contract violated")
}

func TestEnforceResponse_ReplacesInvalidBodies(t *testing.T) {
	buf := captureLog(t)
	h := middleware.EnforceResponse(userSchema())(
		respond(http.StatusOK, "application/json", `{"id":123}`))

	rr := postJSON(h, `{}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "123", "the broken body must not leak")
	require.Contains(t, buf.String(), "response contract violated")

	// valid bodies pass untouched
	ok := middleware.EnforceResponse(userSchema())(
		respond(http.StatusOK, "application/json; charset=utf-8", `{"id":"u1"}`))
	rr = postJSON(ok, `{}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, `{"id":"u1"}`, rr.Body.String())
}

func TestValidateResponse_SkipsNonJSONAndEmptyBodies(t *testing.T) {
	h := middleware.EnforceResponse(userSchema())(
		respond(http.StatusOK, "text/plain", "hello"))
	rr := postJSON(h, `{}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "hello", rr.Body.String())

	empty := middleware.EnforceResponse(userSchema())(
		respond(http.StatusNoContent, "", ""))
	rr = postJSON(empty, `{}`)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, rr.Body.String())
}

func TestFatalStatus(t *testing.T) {
	require.Equal(t, 508, middleware.FatalStatus(&goshape.ResolveError{Status: 508}))
	require.Equal(t, http.StatusInternalServerError, middleware.FatalStatus(context.Canceled))
}

func TestFailurePayloadShape(t *testing.T) {
	p := middleware.FailurePayload(404, "nope")
	require.Equal(t, map[string]any{"message": "nope", "code": 404, "errors": map[string]any{}}, p)
}
