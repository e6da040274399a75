package echomw

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/middleware"
)

// ValidateJSON validates request JSON against s, stores the coerced body in
// the request context on success, and otherwise answers with the standard
// error payload and the validation's status.
func ValidateJSON(s *goshape.Schema, opts ...goshape.Options) echo.MiddlewareFunc {
	opt := pick(opts)
	opt.Request = true
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return c.JSON(http.StatusBadRequest, middleware.FailurePayload(http.StatusBadRequest, "cannot read request body"))
			}
			clean, val, cerr := goshape.CheckJSON(c.Request().Context(), s, body, opt)
			if cerr != nil {
				status := middleware.FatalStatus(cerr)
				return c.JSON(status, middleware.FailurePayload(status, "request cannot be validated"))
			}
			if !val.Valid() {
				return c.JSON(val.Status(), val)
			}
			ctx := middleware.ContextWithClean(c.Request().Context(), clean)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// Clean fetches the coerced body from echo.Context.
func Clean(c echo.Context) (any, bool) {
	return middleware.CleanFromContext(c.Request().Context())
}

func pick(opts []goshape.Options) goshape.Options {
	if len(opts) == 0 {
		return middleware.DefaultOptions()
	}
	return opts[len(opts)-1]
}
