package ginmw

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/middleware"
)

// ValidateJSON validates the incoming JSON against s, stores the coerced
// body in the request context, and on validation failure aborts with the
// standard error payload and the validation's status.
func ValidateJSON(s *goshape.Schema, opts ...goshape.Options) gin.HandlerFunc {
	opt := pick(opts)
	opt.Request = true
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, middleware.FailurePayload(http.StatusBadRequest, "cannot read request body"))
			c.Abort()
			return
		}
		clean, val, cerr := goshape.CheckJSON(c.Request.Context(), s, body, opt)
		if cerr != nil {
			status := middleware.FatalStatus(cerr)
			c.JSON(status, middleware.FailurePayload(status, "request cannot be validated"))
			c.Abort()
			return
		}
		if !val.Valid() {
			c.JSON(val.Status(), val)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithClean(c.Request.Context(), clean))
		c.Next()
	}
}

// Clean fetches the coerced body from gin.Context.
func Clean(c *gin.Context) (any, bool) {
	return middleware.CleanFromContext(c.Request.Context())
}

func pick(opts []goshape.Options) goshape.Options {
	if len(opts) == 0 {
		return middleware.DefaultOptions()
	}
	return opts[len(opts)-1]
}
