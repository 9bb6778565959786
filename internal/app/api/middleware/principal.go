package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feiralivre/monetize/pkg/response"
)

// PrincipalHeader carries the authenticated user id. Authentication happens
// upstream; the gateway strips and re-injects this header on every request.
const PrincipalHeader = "X-User-ID"

const principalKey = "principal_user_id"

func PrincipalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader(PrincipalHeader)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.ErrorT[any](response.APIResponseCodeBadRequest, "missing "+PrincipalHeader+" header"))
			return
		}
		c.Set(principalKey, uid)
		c.Next()
	}
}

// PrincipalFrom returns the user id set by PrincipalMiddleware.
func PrincipalFrom(c *gin.Context) string {
	return c.GetString(principalKey)
}
