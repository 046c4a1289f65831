package middlewares

import (
	"net/http"

	"github.com/geocoder89/guruhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Authorize must be chained after Authenticate. A request reaching it without
// an identity means the routes are wired wrong, so it fails as a server error.
func (m *AuthMiddleware) Authorize(required user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)

		if !ok {
			m.log.ErrorContext(c.Request.Context(), "authorize reached without identity",
				"route", c.FullPath(),
				"request_id", c.GetString(CtxRequestID),
			)
			abortWithError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}

		if !allowed(required, id.Role) {
			abortWithError(c, http.StatusForbidden, "forbidden", "You do not have access to this resource")
			return
		}

		c.Next()
	}
}

func allowed(required, actual user.Role) bool {
	switch required {
	case user.RoleAdmin:
		return actual == user.RoleAdmin
	case user.RoleUser:
		return actual.Valid()
	default:
		return false
	}
}

// RequireAdmin is the Authenticate+Authorize(admin) chain used on every content mutation.
func (m *AuthMiddleware) RequireAdmin() []gin.HandlerFunc {
	return []gin.HandlerFunc{m.Authenticate(), m.Authorize(user.RoleAdmin)}
}
