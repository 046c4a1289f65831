package middlewares

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/guruhub/internal/actorctx"
	"github.com/geocoder89/guruhub/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) auth.Verification
}

// RejectionObserver counts refused tokens by reason.
type RejectionObserver interface {
	ObserveTokenRejection(reason string)
}

type AuthMiddleware struct {
	jwt TokenVerifier
	log *slog.Logger
	obs RejectionObserver
}

func NewAuthMiddleware(jwt TokenVerifier, log *slog.Logger, obs RejectionObserver) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &AuthMiddleware{jwt: jwt, log: log, obs: obs}
}

const unauthenticatedMessage = "Authentication required"

// Authenticate admits only requests carrying a valid bearer token. Every
// rejection looks the same to the client; the reason goes to logs and metrics.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, reason := bearerToken(c.GetHeader("Authorization"))

		if reason == "" {
			v := m.jwt.Verify(raw)
			if v.OK() {
				id := actorctx.Identity{UserID: v.Claims.UserID(), Role: v.Claims.Role}

				c.Set(CtxIdentity, id)
				c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

				c.Next()
				return
			}

			reason = v.Failure.String()
		}

		m.reject(c, reason)
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, reason string) {
	m.log.InfoContext(c.Request.Context(), "token rejected",
		"reason", reason,
		"route", c.FullPath(),
		"request_id", c.GetString(CtxRequestID),
	)

	if m.obs != nil {
		m.obs.ObserveTokenRejection(reason)
	}

	abortWithError(c, http.StatusUnauthorized, "unauthenticated", unauthenticatedMessage)
}

func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing_header"
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "bad_scheme"
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", "empty_token"
	}

	return token, ""
}

// Optional helpers so handlers don’t need to know the magic keys.

func IdentityFromContext(c *gin.Context) (actorctx.Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return actorctx.Identity{}, false
	}
	id, ok := v.(actorctx.Identity)
	return id, ok && id.UserID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id, ok := IdentityFromContext(c)
	return id.UserID, ok
}
