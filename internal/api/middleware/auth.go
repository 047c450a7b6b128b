package middleware

import (
	"errors"
	"net/http"

	"github.com/carolus/cryptoannapi/internal/service"
	"github.com/carolus/cryptoannapi/internal/shared"
	"github.com/carolus/cryptoannapi/pkg/utils/response"
	"github.com/labstack/echo/v4"
)

// Context keys set for handlers behind the auth middleware
const (
	ContextUserKey       = "user"
	ContextSessionKeyKey = "session_key"
)

// AuthMiddleware validates the session credential pair carried in cookies
// against the identity claimed by the :username path param. Missing or
// empty cookies are rejected before any session lookup. An invalid or
// expired session expires both cookies; a rotated token is re-issued in
// the same response.
func AuthMiddleware(registry *service.SessionRegistry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionKey := cookieValue(c, SessionCookieName)
			token := cookieValue(c, TokenCookieName)
			username := c.Param("username")

			user, creds, err := registry.Validate(sessionKey, token, username)
			if err != nil {
				if errors.Is(err, shared.ErrSessionExpired) {
					ExpireSessionCookies(c)
					return response.ErrorResponse(c, http.StatusUnauthorized, shared.CauseSessionExpired, "Session time expired. Please sign in again.")
				}
				return response.ErrorResponse(c, http.StatusUnauthorized, shared.CauseNotAuthorized, "Look's like you're not authenticated on server")
			}

			if creds.Rotated {
				SetTokenCookie(c, creds.Token)
			}

			c.Set(ContextUserKey, user)
			c.Set(ContextSessionKeyKey, sessionKey)

			return next(c)
		}
	}
}

func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
