package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Cookie names for the session credential pair
const (
	SessionCookieName = "session"
	TokenCookieName   = "token"
)

// SetSessionCookies hands the credential pair to the caller
func SetSessionCookies(c echo.Context, sessionKey, token string) {
	c.SetCookie(sessionCookie(SessionCookieName, sessionKey, 0))
	c.SetCookie(sessionCookie(TokenCookieName, token, 0))
}

// SetTokenCookie re-issues only the rotated token cookie
func SetTokenCookie(c echo.Context, token string) {
	c.SetCookie(sessionCookie(TokenCookieName, token, 0))
}

// ExpireSessionCookies instructs the caller to discard both credentials
func ExpireSessionCookies(c echo.Context) {
	c.SetCookie(sessionCookie(SessionCookieName, "", -1))
	c.SetCookie(sessionCookie(TokenCookieName, "", -1))
}

func sessionCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	}
}
