// Package cookie centralizes the session cookie contract shared by the
// auth handlers and middleware.
package cookie

import (
	"net/http"
	"time"

	"gestor/config"

	"github.com/labstack/echo/v4"
)

const (
	// AccessTokenName is the cookie carrying the access credential.
	AccessTokenName = "access_token"
	// RefreshTokenName is the cookie carrying the refresh credential.
	RefreshTokenName = "refresh_token"
)

// build assembles a session cookie. Cross-site clients need SameSite=None,
// which browsers only accept together with Secure, so production gets
// None+Secure and development keeps Lax over plain HTTP.
func build(cfg *config.Config, name, value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	secure := false
	if cfg.IsProduction() {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}

// Set writes a session cookie whose lifetime is the remaining validity of
// the credential it carries. A credential that is already expired turns
// into a deletion: MaxAge 0 would omit the attribute and leave a session
// cookie behind.
func Set(c echo.Context, cfg *config.Config, name, value string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetCookie(build(cfg, name, value, maxAge))
}

// Clear deletes both session cookies.
func Clear(c echo.Context, cfg *config.Config) {
	c.SetCookie(build(cfg, AccessTokenName, "", -1))
	c.SetCookie(build(cfg, RefreshTokenName, "", -1))
}

// Read returns the named cookie's value, or empty when absent.
func Read(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil || ck == nil {
		return ""
	}

	return ck.Value
}
