package core

import (
	"net/http"
	"time"

	"github.com/caasmo/notespieces/auth"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	// the refresh token is only sent to the auth routes
	refreshCookiePath = "/auth"
)

func (a *App) newCookie(name, value, path string, expires time.Time) *http.Cookie {
	cfg := a.Config()

	sameSite := http.SameSiteLaxMode
	if cfg.Server.IsProduction() {
		// the frontend is served from another site in production
		sameSite = http.SameSiteNoneMode
	}

	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   cfg.Cookie.Domain,
		HttpOnly: true,
		Secure:   cfg.Server.IsProduction(),
		SameSite: sameSite,
	}
	if expires.IsZero() {
		c.MaxAge = -1
	} else {
		c.Expires = expires
		c.MaxAge = int(time.Until(expires).Seconds())
	}
	return c
}

func (a *App) setSessionCookies(w http.ResponseWriter, pair auth.Pair) {
	http.SetCookie(w, a.newCookie(AccessTokenCookie, pair.AccessToken, "/", pair.AccessExpires))
	http.SetCookie(w, a.newCookie(RefreshTokenCookie, pair.RefreshToken, refreshCookiePath, pair.RefreshExpires))
}

// clearSessionCookies expires both cookies with the attributes they were
// set with, otherwise browsers keep them.
func (a *App) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, a.newCookie(AccessTokenCookie, "", "/", time.Time{}))
	http.SetCookie(w, a.newCookie(RefreshTokenCookie, "", refreshCookiePath, time.Time{}))
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
