package core

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caasmo/notespieces/auth"
	"github.com/caasmo/notespieces/config"
)

func TestSessionCookies(t *testing.T) {
	testCases := []struct {
		name         string
		env          string
		domain       string
		wantSecure   bool
		wantSameSite http.SameSite
	}{
		{name: "development", env: config.EnvDevelopment, wantSameSite: http.SameSiteLaxMode},
		{name: "production", env: config.EnvProduction, domain: "example.com", wantSecure: true, wantSameSite: http.SameSiteNoneMode},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			cfg.Server.Env = tc.env
			cfg.Cookie.Domain = tc.domain
			a := &App{}
			a.SetConfigProvider(config.NewProvider(cfg))

			now := time.Now()
			rr := httptest.NewRecorder()
			a.setSessionCookies(rr, auth.Pair{
				AccessToken:    "access",
				RefreshToken:   "refresh",
				AccessExpires:  now.Add(time.Hour),
				RefreshExpires: now.Add(24 * time.Hour),
			})

			cookies := rr.Result().Cookies()
			access := cookieNamed(cookies, AccessTokenCookie)
			refresh := cookieNamed(cookies, RefreshTokenCookie)
			if access == nil || refresh == nil {
				t.Fatalf("cookies = %v", cookies)
			}

			for _, c := range []*http.Cookie{access, refresh} {
				if !c.HttpOnly || c.Secure != tc.wantSecure || c.SameSite != tc.wantSameSite {
					t.Errorf("%s: httpOnly=%v secure=%v sameSite=%v", c.Name, c.HttpOnly, c.Secure, c.SameSite)
				}
				if c.Domain != tc.domain {
					t.Errorf("%s: domain = %q", c.Name, c.Domain)
				}
			}
			if access.Value != "access" || access.Path != "/" {
				t.Errorf("access cookie = %+v", access)
			}
			if refresh.Value != "refresh" || refresh.Path != refreshCookiePath {
				t.Errorf("refresh cookie = %+v", refresh)
			}
			if access.MaxAge <= 0 || access.MaxAge > 3600 || refresh.MaxAge <= access.MaxAge {
				t.Errorf("max ages access=%d refresh=%d", access.MaxAge, refresh.MaxAge)
			}
		})
	}
}
