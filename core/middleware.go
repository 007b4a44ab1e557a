package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/caasmo/notespieces/apperr"
	"github.com/caasmo/notespieces/auth"
	"github.com/caasmo/notespieces/ratelimit"
)

// RateWindow names the configured limit a route is counted against.
type RateWindow int

const (
	// WindowAuth guards signup, sign in, google, refresh and check-user.
	WindowAuth RateWindow = iota
	// WindowOtp guards the routes that verify or resend codes.
	WindowOtp
)

func (a *App) limiter(window RateWindow) ratelimit.Limiter {
	if window == WindowOtp {
		return a.otpLimiter
	}
	return a.authLimiter
}

// RateLimit counts requests per route, client ip and email of the body.
// The body is read here and handed on untouched.
func (a *App) RateLimit(route string, window RateWindow) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := peekEmail(w, r)
			key := route + ":" + a.ClientIP(r) + ":" + email

			if ok, wait := a.limiter(window).Allow(key); !ok {
				a.logger.Info("rate limited", "route", route, "ip", a.ClientIP(r))
				a.WriteError(w, r, apperr.ErrRateLimited.RetryAfter(wait))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// peekEmail returns the normalized "email" field of a JSON body, or "",
// and restores the body for the handler.
func peekEmail(w http.ResponseWriter, r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return auth.NormalizeEmail(payload.Email)
}

// Recover turns a panic into a 500 answered through WriteError.
func (a *App) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.logger.Error("panic serving request", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
				a.WriteError(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
