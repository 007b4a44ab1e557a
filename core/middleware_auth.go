package core

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/caasmo/notespieces/apperr"
	"github.com/caasmo/notespieces/db"
)

type contextKey string

const userKey contextKey = "user"

// errMissingUser means a handler needing a session was registered without
// RequireUser.
var errMissingUser = errors.New("no user in request context")

// accessToken reads the access cookie, then the Authorization header.
func accessToken(r *http.Request) string {
	if token := cookieValue(r, AccessTokenCookie); token != "" {
		return token
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireUser lets through requests carrying a valid access token of an
// existing, verified user. The user is stored in the request context.
func (a *App) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.auth.Authenticate(accessToken(r))
		if err != nil {
			a.WriteError(w, r, err)
			return
		}

		user, err := a.auth.Me(r.Context(), claims.UserID)
		if err != nil {
			a.WriteError(w, r, err)
			return
		}
		if !user.IsEmailVerified {
			a.WriteError(w, r, apperr.ErrEmailNotVerified)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (*db.User, bool) {
	user, ok := ctx.Value(userKey).(*db.User)
	return user, ok && user != nil
}

// sessionUser returns the user of the request or answers with an error.
func (a *App) sessionUser(w http.ResponseWriter, r *http.Request) (*db.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		a.WriteError(w, r, errMissingUser)
	}
	return user, ok
}
