package prerouter

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/caasmo/notespieces/core"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

// Cors lets the configured frontend origins call the API with credentials.
// Other origins get no CORS headers, so browsers refuse the response.
type Cors struct {
	app *core.App
}

func NewCors(app *core.App) *Cors {
	return &Cors{app: app}
}

func (c *Cors) allowed(origin string) bool {
	origin = strings.TrimSuffix(origin, "/")
	return slices.ContainsFunc(c.app.Config().Cors.AllowedOrigins, func(o string) bool {
		return strings.TrimSuffix(o, "/") == origin
	})
}

func (c *Cors) Execute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		h := w.Header()
		h.Add("Vary", "Origin")

		if origin == "" || !c.allowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			if maxAge := c.app.Config().Cors.MaxAge.Duration; maxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(int(maxAge.Seconds())))
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
