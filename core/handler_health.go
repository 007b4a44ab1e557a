package core

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether the store answers.
// Endpoint: GET /health
// Authenticated: No
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.Warn("health check failed", "error", err)
		writeJsonResponse(w, errorUnhealthy)
		return
	}
	writeJsonResponse(w, okHealth)
}

// NotFoundHandler answers requests no route matches.
func (a *App) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, errorRouteNotFound)
}
