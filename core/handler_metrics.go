package core

import (
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the Prometheus metrics of the default registry to
// the configured client ips. Everyone else sees a missing route.
// Endpoint: GET /metrics
// Authenticated: No
func (a *App) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	cfg := a.Config().Metrics
	if !cfg.Enabled || !slices.Contains(cfg.AllowedIPs, a.ClientIP(r)) {
		writeJsonResponse(w, errorRouteNotFound)
		return
	}

	promhttp.Handler().ServeHTTP(w, r)
}
