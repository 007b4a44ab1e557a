// Package proxy assembles the layers every request crosses before it
// reaches the router: recovery, request log, metrics, ip blocking,
// throttling and CORS.
package proxy

import (
	"fmt"
	"net/http"

	"github.com/caasmo/notespieces/core"
	"github.com/caasmo/notespieces/core/prerouter"
	"github.com/caasmo/notespieces/router"
	"github.com/prometheus/client_golang/prometheus"
)

type Proxy struct {
	app     *core.App
	handler http.Handler
}

// New builds the chain once. The router is looked up on every request, so
// App.SetRouter takes effect without rebuilding the proxy. reg receives the
// request counter; nil selects the default prometheus registerer.
func New(app *core.App, reg prometheus.Registerer) (*Proxy, error) {
	px := &Proxy{app: app}

	metrics, err := prerouter.NewMetrics(app, reg)
	if err != nil {
		return nil, fmt.Errorf("proxy: failed to register metrics: %w", err)
	}

	dispatch := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		px.app.Router().ServeHTTP(w, r)
	})

	px.handler = router.NewChain(dispatch).WithMiddleware(
		prerouter.NewRecover(app).Execute,
		prerouter.NewRequestLog(app).Execute,
		metrics.Execute,
		prerouter.NewBlockIp(app).Execute,
		prerouter.NewThrottle(app).Execute,
		prerouter.NewCors(app).Execute,
	).Handler()

	return px, nil
}

func (px *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	px.handler.ServeHTTP(w, r)
}
