package prerouter

import (
	"net/http"
	"strconv"

	"github.com/caasmo/notespieces/core"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricName = "http_server_requests_total"
	metricHelp = "Total number of HTTP requests handled by the server, labeled by status code."
)

// Metrics counts responses by status code.
type Metrics struct {
	app           *core.App
	requestsTotal *prometheus.CounterVec
}

// NewMetrics registers the request counter with reg, the default registerer
// when nil. A counter already registered under the same name is reused.
func NewMetrics(app *core.App, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricName,
		Help: metricHelp,
	}, []string{"code"})

	if err := reg.Register(counter); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		counter = existing
	}

	return &Metrics{app: app, requestsTotal: counter}, nil
}

func (m *Metrics) Execute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.app.Config().Metrics.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		rec := core.NewResponseRecorder(w)
		next.ServeHTTP(rec, r)
		m.requestsTotal.WithLabelValues(strconv.Itoa(rec.Status)).Inc()
	})
}
