package prerouter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caasmo/notespieces/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	testCases := []struct {
		name     string
		enabled  bool
		statuses []int
		want     map[string]float64
	}{
		{
			name:     "counts by status",
			enabled:  true,
			statuses: []int{http.StatusOK, http.StatusOK, http.StatusNotFound},
			want:     map[string]float64{"200": 2, "404": 1},
		},
		{
			name:     "disabled",
			enabled:  false,
			statuses: []int{http.StatusOK},
			want:     map[string]float64{"200": 0},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, func(c *config.Config) { c.Metrics.Enabled = tc.enabled })
			m, err := NewMetrics(app, prometheus.NewRegistry())
			if err != nil {
				t.Fatalf("NewMetrics: %v", err)
			}

			for _, status := range tc.statuses {
				h := m.Execute(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(status)
				}))
				h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			}

			for code, want := range tc.want {
				if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(code)); got != want {
					t.Errorf("code %s: got %v, want %v", code, got, want)
				}
			}
		})
	}
}

func TestNewMetricsReusesRegisteredCounter(t *testing.T) {
	app := newTestApp(t, nil)
	reg := prometheus.NewRegistry()

	first, err := NewMetrics(app, reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewMetrics(app, reg)
	if err != nil {
		t.Fatalf("second registration failed: %v", err)
	}
	if first.requestsTotal != second.requestsTotal {
		t.Error("expected the registered counter to be reused")
	}
}
