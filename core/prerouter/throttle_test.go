package prerouter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caasmo/notespieces/config"
)

func TestThrottle(t *testing.T) {
	testCases := []struct {
		name     string
		enabled  bool
		requests int
		wantLast int
	}{
		{name: "burst exhausted", enabled: true, requests: 3, wantLast: http.StatusTooManyRequests},
		{name: "within burst", enabled: true, requests: 2, wantLast: http.StatusOK},
		{name: "disabled", enabled: false, requests: 10, wantLast: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, func(c *config.Config) {
				c.Throttle.Enabled = tc.enabled
				c.Throttle.RequestsPerSecond = 0.001
				c.Throttle.Burst = 2
			})
			h := NewThrottle(app).Execute(okHandler(nil))

			var rr *httptest.ResponseRecorder
			for i := 0; i < tc.requests; i++ {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.RemoteAddr = "192.0.2.1:1234"
				rr = httptest.NewRecorder()
				h.ServeHTTP(rr, req)
			}
			if rr.Code != tc.wantLast {
				t.Fatalf("last status = %d, want %d", rr.Code, tc.wantLast)
			}
			if tc.wantLast == http.StatusTooManyRequests && rr.Header().Get("Retry-After") == "" {
				t.Error("missing Retry-After")
			}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.2:1234"
			other := httptest.NewRecorder()
			h.ServeHTTP(other, req)
			if other.Code != http.StatusOK {
				t.Errorf("other ip should have its own bucket, got %d", other.Code)
			}
		})
	}
}
