package prerouter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caasmo/notespieces/config"
)

func TestRequestLog(t *testing.T) {
	testCases := []struct {
		name      string
		activated bool
		status    int
		wantLevel string
	}{
		{name: "success", activated: true, status: http.StatusCreated, wantLevel: "INFO"},
		{name: "server error", activated: true, status: http.StatusInternalServerError, wantLevel: "ERROR"},
		{name: "deactivated", activated: false, status: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, func(c *config.Config) {
				c.Log.Request.Activated = tc.activated
				c.Log.Request.URILength = 16
			})
			var buf bytes.Buffer
			app.SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

			final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte("body"))
			})

			req := httptest.NewRequest(http.MethodPost, "/notes?tag="+strings.Repeat("x", 40), nil)
			req.RemoteAddr = "192.0.2.1:12345"
			NewRequestLog(app).Execute(final).ServeHTTP(httptest.NewRecorder(), req)

			if !tc.activated {
				if buf.Len() != 0 {
					t.Fatalf("expected no log, got %s", buf.String())
				}
				return
			}

			var record map[string]any
			if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
				t.Fatalf("failed to parse log record %q: %v", buf.String(), err)
			}
			if record["msg"] != logMessage {
				t.Errorf("msg = %v", record["msg"])
			}
			if record["level"] != tc.wantLevel {
				t.Errorf("level = %v, want %s", record["level"], tc.wantLevel)
			}
			if record["status"] != float64(tc.status) {
				t.Errorf("status = %v, want %d", record["status"], tc.status)
			}
			if record["method"] != http.MethodPost || record["ip"] != "192.0.2.1" {
				t.Errorf("method/ip = %v/%v", record["method"], record["ip"])
			}
			if record["bytes"] != float64(4) {
				t.Errorf("bytes = %v", record["bytes"])
			}
			if uri, _ := record["uri"].(string); uri != "/notes?tag=xxxxx..." {
				t.Errorf("uri not cut: %q", uri)
			}
		})
	}
}

func TestCutStr(t *testing.T) {
	if got := cutStr("abcdef", 3); got != "abc..." {
		t.Errorf("got %q", got)
	}
	if got := cutStr("abc", 3); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := cutStr("abcdef", 0); got != "abcdef" {
		t.Errorf("zero limit should not cut, got %q", got)
	}
}
