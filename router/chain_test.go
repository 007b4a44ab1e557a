package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	rtr "github.com/caasmo/notespieces/router"
)

// recordingMiddleware appends name to calls before calling next.
func recordingMiddleware(calls *[]string, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*calls = append(*calls, name)
			next.ServeHTTP(w, r)
		})
	}
}

func recordingHandler(calls *[]string, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, name)
	}
}

func TestChainOrder(t *testing.T) {
	testCases := []struct {
		name  string
		build func(calls *[]string) *rtr.Chain
		want  []string
	}{
		{
			name: "handler only",
			build: func(calls *[]string) *rtr.Chain {
				return rtr.NewChain(recordingHandler(calls, "handler"))
			},
			want: []string{"handler"},
		},
		{
			name: "middlewares run left to right",
			build: func(calls *[]string) *rtr.Chain {
				return rtr.NewChain(recordingHandler(calls, "handler")).
					WithMiddleware(recordingMiddleware(calls, "mw1"), recordingMiddleware(calls, "mw2"))
			},
			want: []string{"mw1", "mw2", "handler"},
		},
		{
			name: "later calls nest inside earlier ones",
			build: func(calls *[]string) *rtr.Chain {
				return rtr.NewChain(recordingHandler(calls, "handler")).
					WithMiddleware(recordingMiddleware(calls, "mw1")).
					WithMiddleware(recordingMiddleware(calls, "mw2"), recordingMiddleware(calls, "mw3"))
			},
			want: []string{"mw1", "mw2", "mw3", "handler"},
		},
		{
			name: "observers run after the handler",
			build: func(calls *[]string) *rtr.Chain {
				return rtr.NewChain(recordingHandler(calls, "handler")).
					WithMiddleware(recordingMiddleware(calls, "mw1")).
					WithObservers(recordingHandler(calls, "obs1"), recordingHandler(calls, "obs2"))
			},
			want: []string{"mw1", "handler", "obs1", "obs2"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var calls []string
			h := tc.build(&calls).Handler()
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
			if diff := cmp.Diff(tc.want, calls); diff != "" {
				t.Errorf("call order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChainObserversRunWhenMiddlewareStops(t *testing.T) {
	var calls []string
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, "deny")
			w.WriteHeader(http.StatusUnauthorized)
		})
	}

	h := rtr.NewChain(recordingHandler(&calls, "handler")).
		WithMiddleware(deny).
		WithObservers(recordingHandler(&calls, "obs")).
		Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
	if diff := cmp.Diff([]string{"deny", "obs"}, calls); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestNewChainNilHandlerPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic when creating chain with nil handler")
		}
	}()
	_ = rtr.NewChain(nil)
}

func TestRoute(t *testing.T) {
	var calls []string
	route := rtr.NewRoute("GET /notes").
		WithHandlerFunc(recordingHandler(&calls, "handler")).
		WithMiddleware(recordingMiddleware(&calls, "auth"))

	route.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/notes", nil))
	if diff := cmp.Diff([]string{"auth", "handler"}, calls); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestRoutePanics(t *testing.T) {
	t.Run("empty endpoint", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		rtr.NewRoute("")
	})
	t.Run("no handler", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		rtr.NewRoute("GET /x").Handler()
	})
}

func TestSplitPattern(t *testing.T) {
	testCases := []struct {
		pattern    string
		wantMethod string
		wantPath   string
	}{
		{"GET /notes/{id}", "GET", "/notes/{id}"},
		{"/health", "", "/health"},
		{" POST  /auth/signup ", "POST", "/auth/signup"},
	}
	for _, tc := range testCases {
		method, path := rtr.SplitPattern(tc.pattern)
		if method != tc.wantMethod || path != tc.wantPath {
			t.Errorf("SplitPattern(%q) = (%q, %q), want (%q, %q)", tc.pattern, method, path, tc.wantMethod, tc.wantPath)
		}
	}
}
