package prerouter

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/caasmo/notespieces/cache/ristretto"
	"github.com/caasmo/notespieces/config"
	"github.com/caasmo/notespieces/core"
)

// newTestApp builds a bare App with a real cache and a discarding logger.
// mutate adjusts the default config before it is installed.
func newTestApp(t *testing.T, mutate func(*config.Config)) *core.App {
	t.Helper()
	cfg := config.NewDefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}

	c, err := ristretto.New[any]("small")
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	app := &core.App{}
	app.SetCache(c)
	app.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	app.SetConfigProvider(config.NewProvider(cfg))
	return app
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}
