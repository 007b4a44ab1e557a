package notespieces

import (
	"io"
	"log/slog"

	"github.com/caasmo/notespieces/auth"
	"github.com/caasmo/notespieces/cache"
	"github.com/caasmo/notespieces/config"
	"github.com/caasmo/notespieces/core"
	"github.com/caasmo/notespieces/db"
	"github.com/caasmo/notespieces/mail"
	"github.com/caasmo/notespieces/ratelimit"
	"github.com/caasmo/notespieces/router"
	"github.com/caasmo/notespieces/router/gorillamux"
	"github.com/caasmo/notespieces/router/servemux"
	phuslog "github.com/phuslu/log"
	"github.com/prometheus/client_golang/prometheus"
)

type settings struct {
	db         db.DbApp
	mailer     mail.Sender
	google     auth.GoogleVerifier
	logger     *slog.Logger
	level      *slog.LevelVar
	newRouter  func() router.Router
	registerer prometheus.Registerer
	coreOpts   []core.Option
}

func (s *settings) router() router.Router {
	if s.newRouter == nil {
		return gorillamux.New()
	}
	return s.newRouter()
}

type Option func(*settings)

// WithDb uses an already opened store. Its lifecycle belongs to the App:
// App.Close closes it.
func WithDb(d db.DbApp) Option {
	return func(s *settings) {
		s.db = d
	}
}

func WithMailer(m mail.Sender) Option {
	return func(s *settings) {
		s.mailer = m
	}
}

// WithGoogleVerifier overrides the verifier built from the [Google] section.
func WithGoogleVerifier(v auth.GoogleVerifier) Option {
	return func(s *settings) {
		s.google = v
	}
}

// WithLogger uses l as is. The log level is then not reloaded on SIGHUP.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
		s.level = nil
	}
}

// WithPhusLogger logs JSON through phuslu/log's slog handler.
func WithPhusLogger(w io.Writer, level *slog.LevelVar) Option {
	return func(s *settings) {
		s.logger = NewLogger(w, config.LogFormatJson, level)
		s.level = level
	}
}

// WithTextLogger logs with the standard library text handler.
func WithTextLogger(w io.Writer, level *slog.LevelVar) Option {
	return func(s *settings) {
		s.logger = NewLogger(w, config.LogFormatText, level)
		s.level = level
	}
}

// WithRouterServeMux routes with net/http's ServeMux instead of gorilla/mux.
func WithRouterServeMux() Option {
	return func(s *settings) {
		s.newRouter = func() router.Router { return servemux.New() }
	}
}

// WithRegisterer sets where the request metrics are registered,
// prometheus.DefaultRegisterer by default.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *settings) {
		s.registerer = reg
	}
}

// WithCache sets the cache backing the ip block list.
func WithCache(c cache.Cache[any]) Option {
	return func(s *settings) {
		s.coreOpts = append(s.coreOpts, core.WithCache(c))
	}
}

// WithRateLimitStore shares the auth rate limit counters.
func WithRateLimitStore(store ratelimit.Store) Option {
	return func(s *settings) {
		s.coreOpts = append(s.coreOpts, core.WithRateLimitStore(store))
	}
}

// NewLogger builds a slog logger writing to w. format is "json" (phuslu)
// or "text". A nil level logs from info.
func NewLogger(w io.Writer, format string, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{}
	if level != nil {
		opts.Level = level
	}
	if format == config.LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(phuslog.SlogNewJSONHandler(w, opts))
}
