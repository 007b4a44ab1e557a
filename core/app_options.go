package core

import (
	"log/slog"

	"github.com/caasmo/notespieces/auth"
	"github.com/caasmo/notespieces/cache"
	"github.com/caasmo/notespieces/config"
	"github.com/caasmo/notespieces/db"
	"github.com/caasmo/notespieces/notes"
	"github.com/caasmo/notespieces/ratelimit"
	"github.com/caasmo/notespieces/router"
)

type Option func(*App)

// WithDb sets the store backing users and notes.
func WithDb(d db.DbApp) Option {
	return func(a *App) {
		a.db = d
	}
}

func WithAuthService(s *auth.Service) Option {
	return func(a *App) {
		a.auth = s
	}
}

// WithNotesService overrides the notes service built over the store.
func WithNotesService(s *notes.Service) Option {
	return func(a *App) {
		a.notes = s
	}
}

// WithCache sets the cache used for the ip block list.
func WithCache(c cache.Cache[any]) Option {
	return func(a *App) {
		a.cache = c
	}
}

// WithRateLimitStore shares rate limit counters, for example between
// instances. The default store is in process.
func WithRateLimitStore(s ratelimit.Store) Option {
	return func(a *App) {
		a.rateStore = s
	}
}

func WithRouter(r router.Router) Option {
	return func(a *App) {
		a.router = r
	}
}

// WithConfigProvider sets the application's configuration provider.
func WithConfigProvider(p *config.Provider) Option {
	return func(a *App) {
		a.configProvider = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

func WithValidator(v Validator) Option {
	return func(a *App) {
		a.validator = v
	}
}
