package core

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caasmo/notespieces/auth"
	"github.com/caasmo/notespieces/cache"
	"github.com/caasmo/notespieces/cache/ristretto"
	"github.com/caasmo/notespieces/config"
	"github.com/caasmo/notespieces/db"
	"github.com/caasmo/notespieces/notes"
	"github.com/caasmo/notespieces/ratelimit"
	"github.com/caasmo/notespieces/router"
)

// App is the application wide context: the store, the services and the
// infrastructure every handler and middleware needs.
//
// All handlers and middleware have App as receiver.
type App struct {
	db             db.DbApp
	auth           *auth.Service
	notes          *notes.Service
	router         router.Router
	cache          cache.Cache[any]
	configProvider *config.Provider
	logger         *slog.Logger
	validator      Validator

	rateStore   ratelimit.Store
	authLimiter ratelimit.Limiter
	otpLimiter  ratelimit.Limiter
}

func NewApp(opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}

	if a.db == nil {
		return nil, errors.New("db is required but was not provided (use WithDb)")
	}
	if a.configProvider == nil {
		return nil, errors.New("config provider is required but was not provided (use WithConfigProvider)")
	}
	if a.auth == nil {
		return nil, errors.New("auth service is required but was not provided (use WithAuthService)")
	}
	if a.notes == nil {
		a.notes = notes.NewService(a.db)
	}
	if a.router == nil {
		return nil, errors.New("router is required but was not provided (use WithRouter)")
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.validator == nil {
		a.validator = NewValidator()
	}
	if a.cache == nil {
		c, err := ristretto.New[any]("small")
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		a.cache = c
	}

	if err := a.setupLimiters(); err != nil {
		return nil, err
	}
	return a, nil
}

// setupLimiters builds the two sliding windows guarding the auth routes.
// Both share the counter store; keys carry the route name.
func (a *App) setupLimiters() error {
	cfg := a.Config().RateLimit
	if !cfg.Enabled {
		a.authLimiter = ratelimit.Unlimited{}
		a.otpLimiter = ratelimit.Unlimited{}
		return nil
	}

	if a.rateStore == nil {
		c, err := ristretto.New[[]time.Time]("medium")
		if err != nil {
			return fmt.Errorf("failed to create rate limit cache: %w", err)
		}
		a.rateStore = ratelimit.NewCacheStore(c)
	}
	a.authLimiter = ratelimit.NewSlidingWindow(cfg.Auth.Limit, cfg.Auth.Window.Duration, a.rateStore)
	a.otpLimiter = ratelimit.NewSlidingWindow(cfg.Otp.Limit, cfg.Otp.Window.Duration, a.rateStore)
	return nil
}

func (a *App) Router() router.Router {
	return a.router
}

func (a *App) SetRouter(r router.Router) {
	a.router = r
}

func (a *App) Db() db.DbApp {
	return a.db
}

func (a *App) Auth() *auth.Service {
	return a.auth
}

func (a *App) Notes() *notes.Service {
	return a.notes
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) SetLogger(l *slog.Logger) {
	a.logger = l
}

func (a *App) Cache() cache.Cache[any] {
	return a.cache
}

func (a *App) SetCache(c cache.Cache[any]) {
	a.cache = c
}

// Config returns the current configuration. Callers must not keep it
// across requests.
func (a *App) Config() *config.Config {
	return a.configProvider.Get()
}

func (a *App) SetConfigProvider(provider *config.Provider) {
	a.configProvider = provider
}

func (a *App) Validator() Validator {
	return a.validator
}

// Close releases the store.
func (a *App) Close() error {
	return a.db.Close()
}
