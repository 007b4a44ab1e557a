// Package notespieces wires the note taking backend: the store, the auth
// and notes services, the request pipeline and the server with its
// daemons.
package notespieces

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/caasmo/notespieces/auth"
	"github.com/caasmo/notespieces/config"
	"github.com/caasmo/notespieces/core"
	"github.com/caasmo/notespieces/core/proxy"
	"github.com/caasmo/notespieces/janitor"
	"github.com/caasmo/notespieces/server"
	"github.com/prometheus/client_golang/prometheus"
)

// New creates the App and the Server from the configuration held by
// provider. Components not given through opts are built from the
// configuration: the store from [Db], the mailer from [Smtp], the google
// verifier from [Google] and the logger from [Log].
func New(ctx context.Context, provider *config.Provider, opts ...Option) (*core.App, *server.Server, error) {
	cfg := provider.Get()

	s := &settings{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.level = new(slog.LevelVar)
		s.level.Set(cfg.Log.SlogLevel())
		s.logger = NewLogger(os.Stderr, cfg.Log.Format, s.level)
	}

	if s.db == nil {
		store, err := OpenDb(ctx, cfg.Db)
		if err != nil {
			return nil, nil, err
		}
		s.db = store
	}

	if s.mailer == nil {
		mailer, err := NewMailer(provider, s.logger)
		if err != nil {
			s.db.Close()
			return nil, nil, err
		}
		s.mailer = mailer
	}

	if s.google == nil && cfg.Google.Enabled() {
		verifier, err := NewGoogleVerifier(cfg.Google)
		if err != nil {
			s.db.Close()
			return nil, nil, err
		}
		s.google = verifier
	}

	tokens := auth.NewTokens(provider)
	authService := auth.NewService(s.db, tokens, s.mailer, s.google, provider, s.logger)

	coreOpts := []core.Option{
		core.WithConfigProvider(provider),
		core.WithDb(s.db),
		core.WithAuthService(authService),
		core.WithLogger(s.logger),
		core.WithRouter(s.router()),
	}
	coreOpts = append(coreOpts, s.coreOpts...)

	app, err := core.NewApp(coreOpts...)
	if err != nil {
		s.db.Close()
		return nil, nil, fmt.Errorf("failed to initialize core app: %w", err)
	}
	app.RegisterRoutes()

	px, err := proxy.New(app, s.registerer)
	if err != nil {
		app.Close()
		return nil, nil, fmt.Errorf("failed to initialize proxy: %w", err)
	}

	rl := &reloader{provider: provider, level: s.level, logger: s.logger}
	srv := server.NewServer(provider, px, s.logger, rl.Reload)
	srv.AddDaemon(janitor.New(provider, app.Db(), s.logger))

	s.logger.Info("application initialized", "config", cfg.String())
	return app, srv, nil
}
