// Package server runs the HTTP server and the background daemons, and
// shuts both down gracefully on SIGINT or SIGTERM. SIGHUP reloads the
// configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caasmo/notespieces/config"
	"golang.org/x/sync/errgroup"
)

// Daemon is a background process living as long as the server.
type Daemon interface {
	Name() string
	Start() error
	Stop(ctx context.Context) error
}

type Server struct {
	configProvider *config.Provider
	handler        http.Handler
	logger         *slog.Logger
	reload         func() error
	daemons        []Daemon

	ready chan struct{}
	addr  net.Addr
}

// NewServer creates the server. reload is called on SIGHUP, it may be nil.
func NewServer(provider *config.Provider, handler http.Handler, logger *slog.Logger, reload func() error) *Server {
	return &Server{
		configProvider: provider,
		handler:        handler,
		logger:         logger,
		reload:         reload,
		ready:          make(chan struct{}),
	}
}

func (s *Server) AddDaemon(d Daemon) {
	s.daemons = append(s.daemons, d)
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is the bound address, valid after Ready.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Run serves until ctx is done, a termination signal arrives or the
// listener fails. A nil error means the shutdown was clean.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.configProvider.Get().Server

	s.logger.Info("server configuration",
		"addr", cfg.Addr,
		"env", cfg.Env,
		"read_timeout", cfg.ReadTimeout.Duration,
		"read_header_timeout", cfg.ReadHeaderTimeout.Duration,
		"write_timeout", cfg.WriteTimeout.Duration,
		"idle_timeout", cfg.IdleTimeout.Duration,
		"shutdown_timeout", cfg.ShutdownGracefulTimeout.Duration,
	)

	started, err := s.startDaemons()
	if err != nil {
		s.stopDaemons(started, cfg)
		return err
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		s.stopDaemons(started, cfg)
		return fmt.Errorf("server: failed to listen on %s: %w", cfg.Addr, err)
	}
	s.addr = ln.Addr()
	close(s.ready)

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       cfg.ReadTimeout.Duration,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration,
		WriteTimeout:      cfg.WriteTimeout.Duration,
		IdleTimeout:       cfg.IdleTimeout.Duration,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	serverError := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.addr.String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var runErr error
wait:
	for {
		select {
		case <-sigCtx.Done():
			s.logger.Info("shutdown requested")
			break wait
		case err := <-serverError:
			s.logger.Error("http server failed, shutting down", "error", err)
			runErr = fmt.Errorf("server: %w", err)
			break wait
		case <-hup:
			s.handleReload()
		}
	}

	if err := s.shutdown(srv, started, cfg); err != nil && runErr == nil {
		runErr = err
	}
	if runErr == nil {
		s.logger.Info("all systems stopped gracefully")
	}
	return runErr
}

func (s *Server) handleReload() {
	if s.reload == nil {
		s.logger.Info("SIGHUP received, no reload configured")
		return
	}
	if err := s.reload(); err != nil {
		s.logger.Error("configuration reload failed, keeping the current one", "error", err)
		return
	}
	s.logger.Info("configuration reloaded")
}

// startDaemons starts the daemons in order and returns the ones running.
func (s *Server) startDaemons() ([]Daemon, error) {
	started := make([]Daemon, 0, len(s.daemons))
	for _, d := range s.daemons {
		if err := d.Start(); err != nil {
			return started, fmt.Errorf("server: failed to start %s: %w", d.Name(), err)
		}
		s.logger.Info("daemon started", "daemon", d.Name())
		started = append(started, d)
	}
	return started, nil
}

func (s *Server) stopDaemons(daemons []Daemon, cfg config.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracefulTimeout.Duration)
	defer cancel()
	for _, d := range daemons {
		if err := d.Stop(ctx); err != nil {
			s.logger.Error("daemon stop failed", "daemon", d.Name(), "error", err)
		}
	}
}

// shutdown stops the http server and the daemons concurrently, all
// bounded by the graceful timeout.
func (s *Server) shutdown(srv *http.Server, daemons []Daemon, cfg config.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracefulTimeout.Duration)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Shutdown(gctx); err != nil {
			return fmt.Errorf("server: http shutdown: %w", err)
		}
		return nil
	})
	for _, d := range daemons {
		g.Go(func() error {
			if err := d.Stop(gctx); err != nil {
				return fmt.Errorf("server: stopping %s: %w", d.Name(), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("error during shutdown", "error", err)
		return err
	}
	return nil
}
