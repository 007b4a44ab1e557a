// Package janitor runs the periodic housekeeping of the credential store.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/caasmo/notespieces/config"
)

// Store is the part of the credential store the janitor cleans.
type Store interface {
	ClearExpiredOtps(ctx context.Context, before time.Time) (int, error)
}

// Janitor clears otp records that expired longer than the retention ago.
// Users keep their records; only the stale code is dropped.
type Janitor struct {
	configProvider *config.Provider
	store          Store
	logger         *slog.Logger
	now            func() time.Time

	ctx          context.Context
	cancel       context.CancelFunc
	startOnce    sync.Once
	shutdownDone chan struct{}
}

func New(provider *config.Provider, store Store, logger *slog.Logger) *Janitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Janitor{
		configProvider: provider,
		store:          store,
		logger:         logger,
		now:            time.Now,
		ctx:            ctx,
		cancel:         cancel,
		shutdownDone:   make(chan struct{}),
	}
}

func (j *Janitor) Name() string { return "janitor" }

// Start launches the sweep loop. The interval is read once, at start.
func (j *Janitor) Start() error {
	j.startOnce.Do(func() {
		interval := j.configProvider.Get().Janitor.Interval.Duration
		go func() {
			defer close(j.shutdownDone)
			j.logger.Info("janitor: started", "interval", interval)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-j.ctx.Done():
					return
				case <-ticker.C:
					if _, err := j.Sweep(j.ctx); err != nil {
						j.logger.Error("janitor: sweep failed", "error", err)
					}
				}
			}
		}()
	})
	return nil
}

// Stop ends the loop and waits for a running sweep, or for ctx.
func (j *Janitor) Stop(ctx context.Context) error {
	j.cancel()
	j.startOnce.Do(func() { close(j.shutdownDone) })

	select {
	case <-j.shutdownDone:
		j.logger.Info("janitor: stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("janitor: shutdown timed out: %w", ctx.Err())
	}
}

// Sweep clears the otp records expired before now minus the retention and
// returns how many were cleared.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	retention := j.configProvider.Get().Janitor.OtpRetention.Duration
	cleared, err := j.store.ClearExpiredOtps(ctx, j.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("janitor: failed to clear expired otps: %w", err)
	}
	if cleared > 0 {
		j.logger.Info("janitor: cleared expired otps", "count", cleared)
	}
	return cleared, nil
}
