package notespieces

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/caasmo/notespieces/config"
)

// reloader rereads the configuration file on SIGHUP.
//
// The file and the environment are applied over a copy of the running
// configuration, so keys absent from both keep their value. This matters
// for the generated JWT secrets of a development setup. The listen
// address and the store need a restart and are kept.
type reloader struct {
	provider *config.Provider
	level    *slog.LevelVar
	logger   *slog.Logger
}

func (rl *reloader) Reload() error {
	current := rl.provider.Get()
	if current.Source == "" {
		return errors.New("reload: configuration was not read from a file")
	}

	// the decoder writes into existing slices, they must not be shared
	// with readers of the running configuration
	next := *current
	next.Cors.AllowedOrigins = slices.Clone(current.Cors.AllowedOrigins)
	next.Metrics.AllowedIPs = slices.Clone(current.Metrics.AllowedIPs)
	if err := config.LoadFile(current.Source, &next); err != nil {
		return err
	}
	if err := config.ApplyEnv(&next); err != nil {
		return err
	}
	if err := config.Validate(&next); err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	if next.Server.Addr != current.Server.Addr {
		rl.logger.Warn("server address change needs a restart", "running", current.Server.Addr, "configured", next.Server.Addr)
		next.Server.Addr = current.Server.Addr
	}
	if next.Db != current.Db {
		rl.logger.Warn("db change needs a restart")
		next.Db = current.Db
	}

	if rl.level != nil {
		rl.level.Set(next.Log.SlogLevel())
	}
	rl.provider.Update(&next)
	return nil
}
