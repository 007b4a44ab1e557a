package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/caasmo/notespieces"
	"github.com/caasmo/notespieces/config"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to the TOML configuration file (optional)")
	envPath := flag.String("env", ".env", "dotenv file loaded before the environment is read, ignored if missing")
	flag.Parse()

	if err := run(*configPath, *envPath); err != nil {
		slog.Error("notespieces stopped", "error", err)
		os.Exit(1)
	}
}

func run(configPath, envPath string) error {
	// variables already set in the environment win over the file
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	app, srv, err := notespieces.New(ctx, config.NewProvider(cfg))
	if err != nil {
		return err
	}
	defer app.Close()

	return srv.Run(ctx)
}
