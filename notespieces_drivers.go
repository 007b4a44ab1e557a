package notespieces

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caasmo/notespieces/config"
	"github.com/caasmo/notespieces/db"
	"github.com/caasmo/notespieces/db/mongo"
	"github.com/caasmo/notespieces/db/zombiezen"
	"github.com/caasmo/notespieces/google"
	"github.com/caasmo/notespieces/mail"
)

// OpenDb opens the store selected by cfg.Driver and applies its schema
// or indexes.
func OpenDb(ctx context.Context, cfg config.Db) (db.DbApp, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout.Duration)
	defer cancel()

	switch cfg.Driver {
	case config.DbDriverSqlite:
		d, err := zombiezen.Open(ctx, cfg.SqlitePath, cfg.PoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return d, nil
	case config.DbDriverMongo:
		d, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to open mongo store: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

// NewMailer returns the SMTP mailer when [Smtp] is enabled. Otherwise
// codes are only logged, which is what development needs.
func NewMailer(provider *config.Provider, logger *slog.Logger) (mail.Sender, error) {
	if !provider.Get().Smtp.Enabled {
		logger.Warn("smtp disabled, one time codes are written to the log")
		return mail.NewLogMailer(logger), nil
	}
	m, err := mail.New(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailer: %w", err)
	}
	return m, nil
}

func NewGoogleVerifier(cfg config.Google) (*google.Verifier, error) {
	v, err := google.NewVerifier(google.Config{
		ClientID:    cfg.ClientID,
		CertsURL:    cfg.CertsURL,
		UserInfoURL: cfg.UserInfoURL,
		Timeout:     cfg.Timeout.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google verifier: %w", err)
	}
	return v, nil
}
