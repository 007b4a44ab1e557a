package config

import (
	"time"

	"github.com/caasmo/notespieces/crypto"
)

// NewDefaultConfig creates a Config usable for local development.
// JWT secrets are randomly generated, so sessions do not survive a restart
// unless secrets are provided through the file or the environment.
func NewDefaultConfig() *Config {
	return &Config{
		Server: Server{
			Addr:                    ":8080",
			Env:                     EnvDevelopment,
			ShutdownGracefulTimeout: Duration{Duration: 15 * time.Second},
			ReadTimeout:             Duration{Duration: 5 * time.Second},
			ReadHeaderTimeout:       Duration{Duration: 2 * time.Second},
			WriteTimeout:            Duration{Duration: 20 * time.Second},
			IdleTimeout:             Duration{Duration: 1 * time.Minute},
		},
		Log: Log{
			Level:  "info",
			Format: LogFormatJson,
			Request: LogRequest{
				Activated:       true,
				URILength:       512,
				UserAgentLength: 256,
			},
		},
		Db: Db{
			Driver:        DbDriverSqlite,
			SqlitePath:    "notespieces.db",
			PoolSize:      8,
			MongoDatabase: "notespieces",
			Timeout:       Duration{Duration: 5 * time.Second},
		},
		Jwt: Jwt{
			AccessSecret:         crypto.RandomString(48, crypto.AlphanumericAlphabet),
			AccessTokenDuration:  Duration{Duration: 7 * 24 * time.Hour},
			RefreshSecret:        crypto.RandomString(48, crypto.AlphanumericAlphabet),
			RefreshTokenDuration: Duration{Duration: 30 * 24 * time.Hour},
			Issuer:               "notespieces",
			Audience:             "notespieces-users",
			Leeway:               Duration{Duration: 30 * time.Second},
		},
		Otp: Otp{
			Length:   6,
			TTL:      Duration{Duration: 10 * time.Minute},
			Cooldown: Duration{Duration: 30 * time.Second},
		},
		RateLimit: RateLimit{
			Enabled: true,
			Auth:    Window{Limit: 20, Window: Duration{Duration: 15 * time.Minute}},
			Otp:     Window{Limit: 10, Window: Duration{Duration: 15 * time.Minute}},
		},
		Cors: Cors{
			AllowedOrigins: []string{"http://localhost:5173"},
			MaxAge:         Duration{Duration: 10 * time.Minute},
		},
		Google: Google{
			CertsURL:    "https://www.googleapis.com/oauth2/v3/certs",
			UserInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
			Timeout:     Duration{Duration: 10 * time.Second},
		},
		Smtp: Smtp{
			Enabled:     false,
			Port:        587,
			FromName:    "Notes",
			FromAddress: "no-reply@localhost",
			UseTLS:      false,
			Timeout:     Duration{Duration: 10 * time.Second},
			AppName:     "Notes",
			AppURL:      "http://localhost:5173",
		},
		BlockIp: BlockIp{
			Enabled:       true,
			Level:         "medium",
			ActivationRPS: 1000,
			BlockDuration: Duration{Duration: 10 * time.Minute},
		},
		Throttle: Throttle{
			Enabled:           true,
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Janitor: Janitor{
			Interval:     Duration{Duration: 1 * time.Hour},
			OtpRetention: Duration{Duration: 24 * time.Hour},
		},
		Metrics: Metrics{
			Enabled:    false,
			AllowedIPs: []string{"127.0.0.1"},
		},
	}
}
