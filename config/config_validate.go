package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/caasmo/notespieces/crypto"
)

func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	if err := validateDb(&cfg.Db); err != nil {
		return fmt.Errorf("db config validation failed: %w", err)
	}
	if err := validateJwt(&cfg.Jwt); err != nil {
		return fmt.Errorf("jwt config validation failed: %w", err)
	}
	if err := validateOtp(&cfg.Otp); err != nil {
		return fmt.Errorf("otp config validation failed: %w", err)
	}
	if err := validateRateLimit(&cfg.RateLimit); err != nil {
		return fmt.Errorf("rate limit config validation failed: %w", err)
	}
	if err := validateCors(&cfg.Cors); err != nil {
		return fmt.Errorf("cors config validation failed: %w", err)
	}
	if err := validateSmtp(&cfg.Smtp); err != nil {
		return fmt.Errorf("smtp config validation failed: %w", err)
	}
	if err := validateBlockIp(&cfg.BlockIp); err != nil {
		return fmt.Errorf("block ip config validation failed: %w", err)
	}
	if cfg.Throttle.Enabled && (cfg.Throttle.RequestsPerSecond <= 0 || cfg.Throttle.Burst < 1) {
		return errors.New("throttle requires a positive rate and burst")
	}
	if cfg.Metrics.Enabled && len(cfg.Metrics.AllowedIPs) == 0 {
		return errors.New("metrics enabled without allowed ips")
	}
	if cfg.Janitor.Interval.Duration <= 0 {
		return errors.New("janitor interval must be positive")
	}
	return nil
}

// validateServer checks the Server configuration section.
// It ensures the Addr field is not empty and contains a valid host:port or :port format.
// An empty host (":8080") listens on all interfaces.
func validateServer(server *Server) error {
	if server.Addr == "" {
		return fmt.Errorf("server address (Addr) cannot be empty")
	}

	host, port, err := net.SplitHostPort(server.Addr)
	if err != nil {
		return fmt.Errorf("invalid server address format '%s': %w", server.Addr, err)
	}
	if port == "" {
		return fmt.Errorf("server address '%s' must include a port", server.Addr)
	}
	if _, err := net.LookupPort("tcp", port); err != nil {
		return fmt.Errorf("invalid port '%s' in server address '%s': %w", port, server.Addr, err)
	}
	server.Addr = net.JoinHostPort(host, port)

	switch server.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("unknown env %q, want %q or %q", server.Env, EnvDevelopment, EnvProduction)
	}

	if server.ShutdownGracefulTimeout.Duration <= 0 {
		return errors.New("shutdown graceful timeout must be positive")
	}
	return nil
}

func validateLog(l *Log) error {
	switch l.Format {
	case LogFormatJson, LogFormatText:
	default:
		return fmt.Errorf("unknown log format %q", l.Format)
	}
	return nil
}

func validateDb(d *Db) error {
	switch d.Driver {
	case DbDriverSqlite:
		if d.SqlitePath == "" {
			return errors.New("sqlite path cannot be empty")
		}
		if d.PoolSize < 1 {
			return errors.New("sqlite pool size must be at least 1")
		}
	case DbDriverMongo:
		if d.MongoURI == "" {
			return errors.New("mongo uri cannot be empty")
		}
		if d.MongoDatabase == "" {
			return errors.New("mongo database cannot be empty")
		}
	default:
		return fmt.Errorf("unknown db driver %q", d.Driver)
	}
	return nil
}

func validateJwt(j *Jwt) error {
	if len(j.AccessSecret) < crypto.MinKeyLength {
		return fmt.Errorf("access secret must be at least %d bytes", crypto.MinKeyLength)
	}
	if len(j.RefreshSecret) < crypto.MinKeyLength {
		return fmt.Errorf("refresh secret must be at least %d bytes", crypto.MinKeyLength)
	}
	if j.AccessSecret == j.RefreshSecret {
		return errors.New("access and refresh secrets must differ")
	}
	if j.AccessTokenDuration.Duration <= 0 || j.RefreshTokenDuration.Duration <= 0 {
		return errors.New("token durations must be positive")
	}
	if j.RefreshTokenDuration.Duration < j.AccessTokenDuration.Duration {
		return errors.New("refresh token must not expire before the access token")
	}
	if j.Issuer == "" || j.Audience == "" {
		return errors.New("issuer and audience cannot be empty")
	}
	if j.Leeway.Duration < 0 {
		return errors.New("leeway cannot be negative")
	}
	return nil
}

func validateOtp(o *Otp) error {
	if o.Length < 4 || o.Length > 10 {
		return fmt.Errorf("otp length %d out of range [4,10]", o.Length)
	}
	if o.TTL.Duration <= 0 {
		return errors.New("otp ttl must be positive")
	}
	if o.Cooldown.Duration < 0 {
		return errors.New("otp cooldown cannot be negative")
	}
	return nil
}

func validateRateLimit(r *RateLimit) error {
	if !r.Enabled {
		return nil
	}
	for name, w := range map[string]Window{"auth": r.Auth, "otp": r.Otp} {
		if w.Limit < 1 || w.Window.Duration <= 0 {
			return fmt.Errorf("%s window needs a positive limit and duration", name)
		}
	}
	return nil
}

func validateCors(c *Cors) error {
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			return errors.New("wildcard origin cannot be used with credentials")
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid origin %q", origin)
		}
		if strings.TrimSuffix(origin, "/") != u.Scheme+"://"+u.Host {
			return fmt.Errorf("origin %q must not carry a path", origin)
		}
	}
	return nil
}

func validateSmtp(s *Smtp) error {
	if !s.Enabled {
		return nil
	}
	if s.Host == "" || s.Port == 0 {
		return errors.New("smtp host and port are required when smtp is enabled")
	}
	if s.FromAddress == "" {
		return errors.New("smtp from address is required when smtp is enabled")
	}
	if s.Timeout.Duration <= 0 {
		return errors.New("smtp timeout must be positive")
	}
	return nil
}

func validateBlockIp(b *BlockIp) error {
	if !b.Enabled {
		return nil
	}
	switch b.Level {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("unknown block ip level %q", b.Level)
	}
	if b.ActivationRPS < 1 {
		return errors.New("activation rps must be positive")
	}
	return nil
}
