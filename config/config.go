package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DbDriverSqlite = "sqlite"
	DbDriverMongo  = "mongo"

	LogFormatJson = "json"
	LogFormatText = "text"
)

// Duration wraps time.Duration so it can be read from TOML strings
// ("15m", "30s") and from environment variables.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Server    Server
	Log       Log
	Db        Db
	Jwt       Jwt
	Otp       Otp
	RateLimit RateLimit
	Cookie    Cookie
	Cors      Cors
	Google    Google
	Smtp      Smtp
	BlockIp   BlockIp
	Throttle  Throttle
	Janitor   Janitor
	Metrics   Metrics

	// Source is the file the configuration was read from, empty for defaults.
	Source string `toml:"-"`
}

type Server struct {
	Addr string `env:"APP_ADDR"`

	// Env is "development" or "production". It drives cookie security
	// and whether internal error detail reaches the client.
	Env string `env:"APP_ENV"`

	ShutdownGracefulTimeout Duration
	ReadTimeout             Duration
	ReadHeaderTimeout       Duration
	WriteTimeout            Duration
	IdleTimeout             Duration

	// ClientIpProxyHeader is the header carrying the client ip when running
	// behind a reverse proxy, for example "X-Forwarded-For". Empty means
	// the remote address of the connection is used.
	ClientIpProxyHeader string `env:"APP_CLIENT_IP_HEADER"`
}

func (s Server) IsProduction() bool {
	return s.Env == EnvProduction
}

type Log struct {
	Level   string `env:"LOG_LEVEL"`
	Format  string `env:"LOG_FORMAT"`
	Request LogRequest
}

// SlogLevel returns the slog level for Level, defaulting to info.
func (l Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type LogRequest struct {
	Activated bool
	// Limits for logged string fields, longer values are truncated.
	URILength       int
	UserAgentLength int
}

type Db struct {
	Driver string `env:"DB_DRIVER"`

	SqlitePath string `env:"SQLITE_PATH"`
	PoolSize   int

	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE"`
	Timeout       Duration
}

type Jwt struct {
	AccessSecret         string `env:"JWT_ACCESS_SECRET"`
	AccessTokenDuration  Duration
	RefreshSecret        string `env:"JWT_REFRESH_SECRET"`
	RefreshTokenDuration Duration
	Issuer               string
	Audience             string
	Leeway               Duration
}

type Otp struct {
	Length   int
	TTL      Duration
	Cooldown Duration
}

// RateLimit holds the sliding window settings per guarded route group.
type RateLimit struct {
	Enabled bool
	// Auth guards signup, signin, google flows, refresh and check-user.
	Auth Window
	// Otp guards the verification and resend endpoints.
	Otp Window
}

type Window struct {
	Limit  int
	Window Duration
}

type Cookie struct {
	Domain string `env:"COOKIE_DOMAIN"`
}

type Cors struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MaxAge         Duration
}

type Google struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	CertsURL     string
	UserInfoURL  string
	Timeout      Duration
}

func (g Google) Enabled() bool {
	return g.ClientID != ""
}

type Smtp struct {
	Enabled     bool   `env:"SMTP_ENABLED"`
	Host        string `env:"SMTP_HOST"`
	Port        int    `env:"SMTP_PORT"`
	Username    string `env:"SMTP_USERNAME"`
	Password    string `env:"SMTP_PASSWORD"`
	FromName    string
	FromAddress string `env:"SMTP_FROM"`
	UseTLS      bool
	Timeout     Duration
	AppName     string
	AppURL      string `env:"APP_URL"`
}

// BlockIp configures the heavy hitter ip blocker that runs before routing.
type BlockIp struct {
	Enabled bool
	// Level selects the sketch size: "low", "medium" or "high".
	Level         string
	ActivationRPS int
	BlockDuration Duration
}

// Throttle is the global per ip token bucket applied to every request.
type Throttle struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// Metrics exposes prometheus counters on /metrics to the listed client ips.
type Metrics struct {
	Enabled    bool
	AllowedIPs []string `env:"METRICS_ALLOWED_IPS" envSeparator:","`
}

type Janitor struct {
	Interval     Duration
	OtpRetention Duration
}

func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "env=%s addr=%s db=%s", c.Server.Env, c.Server.Addr, c.Db.Driver)
	if c.Source != "" {
		fmt.Fprintf(&b, " source=%s", c.Source)
	}
	return b.String()
}

// Provider holds the current configuration. Readers call Get on every use
// so a new configuration becomes visible without restarting.
type Provider struct {
	value atomic.Pointer[Config]
}

func NewProvider(cfg *Config) *Provider {
	if cfg == nil {
		panic("config cannot be nil")
	}
	p := &Provider{}
	p.value.Store(cfg)
	return p
}

func (p *Provider) Get() *Config {
	return p.value.Load()
}

func (p *Provider) Update(cfg *Config) {
	if cfg == nil {
		panic("config cannot be nil")
	}
	p.value.Store(cfg)
}
