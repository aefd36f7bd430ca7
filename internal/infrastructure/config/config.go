package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	Server ServerConfig `envconfig:"SERVER"`
	Store  StoreConfig  `envconfig:"STORE"`
	Auth   AuthConfig   `envconfig:"AUTH"`
	Redis  RedisConfig  `envconfig:"REDIS"`
	OTLP   OTLPConfig   `envconfig:"OTEL"`
	Log    LogConfig    `envconfig:"LOG"`
}

type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	// AuthRateLimit is the number of register/login attempts allowed per IP per minute.
	AuthRateLimit int  `envconfig:"AUTH_RATE_LIMIT" default:"20"`
	Production    bool `envconfig:"PRODUCTION" default:"false"`
}

// StoreConfig locates the record store. URL and AccessKey are the database
// endpoint and credential supplied out-of-band.
type StoreConfig struct {
	Driver    string `envconfig:"DRIVER" default:"memory"`
	URL       string `envconfig:"URL"`
	AccessKey string `envconfig:"ACCESS_KEY"`
}

type AuthConfig struct {
	Secret       string        `envconfig:"SECRET" required:"true"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	CookieName   string        `envconfig:"COOKIE_NAME" default:"estoque_session"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"false"`
	Issuer       string        `envconfig:"ISSUER" default:"estoque-api"`
}

// RedisConfig is optional; an empty Addr keeps revocations in process.
type RedisConfig struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

type OTLPConfig struct {
	Enabled     bool   `envconfig:"ENABLED" default:"false"`
	Endpoint    string `envconfig:"EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"estoque-api"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

type LogConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStoreConfig loads only the STORE_* variables. It serves commands such
// as migrate that never start the HTTP server.
func LoadStoreConfig() (*StoreConfig, error) {
	var cfg StoreConfig
	if err := envconfig.Process("STORE", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.URL == "" {
		return nil, errors.New("config: STORE_URL is required")
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.URL == "" {
			return errors.New("config: STORE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if len(c.Auth.Secret) < 16 {
		return errors.New("config: AUTH_SECRET must be at least 16 characters")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("config: AUTH_SESSION_TTL must be positive")
	}
	return nil
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
