// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Session modes.
const (
	SessionModeCookie = "cookie"
	SessionModeServer = "server"
)

// Session backends used when SessionMode is SessionModeServer.
const (
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

// EnvProduction is the PORTAL_ENV value that turns on Secure cookies and JSON logs.
const EnvProduction = "production"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr      string        `env:"PORTAL_LISTEN_ADDR"      env-default:"127.0.0.1:8080"`
	UpstreamBaseURL string        `env:"INTERNAL_API_BASE_URL"   env-default:"http://18.219.129.190:8080"`
	UpstreamTimeout time.Duration `env:"PORTAL_UPSTREAM_TIMEOUT" env-default:"15s"`
	Env             string        `env:"PORTAL_ENV"              env-default:"development"`
	LogLevel        string        `env:"PORTAL_LOG_LEVEL"        env-default:"info"`

	Session SessionConfig
	Redis   RedisConfig
}

// SessionConfig controls how the login credential is kept between requests.
type SessionConfig struct {
	Mode          string        `env:"PORTAL_SESSION_MODE"           env-default:"cookie"`
	Backend       string        `env:"PORTAL_SESSION_BACKEND"        env-default:"sqlite"`
	TTL           time.Duration `env:"PORTAL_SESSION_TTL"            env-default:"12h"`
	SweepInterval time.Duration `env:"PORTAL_SESSION_SWEEP_INTERVAL" env-default:"10m"`
	DBPath        string        `env:"PORTAL_DB_PATH"                env-default:"portal.db"`
	SecretKey     string        `env:"PORTAL_SECRET_KEY"`
}

// RedisConfig holds the connection settings for the redis session backend.
type RedisConfig struct {
	Addr     string `env:"PORTAL_REDIS_ADDR"     env-default:"127.0.0.1:6379"`
	Password string `env:"PORTAL_REDIS_PASSWORD"`
	DB       int    `env:"PORTAL_REDIS_DB"       env-default:"0"`
}

// IsProduction reports whether the process runs in a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// ServerSessions reports whether credentials are kept server-side behind an
// opaque session id instead of travelling in the cookie.
func (c *Config) ServerSessions() bool {
	return c.Session.Mode == SessionModeServer
}

// SecretKeyBytes decodes PORTAL_SECRET_KEY. Returns nil when unset.
func (c *Config) SecretKeyBytes() []byte {
	if c.Session.SecretKey == "" {
		return nil
	}
	key, err := hex.DecodeString(c.Session.SecretKey)
	if err != nil {
		return nil
	}
	return key
}

// Load reads an optional .env file, then environment variables, and returns a
// validated Config. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints that env tags cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.UpstreamBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("INTERNAL_API_BASE_URL must be an absolute http(s) URL, got %q", c.UpstreamBaseURL)
	}

	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("PORTAL_UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("PORTAL_LOG_LEVEL has invalid value %q", c.LogLevel)
	}

	switch c.Session.Mode {
	case SessionModeCookie:
		return nil
	case SessionModeServer:
	default:
		return fmt.Errorf("PORTAL_SESSION_MODE must be %q or %q, got %q", SessionModeCookie, SessionModeServer, c.Session.Mode)
	}

	switch c.Session.Backend {
	case SessionBackendSQLite, SessionBackendRedis:
	default:
		return fmt.Errorf("PORTAL_SESSION_BACKEND must be %q or %q, got %q", SessionBackendSQLite, SessionBackendRedis, c.Session.Backend)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("PORTAL_SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("PORTAL_SESSION_SWEEP_INTERVAL must be positive, got %s", c.Session.SweepInterval)
	}

	if len(c.SecretKeyBytes()) != 32 {
		return errors.New("PORTAL_SECRET_KEY must be 64 hex characters (32 bytes) when PORTAL_SESSION_MODE=server")
	}

	return nil
}
