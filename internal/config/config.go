// Package config loads the Atlas server configuration from an optional YAML
// file overlaid with ATLAS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the top-level Atlas configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr         string        `yaml:"addr" env:"ATLAS_ADDR" env-default:":8008"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"ATLAS_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"ATLAS_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"ATLAS_IDLE_TIMEOUT" env-default:"60s"`

	// Browser origins allowed to call the API with credentials and to open
	// the websocket. Same-origin requests need no entry.
	AllowedOrigins []string `yaml:"allowed_origins" env:"ATLAS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path     string `yaml:"path" env:"ATLAS_DB_PATH" env-default:"atlas.db"`
	LogLevel string `yaml:"log_level" env:"ATLAS_DB_LOG_LEVEL" env-default:"warn"` // silent, error, warn, info
}

// AuthConfig controls session tokens.
type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"development-insecure-secret-change-me"`
	Issuer       string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"atlas"`
	Audience     string        `yaml:"audience" env:"JWT_AUDIENCE" env-default:"atlas-clients"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"ATLAS_TOKEN_TTL" env-default:"24h"`
	SecureCookie bool          `yaml:"secure_cookie" env:"ATLAS_SECURE_COOKIE" env-default:"false"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"ATLAS_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"ATLAS_LOG_FORMAT" env-default:"text"` // text or json
}

// DefaultJWTSecret is the signing key used when none is configured. It is
// public, so it is only fit for local development.
const DefaultJWTSecret = "development-insecure-secret-change-me"

// ErrInsecureSecret is returned when a deployment that asks for secure
// cookies still signs tokens with DefaultJWTSecret.
var ErrInsecureSecret = errors.New("jwt secret is the development default")

// InsecureSecret reports whether tokens would be signed with DefaultJWTSecret.
func (c *Config) InsecureSecret() bool {
	return c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DefaultJWTSecret
}

// Validate rejects settings that are unsafe together.
func (c *Config) Validate() error {
	if c.Auth.SecureCookie && c.InsecureSecret() {
		return fmt.Errorf("%w: set JWT_SECRET when secure_cookie is on", ErrInsecureSecret)
	}
	return nil
}

// Load reads the config file at path when it exists, then applies the
// environment. An empty path or a missing file means environment only. The
// result is checked with Validate.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
		return validated(&cfg)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	}
	return validated(&cfg)
}

func validated(cfg *Config) (*Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
