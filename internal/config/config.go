// Package config loads server configuration from command-line flags, environment
// variables, and an optional .env file.
package config

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/readlist/readlist-server/internal/auth"
)

// Store drivers.
const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Store     StoreConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// DataConfig holds the on-disk location for the embedded stores and the auth key.
type DataConfig struct {
	BasePath string `env:"DATA_PATH"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER" envDefault:"badger"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"readlist"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port               string        `env:"SERVER_PORT" envDefault:"3001"`
	ReadTimeout        time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout       time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout        time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// AuthConfig holds session token configuration.
type AuthConfig struct {
	TokenFormat   string        `env:"AUTH_TOKEN_FORMAT" envDefault:"paseto"`
	TokenDuration time.Duration `env:"AUTH_TOKEN_DURATION" envDefault:"2h"`
	// TokenKeyHex optionally pins the 32-byte signing key. When empty the key
	// is loaded from (or generated into) the data directory.
	TokenKeyHex string `env:"AUTH_TOKEN_KEY"`
	TokenKey    []byte `env:"-"`
}

// RateLimitConfig bounds per-client request rates on /graphql and the auth endpoints.
type RateLimitConfig struct {
	RequestsPerMinute int `env:"RATE_LIMIT_RPM" envDefault:"120"`
	Burst             int `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// LoadConfig loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fset := flag.NewFlagSet("readlist", flag.ContinueOnError)
	fset.SetOutput(io.Discard)

	envFile := fset.String("env-file", ".env", "Path to .env file")
	fset.String("env", "", "Environment (development, staging, production)")
	fset.String("log-level", "", "Log level (debug, info, warn, error)")
	fset.String("data-path", "", "Directory for embedded stores and the auth key")
	fset.String("store", "", "Store driver (badger, sqlite, mongo)")
	fset.String("mongo-uri", "", "MongoDB connection URI")
	fset.String("port", "", "Server port (default: 3001)")
	fset.String("token-format", "", "Session token format (paseto, jwt)")
	fset.String("token-duration", "", "Session token lifetime (default: 2h)")

	if err := fset.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	var flagErr error
	fset.Visit(func(f *flag.Flag) {
		if flagErr == nil {
			flagErr = cfg.applyFlag(f.Name, f.Value.String())
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Auth.TokenKeyHex != "" {
		key, err := hex.DecodeString(cfg.Auth.TokenKeyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_TOKEN_KEY: %w", err)
		}
		cfg.Auth.TokenKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyFlag(name, value string) error {
	switch name {
	case "env":
		c.App.Environment = value
	case "log-level":
		c.Logger.Level = value
	case "data-path":
		c.Data.BasePath = value
	case "store":
		c.Store.Driver = value
	case "mongo-uri":
		c.Store.MongoURI = value
	case "port":
		c.Server.Port = value
	case "token-format":
		c.Auth.TokenFormat = value
	case "token-duration":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid token duration %q: %w", value, err)
		}
		c.Auth.TokenDuration = d
	}
	return nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Store.Driver {
	case DriverBadger, DriverSQLite:
		if c.Data.BasePath == "" {
			return errors.New("data path cannot be empty for embedded stores")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER is mongo")
		}
	default:
		return fmt.Errorf("invalid store driver: %q (must be badger, sqlite, or mongo)", c.Store.Driver)
	}

	switch c.Auth.TokenFormat {
	case auth.FormatPaseto, auth.FormatJWT:
	default:
		return fmt.Errorf("invalid token format: %q (must be paseto or jwt)", c.Auth.TokenFormat)
	}

	if c.Auth.TokenDuration <= 0 {
		return errors.New("token duration must be positive")
	}
	if c.Auth.TokenKey != nil && len(c.Auth.TokenKey) != auth.KeyLength {
		return fmt.Errorf("token key must be %d bytes, got %d", auth.KeyLength, len(c.Auth.TokenKey))
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}

	if c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit values must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data directory to ~/ReadList/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "ReadList", "data"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}
