package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readlist/readlist-server/internal/auth"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/var/lib/readlist"},
		Store:  StoreConfig{Driver: DriverBadger},
		Server: ServerConfig{
			Port:         "3001",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Auth:      AuthConfig{TokenFormat: auth.FormatPaseto, TokenDuration: 2 * time.Hour},
		RateLimit: RateLimitConfig{RequestsPerMinute: 60, Burst: 10},
	}
}

// noEnvFile points LoadConfig at a path that does not exist so a developer's
// local .env cannot leak into tests.
func noEnvFile(t *testing.T) string {
	t.Helper()
	return "--env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Environments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }, "invalid log level"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "invalid store driver"},
		{"mongo without uri", func(c *Config) { c.Store.Driver = DriverMongo }, "MONGO_URI"},
		{"embedded without path", func(c *Config) { c.Data.BasePath = "" }, "data path"},
		{"unknown token format", func(c *Config) { c.Auth.TokenFormat = "opaque" }, "invalid token format"},
		{"zero token duration", func(c *Config) { c.Auth.TokenDuration = 0 }, "token duration"},
		{"short token key", func(c *Config) { c.Auth.TokenKey = []byte("short") }, "32 bytes"},
		{"zero timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "timeouts"},
		{"zero rate", func(c *Config) { c.RateLimit.Burst = 0 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_TokenFormatsMatchIssuers(t *testing.T) {
	for _, format := range []string{auth.FormatPaseto, auth.FormatJWT} {
		cfg := validConfig()
		cfg.Auth.TokenFormat = format
		require.NoError(t, cfg.Validate(), format)

		_, err := auth.NewIssuer(format, make([]byte, auth.KeyLength), cfg.Auth.TokenDuration)
		require.NoError(t, err, format)
	}

	cfg := validConfig()
	cfg.Auth.TokenKey = make([]byte, auth.KeyLength-1)
	assert.ErrorContains(t, cfg.Validate(), "token key must be 32 bytes")
}

func TestValidate_MongoWithURI(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = DriverMongo
	cfg.Store.MongoURI = "mongodb://localhost:27017"
	cfg.Data.BasePath = ""

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)

	cfg, err := LoadConfig([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, dataDir, cfg.Data.BasePath)
	assert.Equal(t, DriverBadger, cfg.Store.Driver)
	assert.Equal(t, "readlist", cfg.Store.MongoDatabase)
	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, auth.FormatPaseto, cfg.Auth.TokenFormat)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenDuration)
	assert.Nil(t, cfg.Auth.TokenKey)
}

func TestLoadConfig_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("AUTH_TOKEN_FORMAT", "jwt")
	t.Setenv("AUTH_TOKEN_DURATION", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://readlist.app")

	cfg, err := LoadConfig([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, auth.FormatJWT, cfg.Auth.TokenFormat)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenDuration)
	assert.Equal(t, []string{"http://localhost:3000", "https://readlist.app"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoadConfig_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("SERVER_PORT", "4000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig([]string{noEnvFile(t), "--port=5000", "--token-duration=45m"})
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, 45*time.Minute, cfg.Auth.TokenDuration)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	content := strings.Join([]string{
		"# local overrides",
		"DATA_PATH=" + dir,
		"LOG_LEVEL=debug",
		`SERVER_PORT="7000"`,
	}, "\n")
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	// Process environment takes precedence over the file.
	t.Setenv("SERVER_PORT", "8000")

	cfg, err := LoadConfig([]string{"--env-file=" + envPath})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, dir, cfg.Data.BasePath)
}

func TestLoadConfig_TokenKeyFromEnvironment(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("AUTH_TOKEN_KEY", strings.Repeat("ab", 32))

	cfg, err := LoadConfig([]string{noEnvFile(t)})
	require.NoError(t, err)
	assert.Len(t, cfg.Auth.TokenKey, 32)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	_, err := LoadConfig([]string{noEnvFile(t), "--token-duration=soon"})
	assert.ErrorContains(t, err, "invalid token duration")

	_, err = LoadConfig([]string{noEnvFile(t), "--store=cassandra"})
	assert.ErrorContains(t, err, "invalid store driver")

	_, err = LoadConfig([]string{noEnvFile(t), "--no-such-flag"})
	assert.ErrorContains(t, err, "parse flags")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/books", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "books"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("/tmp/../tmp/data", "")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/data", got)

	got, err = expandPath("relative", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}
