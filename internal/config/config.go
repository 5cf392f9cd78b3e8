// Package config loads server settings from an optional TOML file and the
// environment, and resolves where local data lives.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultJWTSecret is only suitable for local development.
const DefaultJWTSecret = "dev-jwt-secret-change-in-production"

const defaultDBName = "folio.db"

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Auth    AuthConfig    `toml:"auth"`
	CORS    CORSConfig    `toml:"cors"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects the database. SQLite files live under DataDir unless
// DBPath names one explicitly; Postgres uses DSN.
type StorageConfig struct {
	Driver  string `toml:"driver"`
	DSN     string `toml:"dsn"`
	DataDir string `toml:"data_dir"`
	DBPath  string `toml:"db_path"`
}

type AuthConfig struct {
	JWTSecret          string `toml:"jwt_secret"`
	AccessTokenTTL     string `toml:"access_token_ttl"`
	RefreshTokenTTL    string `toml:"refresh_token_ttl"`
	RateLimitPerMinute int    `toml:"rate_limit_per_minute"`
}

// AccessTTL returns the access token lifetime.
func (c AuthConfig) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return d
}

// RefreshTTL returns the refresh token lifetime.
func (c AuthConfig) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.RefreshTokenTTL)
	if err != nil {
		return 30 * 24 * time.Hour
	}
	return d
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

type LoggingConfig struct {
	Level         string `toml:"level"`
	Format        string `toml:"format"`
	RetentionDays int    `toml:"retention_days"`
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
		},
		Auth: AuthConfig{
			JWTSecret:          DefaultJWTSecret,
			AccessTokenTTL:     "168h",
			RefreshTokenTTL:    "720h",
			RateLimitPerMinute: 20,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "text",
			RetentionDays: 7,
		},
	}
}

// Load reads the defaults, then each existing file in paths, then the
// environment. Missing files are skipped.
func Load(paths ...string) (*Config, error) {
	cfg := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FOLIO_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FOLIO_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("FOLIO_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("FOLIO_DB_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("FOLIO_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("FOLIO_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("FOLIO_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("FOLIO_ACCESS_TOKEN_TTL"); v != "" {
		cfg.Auth.AccessTokenTTL = v
	}
	if v := os.Getenv("FOLIO_REFRESH_TOKEN_TTL"); v != "" {
		cfg.Auth.RefreshTokenTTL = v
	}
	if v := os.Getenv("FOLIO_CORS_ORIGIN"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("FOLIO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FOLIO_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	for name, value := range map[string]string{
		"auth.access_token_ttl":  c.Auth.AccessTokenTTL,
		"auth.refresh_token_ttl": c.Auth.RefreshTokenTTL,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Auth.RateLimitPerMinute < 0 {
		return errors.New("auth.rate_limit_per_minute must not be negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported logging.format %q", c.Logging.Format)
	}
	return nil
}

// UsesDefaultSecret reports whether the development JWT secret is in effect.
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.JWTSecret == DefaultJWTSecret
}

// DataDir returns the data directory, creating it if needed. Precedence:
// runtime override, storage.data_dir, the platform config directory.
func (c *Config) DataDir() (string, error) {
	dir := runtimeDataDir
	if dir == "" {
		dir = c.Storage.DataDir
	}
	if dir == "" {
		def, err := appConfigDir()
		if err != nil {
			return "", err
		}
		dir = def
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// DBPath returns the SQLite database file path.
func (c *Config) DBPath() (string, error) {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath, nil
	}
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultDBName), nil
}

// LogDir returns the directory for daily log files.
func (c *Config) LogDir() (string, error) {
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// Addr returns host:port for the listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

var runtimeDataDir string

// SetRuntimeDataDir overrides every other data directory source; the
// -data-dir flag uses it.
func SetRuntimeDataDir(dir string) {
	runtimeDataDir = dir
}

func appConfigDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "Folio"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "Folio"), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "folio"), nil
	}
	return filepath.Join(configDir, "folio"), nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
