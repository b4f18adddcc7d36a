package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quizkit/adapters/redis"
	"quizkit/adapters/sqlx"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds the complete application configuration
type Config struct {
	// Environment and profile settings
	Environment Environment `json:"environment" env:"QUIZKIT_ENV"`
	Profile     string      `json:"profile" env:"QUIZKIT_PROFILE"`

	// Server configuration
	Server ServerConfig `json:"server"`

	// Leaderboard storage configuration
	Storage StorageConfig `json:"storage"`

	// Game catalog configuration
	Catalog CatalogConfig `json:"catalog"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Security configuration
	Security SecurityConfig `json:"security"`

	// Webhook integration configuration
	Webhooks WebhookConfig `json:"webhooks"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address           string        `json:"address" env:"QUIZKIT_SERVER_ADDR"`
	PathPrefix        string        `json:"path_prefix" env:"QUIZKIT_SERVER_PATH_PREFIX"`
	CORSOrigin        string        `json:"cors_origin" env:"QUIZKIT_SERVER_CORS_ORIGIN"`
	ReadTimeout       time.Duration `json:"read_timeout" env:"QUIZKIT_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"write_timeout" env:"QUIZKIT_SERVER_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idle_timeout" env:"QUIZKIT_SERVER_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" env:"QUIZKIT_SERVER_READ_HEADER_TIMEOUT"`
	RequestTimeout    time.Duration `json:"request_timeout" env:"QUIZKIT_SERVER_REQUEST_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" env:"QUIZKIT_SERVER_SHUTDOWN_TIMEOUT"`
}

// StorageConfig selects and configures the leaderboard backend
type StorageConfig struct {
	Adapter  string       `json:"adapter" env:"QUIZKIT_STORAGE_ADAPTER"`
	Redis    redis.Config `json:"redis,omitempty"`
	Snapshot FileConfig   `json:"snapshot,omitempty"`
}

// FileConfig holds JSON snapshot configuration for the in-process store
type FileConfig struct {
	Path     string        `json:"path" env:"QUIZKIT_STORAGE_SNAPSHOT_PATH"`
	Interval time.Duration `json:"interval" env:"QUIZKIT_STORAGE_SNAPSHOT_INTERVAL"`
}

// GameSeed describes a catalog entry created at startup
type GameSeed struct {
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// CatalogConfig selects and configures the game catalog backend
type CatalogConfig struct {
	Adapter string      `json:"adapter" env:"QUIZKIT_CATALOG_ADAPTER"`
	SQL     sqlx.Config `json:"sql,omitempty"`
	Seed    []GameSeed  `json:"seed,omitempty"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string            `json:"level" env:"QUIZKIT_LOG_LEVEL"`
	Format     string            `json:"format" env:"QUIZKIT_LOG_FORMAT"`
	Output     string            `json:"output" env:"QUIZKIT_LOG_OUTPUT"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableRateLimit bool            `json:"enable_rate_limit" env:"QUIZKIT_SECURITY_RATE_LIMIT_ENABLED"`
	RateLimit       RateLimitConfig `json:"rate_limit,omitempty"`
	AdminAPIKeys    []string        `json:"admin_api_keys,omitempty" env:"QUIZKIT_SECURITY_ADMIN_API_KEYS"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" env:"QUIZKIT_SECURITY_RATE_LIMIT_RPM"`
	BurstSize         int `json:"burst_size" env:"QUIZKIT_SECURITY_RATE_LIMIT_BURST"`
}

// WebhookConfig holds webhook sink configuration
type WebhookConfig struct {
	Endpoints []string `json:"endpoints,omitempty" env:"QUIZKIT_WEBHOOK_ENDPOINTS"`
	Secret    string   `json:"secret,omitempty" env:"QUIZKIT_WEBHOOK_SECRET"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validateConfigPath validates that the config file path is safe
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	if !strings.HasSuffix(strings.ToLower(cleanPath), ".json") {
		return errors.New("config file must have .json extension")
	}

	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	file, err := os.Open(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Environment variables override file values
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		Server: ServerConfig{
			Address:           ":8080",
			PathPrefix:        "/api",
			CORSOrigin:        "*",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			RequestTimeout:    5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Storage: StorageConfig{
			Adapter: "memory",
			Redis:   redis.DefaultConfig(),
			Snapshot: FileConfig{
				Path:     "",
				Interval: time.Minute,
			},
		},
		Catalog: CatalogConfig{
			Adapter: "memory",
			SQL:     sqlx.DefaultConfig(sqlx.DriverPostgres),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			EnableRateLimit: false,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				BurstSize:         10,
			},
			AdminAPIKeys: []string{},
		},
		Webhooks: WebhookConfig{},
	}
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errs []string

	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}
	if err := c.Catalog.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("catalog config: %v", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}
	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// String returns a JSON representation of the config (with secrets redacted)
func (c *Config) String() string {
	cfg := *c

	if cfg.Catalog.SQL.DSN != "" {
		cfg.Catalog.SQL.DSN = "[REDACTED]"
	}
	if cfg.Storage.Redis.Password != "" {
		cfg.Storage.Redis.Password = "[REDACTED]"
	}
	if cfg.Webhooks.Secret != "" {
		cfg.Webhooks.Secret = "[REDACTED]"
	}
	if len(cfg.Security.AdminAPIKeys) > 0 {
		cfg.Security.AdminAPIKeys = []string{"[REDACTED]"}
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
