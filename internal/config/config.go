package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Storage    StorageConfig    `toml:"storage"`
	Auth       AuthConfig       `toml:"auth"`
	Webhook    WebhookConfig    `toml:"webhook"`
	Summarizer SummarizerConfig `toml:"summarizer"`
	Logging    LoggingConfig    `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ReadTimeoutSec     int      `toml:"read_timeout_sec"`
	WriteTimeoutSec    int      `toml:"write_timeout_sec"`
	ShutdownTimeoutSec int      `toml:"shutdown_timeout_sec"`
}

// StorageConfig contains SQLite settings.
type StorageConfig struct {
	Path string `toml:"path"`
}

// AuthConfig contains session token settings. The dashboard has a single
// operator account, so the credentials live here rather than in the database.
type AuthConfig struct {
	AdminUsername string `toml:"admin_username"`
	AdminPassword string `toml:"admin_password"`
	JWTSecret     string `toml:"jwt_secret"`
	TokenTTLHours int    `toml:"token_ttl_hours"`
	SecureCookies bool   `toml:"secure_cookies"`
}

// WebhookConfig contains ingestion settings.
type WebhookConfig struct {
	// AllowedAgentIDs restricts ingestion to specific voice agents.
	// An empty list admits every agent.
	AllowedAgentIDs []string `toml:"allowed_agent_ids"`
}

// SummarizerConfig contains settings for the background call summarizer.
type SummarizerConfig struct {
	Enabled               bool   `toml:"enabled"`
	OpenAIAPIKey          string `toml:"openai_api_key"`
	Model                 string `toml:"model"`
	IntervalSeconds       int    `toml:"interval_seconds"`
	BatchSize             int    `toml:"batch_size"`
	TimeoutSeconds        int    `toml:"timeout_seconds"`
	RetryMaxAttempts      int    `toml:"retry_max_attempts"`
	RetryInitialBackoffMs int    `toml:"retry_initial_backoff_ms"`
	RetryMaxBackoffMs     int    `toml:"retry_max_backoff_ms"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a configuration with sensible defaults for local use.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			CORSAllowedOrigins: []string{"*"},
			ReadTimeoutSec:     30,
			WriteTimeoutSec:    30,
			ShutdownTimeoutSec: 10,
		},
		Storage: StorageConfig{
			Path: "crisisline.db",
		},
		Auth: AuthConfig{
			AdminUsername: "admin",
			AdminPassword: "Admin@admin",
			JWTSecret:     "change-me-in-production",
			TokenTTLHours: 24,
		},
		Summarizer: SummarizerConfig{
			Enabled:               false,
			Model:                 "gpt-4o-mini",
			IntervalSeconds:       60,
			BatchSize:             10,
			TimeoutSeconds:        30,
			RetryMaxAttempts:      3,
			RetryInitialBackoffMs: 500,
			RetryMaxBackoffMs:     5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the TOML configuration file at path, applying defaults for
// missing values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path must not be empty")
	}
	if c.Auth.AdminUsername == "" || c.Auth.AdminPassword == "" {
		return fmt.Errorf("admin credentials must not be empty")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret must not be empty")
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 24
	}
	if c.Summarizer.Enabled && c.Summarizer.OpenAIAPIKey == "" {
		return fmt.Errorf("summarizer enabled but openai_api_key is empty")
	}
	return nil
}
