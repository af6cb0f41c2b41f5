// Package config handles application configuration and environment loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Config holds configuration for the compiler CLI and the conversation
// history store.
type Config struct {
	SchemaDir         string // directory of cube declaration YAML files (default "./schemas")
	RequirePrimaryKey bool   // treat zero-primary-key cubes as a load error
	LogLevel          string // log level: debug, info, warn, error (default "info")

	// Conversation history store (separate subsystem; unused by the compiler).
	HistoryDriver string // "sqlite3" or "postgres"
	HistoryDSN    string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

// ValidateHistory checks that the history store configuration is usable.
func (c *Config) ValidateHistory() error {
	switch c.HistoryDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("HISTORY_DB_DRIVER must be sqlite3 or postgres, got %q", c.HistoryDriver)
	}
	if c.HistoryDSN == "" {
		return fmt.Errorf("HISTORY_DB_DSN is required")
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables. History
// variables are optional; the compiler runs without them.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		SchemaDir:     os.Getenv("SCHEMA_DIR"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		HistoryDriver: os.Getenv("HISTORY_DB_DRIVER"),
		HistoryDSN:    os.Getenv("HISTORY_DB_DSN"),
	}

	if cfg.SchemaDir == "" {
		cfg.SchemaDir = "./schemas"
	}
	if cfg.HistoryDriver == "" && cfg.HistoryDSN != "" {
		cfg.HistoryDriver = "postgres"
		cfg.Warnings = append(cfg.Warnings, "HISTORY_DB_DRIVER not set; defaulting to postgres")
	}
	if strings.EqualFold(os.Getenv("SCHEMA_REQUIRE_PRIMARY_KEY"), "true") {
		cfg.RequirePrimaryKey = true
	}
	if cfg.LogLevel != "" {
		switch strings.ToLower(cfg.LogLevel) {
		case "debug", "info", "warn", "warning", "error":
		default:
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown LOG_LEVEL %q; using info", cfg.LogLevel))
			cfg.LogLevel = "info"
		}
	}

	return cfg, nil
}
