package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tradejournal/internal/adapters/logger" // Import the logger package for LogLevel
	"tradejournal/internal/journal"
	"tradejournal/internal/ports"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	// Storage
	Storage string // sqlite or memory
	DBPath  string

	// Journal
	Profile  string // Explicit profile; empty uses the remembered one
	PageSize int

	// Dashboard server
	HTTPAddr string

	// Logging
	LogLevel       logger.LogLevel // Use the LogLevel type from the logger adapter
	TracingEnabled bool
}

// fileConfig is the optional overlay file. Absent keys leave env values alone.
type fileConfig struct {
	Storage        *string `yaml:"storage" json:"storage"`
	DBPath         *string `yaml:"dbPath" json:"dbPath"`
	Profile        *string `yaml:"profile" json:"profile"`
	PageSize       *int    `yaml:"pageSize" json:"pageSize"`
	HTTPAddr       *string `yaml:"httpAddr" json:"httpAddr"`
	LogLevel       *string `yaml:"logLevel" json:"logLevel"`
	TracingEnabled *bool   `yaml:"tracingEnabled" json:"tracingEnabled"`
}

// LoadConfig loads configuration from environment variables (.env file), then
// applies the overlay file at path if one is given.
func LoadConfig(path string) (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Storage
	cfg.Storage = strings.ToLower(getEnv("JOURNAL_STORAGE", StorageSQLite))
	cfg.DBPath = getEnv("JOURNAL_DB_PATH", "./data/journal.db")

	// Journal
	cfg.Profile = strings.TrimSpace(getEnv("JOURNAL_PROFILE", ""))
	cfg.PageSize, err = getEnvAsIntRequired("JOURNAL_PAGE_SIZE", journal.DefaultPerPage)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid JOURNAL_PAGE_SIZE: %v", err))
	}

	// Dashboard server
	cfg.HTTPAddr = getEnv("JOURNAL_HTTP_ADDR", "127.0.0.1:8787")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.TracingEnabled = getEnvAsBool("LOG_TRACING_ENABLED", false)

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	errs = append(errs, cfg.validate()...)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s: %w", strings.Join(errs, "; "), ports.ErrConfigurationError)
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, &fc); err != nil {
		if jerr := json.Unmarshal(data, &fc); jerr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): %w", jerr)
		}
	}

	if fc.Storage != nil {
		c.Storage = strings.ToLower(*fc.Storage)
	}
	if fc.DBPath != nil {
		c.DBPath = *fc.DBPath
	}
	if fc.Profile != nil {
		c.Profile = strings.TrimSpace(*fc.Profile)
	}
	if fc.PageSize != nil {
		c.PageSize = *fc.PageSize
	}
	if fc.HTTPAddr != nil {
		c.HTTPAddr = *fc.HTTPAddr
	}
	if fc.LogLevel != nil {
		c.LogLevel = logger.ParseLevel(*fc.LogLevel)
	}
	if fc.TracingEnabled != nil {
		c.TracingEnabled = *fc.TracingEnabled
	}
	return nil
}

func (c *Config) validate() []string {
	var errs []string
	switch c.Storage {
	case StorageSQLite:
		if c.DBPath == "" {
			errs = append(errs, "JOURNAL_DB_PATH must be set for sqlite storage")
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Sprintf("JOURNAL_STORAGE must be %q or %q, got %q", StorageSQLite, StorageMemory, c.Storage))
	}
	if c.PageSize <= 0 {
		errs = append(errs, "JOURNAL_PAGE_SIZE must be positive")
	}
	if c.HTTPAddr == "" {
		errs = append(errs, "JOURNAL_HTTP_ADDR must be set")
	}
	if c.Profile != "" {
		if _, err := journal.NormalizeUsername(c.Profile); err != nil {
			errs = append(errs, fmt.Sprintf("invalid JOURNAL_PROFILE: %v", err))
		}
	}
	return errs
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
