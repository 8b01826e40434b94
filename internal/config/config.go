package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Credential store backends.
const (
	CredentialStoreFile   = "file"
	CredentialStoreSQL    = "sql"
	CredentialStoreMemory = "memory"
)

// Config holds all client configuration
type Config struct {
	// API configuration
	API APIConfig

	// Credentials configuration
	Credentials CredentialsConfig

	// VoteStateFile persists the local vote state between runs; empty disables it.
	VoteStateFile string

	// Logging configuration
	Logging LoggingConfig
}

// APIConfig holds settings for the booking backend
type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// CredentialsConfig selects where the bearer token lives
type CredentialsConfig struct {
	Store       string // file, sql, memory
	File        string
	DatabaseURL string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadAPI(); err != nil {
		return nil, fmt.Errorf("load api config: %w", err)
	}

	cfg.loadCredentials()
	cfg.VoteStateFile = getEnvOrDefault("VOTE_STATE_FILE", filepath.Join(defaultStateDir(), "votes.gob"))
	cfg.loadLogging()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadAPI() error {
	c.API.BaseURL = strings.TrimRight(os.Getenv("FITBOOK_API_URL"), "/")

	timeoutStr := getEnvOrDefault("REQUEST_TIMEOUT", "15s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	c.API.RequestTimeout = timeout
	return nil
}

func (c *Config) loadCredentials() {
	c.Credentials.Store = strings.ToLower(getEnvOrDefault("CREDENTIAL_STORE", CredentialStoreFile))
	c.Credentials.File = getEnvOrDefault("CREDENTIAL_FILE", filepath.Join(defaultStateDir(), "credentials.json"))
	c.Credentials.DatabaseURL = os.Getenv("DATABASE_URL")
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "text")
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	if c.API.BaseURL == "" {
		errors = append(errors, "FITBOOK_API_URL is required")
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, "FITBOOK_API_URL must be an absolute URL")
	}

	if c.API.RequestTimeout <= 0 {
		errors = append(errors, "REQUEST_TIMEOUT must be positive")
	}

	switch c.Credentials.Store {
	case CredentialStoreFile:
		if c.Credentials.File == "" {
			errors = append(errors, "CREDENTIAL_FILE is required for the file credential store")
		}
	case CredentialStoreSQL:
		if c.Credentials.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required for the sql credential store")
		}
	case CredentialStoreMemory:
	default:
		errors = append(errors, "CREDENTIAL_STORE must be one of: file, sql, memory")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "fitbook")
	}
	return ".fitbook"
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
