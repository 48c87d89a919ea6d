// Package config provides configuration management for the pipeline.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	GoCardless GoCardlessConfig
	Database   DatabaseConfig
	// AccountingCurrency is the single currency all stored amounts are
	// normalized to.
	AccountingCurrency string
	// SyncLookbackDays is the rolling window for remote transaction sync.
	SyncLookbackDays int
	// Country is the ISO country code used when listing institutions.
	Country string
	Debug   bool
}

// GoCardlessConfig represents bank account data API configuration.
type GoCardlessConfig struct {
	SecretID  string
	SecretKey string
	APIURL    string
	// RedirectURL is where the bank sends the user after granting consent.
	RedirectURL string
}

// DatabaseConfig represents SQLite configuration.
type DatabaseConfig struct {
	Path string
}

// Load loads configuration from environment variables.
// It automatically loads a .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	lookback, err := parseIntEnv("SYNC_LOOKBACK_DAYS", 90)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_LOOKBACK_DAYS: %w", err)
	}

	config := &Config{
		GoCardless: GoCardlessConfig{
			SecretID:    os.Getenv("GOCARDLESS_SECRET_ID"),
			SecretKey:   os.Getenv("GOCARDLESS_SECRET_KEY"),
			APIURL:      getEnvOrDefault("GOCARDLESS_API_URL", "https://bankaccountdata.gocardless.com"),
			RedirectURL: getEnvOrDefault("GOCARDLESS_REDIRECT_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("DATABASE_PATH", "data/mymoney.db"),
		},
		AccountingCurrency: getEnvOrDefault("ACCOUNTING_CURRENCY", "BGN"),
		SyncLookbackDays:   lookback,
		Country:            getEnvOrDefault("INSTITUTION_COUNTRY", "bg"),
		Debug:              os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// ValidateRemote checks that the fields required for remote sync are set.
// File import and categorization work without them.
func (c *Config) ValidateRemote() error {
	var missing []string
	if c.GoCardless.SecretID == "" {
		missing = append(missing, "GOCARDLESS_SECRET_ID")
	}
	if c.GoCardless.SecretKey == "" {
		missing = append(missing, "GOCARDLESS_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}
	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}
