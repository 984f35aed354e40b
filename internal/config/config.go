// Package config loads process configuration from the environment once at
// startup. All values are read-only afterwards.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"iuran/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Apps Script endpoint
	APIBaseURL string
	APIKey     string

	// Categories
	DefaultCategory      string
	DefaultMonthlyAmount float64
	CategoriesFile       string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID string

	// Cache
	SnapshotTTL time.Duration

	// Backend selection: appsscript | sheets | sqlite | sample
	DataBackend string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		APIBaseURL: getEnv("API_BASE_URL", ""),
		APIKey:     getEnv("API_KEY", ""),

		DefaultCategory:      getEnv("DEFAULT_CATEGORY", "kas"),
		DefaultMonthlyAmount: getEnvFloat("DEFAULT_MONTHLY_AMOUNT", 15000),
		CategoriesFile:       getEnv("CATEGORIES_FILE", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/iuran.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "iuran"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "payment_recorded"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		SnapshotTTL: getEnvDuration("SNAPSHOT_TTL", 5*time.Minute),

		DataBackend: getEnv("DATA_BACKEND", "appsscript"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid.
// A missing API_BASE_URL is not an error: the appsscript backend then
// serves sample data.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"appsscript", "sheets", "sqlite", "sample"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.APIBaseURL != "" {
		if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	if c.DefaultMonthlyAmount < 0 {
		errors = append(errors, fmt.Sprintf("invalid default monthly amount %v: must not be negative", c.DefaultMonthlyAmount))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "sheets" && c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CategoriesFile != "" {
		if _, err := os.Stat(c.CategoriesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("categories file does not exist: %s", c.CategoriesFile))
		}
	}

	if c.SnapshotTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid snapshot TTL %v: must be at least 1 second", c.SnapshotTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Categories builds the category catalog: the CATEGORIES_FILE JSON list
// when configured, otherwise a single default category.
func (c *Config) Categories() ([]core.Category, error) {
	if c.CategoriesFile == "" {
		return []core.Category{{
			Key:           c.DefaultCategory,
			Label:         "Kas Kelas",
			Sheet:         "Kas",
			MonthlyTarget: c.DefaultMonthlyAmount,
		}}, nil
	}

	data, err := os.ReadFile(c.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	var categories []core.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("categories file %s contains no categories", c.CategoriesFile)
	}
	for i := range categories {
		if categories[i].MonthlyTarget == 0 {
			categories[i].MonthlyTarget = c.DefaultMonthlyAmount
		}
	}
	return categories, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
