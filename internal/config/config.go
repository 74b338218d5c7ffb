// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backend names.
const (
	DataBackendSQLite = "sqlite"
	DataBackendMemory = "memory"

	AuthBackendFirebase = "firebase"
	AuthBackendMemory   = "memory"
	AuthBackendNone     = "none"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Domain store persistence
	DataBackend  string
	SQLiteDBPath string
	SnapshotName string

	// AMQP; an empty URL disables snapshot notifications
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Profile sync
	AuthBackend       string
	FirebaseAPIKey    string
	FirebaseProjectID string
	RemoteTimeout     time.Duration

	// Google Sheets export (worker)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", DataBackendSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spendly.db"),
		SnapshotName: getEnv("SNAPSHOT_NAME", "default"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spendly"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "snapshot_saved"),

		AuthBackend:       getEnv("AUTH_BACKEND", AuthBackendNone),
		FirebaseAPIKey:    getEnv("FIREBASE_API_KEY", ""),
		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		RemoteTimeout:     getEnvDuration("REMOTE_TIMEOUT", 15*time.Second),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// ProfileSyncConfigured reports whether sign-up and sign-in can reach a backend.
func (c *Config) ProfileSyncConfigured() bool {
	switch c.AuthBackend {
	case AuthBackendMemory:
		return true
	case AuthBackendFirebase:
		return c.FirebaseAPIKey != "" && c.FirebaseProjectID != ""
	default:
		return false
	}
}

// NotificationsEnabled reports whether saved snapshots are announced over AMQP.
func (c *Config) NotificationsEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsExportEnabled reports whether the worker writes to a real spreadsheet.
func (c *Config) SheetsExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate checks the settings of the web process and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validData := []string{DataBackendMemory, DataBackendSQLite}
	if !slices.Contains(validData, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validData))
	}
	if c.DataBackend == DataBackendSQLite {
		errs = append(errs, c.validateSQLite()...)
	}
	if strings.TrimSpace(c.SnapshotName) == "" {
		errs = append(errs, "snapshot name cannot be empty")
	}

	errs = append(errs, c.validateAMQP()...)

	validAuth := []string{AuthBackendFirebase, AuthBackendMemory, AuthBackendNone}
	if !slices.Contains(validAuth, c.AuthBackend) {
		errs = append(errs, fmt.Sprintf("invalid auth backend '%s': must be one of %v", c.AuthBackend, validAuth))
	}
	if c.AuthBackend == AuthBackendFirebase {
		if c.FirebaseAPIKey == "" {
			errs = append(errs, "FIREBASE_API_KEY is required when using the firebase auth backend")
		}
		if c.FirebaseProjectID == "" {
			errs = append(errs, "FIREBASE_PROJECT_ID is required when using the firebase auth backend")
		}
	}
	if c.RemoteTimeout < time.Second || c.RemoteTimeout > 5*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid remote timeout %v: must be between 1s and 5m", c.RemoteTimeout))
	}

	errs = append(errs, c.validateLogging()...)
	return joinErrors(errs)
}

// ValidateWorker checks the settings of the export worker.
func (c *Config) ValidateWorker() error {
	var errs []string

	if c.DataBackend != DataBackendSQLite {
		errs = append(errs, "export worker requires the sqlite data backend")
	}
	errs = append(errs, c.validateSQLite()...)
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP_URL is required for the export worker")
	}
	errs = append(errs, c.validateAMQP()...)

	// Without a spreadsheet the worker runs as a dry run.
	if c.SheetsExportEnabled() {
		if c.GoogleSheetName == "" {
			errs = append(errs, "GOOGLE_SHEET_NAME cannot be empty")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	errs = append(errs, c.validateLogging()...)
	return joinErrors(errs)
}

func (c *Config) validateSQLite() []string {
	if c.SQLiteDBPath == "" {
		return []string{"SQLite database path cannot be empty when using sqlite backend"}
	}
	dir := filepath.Dir(c.SQLiteDBPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return []string{fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err)}
			}
		}
	}
	return nil
}

func (c *Config) validateAMQP() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errs []string
	if parsed, err := url.Parse(c.AMQPURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
	}
	if c.AMQPExchange == "" {
		errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errs
}

func (c *Config) validateLogging() []string {
	var errs []string
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}
	return errs
}

func joinErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
