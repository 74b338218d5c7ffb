package backend

import (
	"errors"
	"fmt"

	"spendly/internal/config"
)

// Config holds configuration for backend creation.
type Config struct {
	Data DataBackendType
	Auth AuthBackendType

	// SQLite specific
	SQLiteDBPath string
	SnapshotName string

	// Snapshot notifications; empty URL disables them
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Firebase specific
	FirebaseAPIKey    string
	FirebaseProjectID string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	c := Config{
		Data:              DataBackendType(appConfig.DataBackend),
		Auth:              AuthBackendType(appConfig.AuthBackend),
		SQLiteDBPath:      appConfig.SQLiteDBPath,
		SnapshotName:      appConfig.SnapshotName,
		AMQPURL:           appConfig.AMQPURL,
		AMQPExchange:      appConfig.AMQPExchange,
		AMQPQueue:         appConfig.AMQPQueue,
		FirebaseAPIKey:    appConfig.FirebaseAPIKey,
		FirebaseProjectID: appConfig.FirebaseProjectID,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if !c.Data.IsValid() {
		return fmt.Errorf("invalid data backend type: %s", c.Data)
	}
	if !c.Auth.IsValid() {
		return fmt.Errorf("invalid auth backend type: %s", c.Auth)
	}
	if c.Data == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	if c.Auth == FirebaseAuth && (c.FirebaseAPIKey == "" || c.FirebaseProjectID == "") {
		return errors.New("Firebase API key and project ID are required for firebase auth")
	}
	return nil
}
