package backend

import (
	"context"
	"errors"
	"fmt"

	"spendly/internal/amqp"
	applog "spendly/internal/log"
	"spendly/internal/remote/firebase"
	"spendly/internal/remote/memory"
	"spendly/internal/services"
	"spendly/internal/storage"
	"spendly/internal/store"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Ready: func(context.Context) error { return nil }}
	var closers []func() error

	var persister store.Persister
	switch config.Data {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, config.SnapshotName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		persister = repo
		res.Ready = repo.Ping
		closers = append(closers, repo.Close)
		f.logger.Info("Initialized SQLite persistence",
			"db_path", config.SQLiteDBPath,
			applog.FieldSnapshot, repo.Name())
	case MemoryBackend:
		persister = store.NewMemoryPersister()
		f.logger.Info("Initialized memory persistence")
	}

	// Notifications are optional; a broker outage must not stop the app.
	var publisher services.SnapshotPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without notifications",
				applog.FieldError, err)
		} else {
			publisher = client
			closers = append(closers, client.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}
	res.Persister = services.NewNotifyingPersister(persister, publisher, config.SnapshotName, f.logger)

	switch config.Auth {
	case FirebaseAuth:
		auth, err := firebase.NewAuth(ctx, config.FirebaseAPIKey, f.logger)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("failed to initialize Firebase auth: %w", err)
		}
		docs, err := firebase.NewDocuments(ctx, config.FirebaseProjectID, auth)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("failed to initialize Firestore: %w", err)
		}
		res.Identity, res.Documents = auth, docs
		f.logger.Info("Initialized Firebase profile sync", "project_id", config.FirebaseProjectID)
	case MemoryAuth:
		res.Identity, res.Documents = memory.NewAuth(), memory.NewDocuments()
		f.logger.Info("Initialized in-memory profile sync")
	case NoAuth:
		f.logger.Info("Profile sync not configured")
	}

	res.Cleanup = func() error { return closeAll(closers) }
	return res, nil
}

// closeAll runs closers in reverse order and joins their errors.
func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
