// Package services composes persistence with the side effects that follow it.
package services

import (
	"context"
	"fmt"

	"spendly/internal/amqp"
	"spendly/internal/core"
	applog "spendly/internal/log"
	"spendly/internal/store"
)

// SnapshotPublisher announces saved snapshots to other processes.
type SnapshotPublisher interface {
	PublishSnapshotSaved(ctx context.Context, msg *amqp.SnapshotSavedMessage) error
}

// NotifyingPersister saves through an inner persister and, once the save
// succeeded, publishes a SnapshotSaved message.
type NotifyingPersister struct {
	inner     store.Persister
	publisher SnapshotPublisher
	name      string
	logger    *applog.Logger
}

// NewNotifyingPersister wraps inner. A nil publisher only persists.
func NewNotifyingPersister(inner store.Persister, publisher SnapshotPublisher, name string, logger *applog.Logger) *NotifyingPersister {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &NotifyingPersister{
		inner:     inner,
		publisher: publisher,
		name:      name,
		logger:    logger.WithComponent(applog.ComponentAMQP),
	}
}

func (p *NotifyingPersister) Load(ctx context.Context) (core.Snapshot, bool, error) {
	return p.inner.Load(ctx)
}

// Save persists snap first. A publish failure is logged and does not fail
// the save, since the snapshot is already durable.
func (p *NotifyingPersister) Save(ctx context.Context, snap core.Snapshot) error {
	if err := p.inner.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if p.publisher == nil {
		return nil
	}
	msg := amqp.NewSnapshotSavedMessage(p.name, len(snap.Expenses))
	if err := p.publisher.PublishSnapshotSaved(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish snapshot saved message",
			applog.FieldSnapshot, p.name,
			applog.FieldError, err)
	}
	return nil
}
