// Package worker reacts to snapshot notifications by exporting the saved
// expenses to a spreadsheet.
package worker

import (
	"context"
	"fmt"

	"spendly/internal/amqp"
	"spendly/internal/core"
	applog "spendly/internal/log"
	"spendly/internal/sheets"
)

// SnapshotSource loads the current persisted snapshot.
type SnapshotSource interface {
	Load(ctx context.Context) (core.Snapshot, bool, error)
}

// ExportWorker exports one named snapshot whenever it is saved.
type ExportWorker struct {
	source   SnapshotSource
	exporter sheets.SnapshotExporter
	name     string
	logger   *applog.Logger
}

func NewExportWorker(source SnapshotSource, exporter sheets.SnapshotExporter, name string, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ExportWorker{
		source:   source,
		exporter: exporter,
		name:     name,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleSnapshotSaved exports the snapshot named in msg. Messages for other
// snapshots are acknowledged without work. The message only signals a
// change; the latest persisted state is always what gets exported.
func (w *ExportWorker) HandleSnapshotSaved(ctx context.Context, msg *amqp.SnapshotSavedMessage) error {
	if msg.Snapshot != w.name {
		w.logger.DebugContext(ctx, "Ignoring notification for another snapshot",
			applog.FieldSnapshot, msg.Snapshot)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing snapshot notification",
		applog.FieldSnapshot, msg.Snapshot,
		applog.FieldExpenseCnt, msg.Expenses,
		"saved_at", msg.Timestamp)
	return w.Export(ctx)
}

// Export loads the snapshot and hands it to the exporter. A missing
// snapshot is not an error.
func (w *ExportWorker) Export(ctx context.Context) error {
	snap, found, err := w.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", w.name, err)
	}
	if !found {
		w.logger.InfoContext(ctx, "No snapshot saved yet, nothing to export", applog.FieldSnapshot, w.name)
		return nil
	}

	rows, err := w.exporter.ExportSnapshot(ctx, snap)
	if err != nil {
		w.logger.ErrorContext(ctx, "Snapshot export failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldSnapshot, w.name,
			applog.FieldError, err)
		return fmt.Errorf("export snapshot %s: %w", w.name, err)
	}

	w.logger.InfoContext(ctx, "Snapshot exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldSnapshot, w.name,
		applog.FieldExpenseCnt, rows)
	return nil
}
