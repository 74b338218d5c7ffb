// Package memory provides an in-process snapshot exporter. The worker uses
// it when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"spendly/internal/core"
	applog "spendly/internal/log"
	ports "spendly/internal/sheets"
)

// Exporter keeps the rows of the most recent export.
type Exporter struct {
	logger *applog.Logger

	mu      sync.Mutex
	rows    [][]string
	exports int
	err     error
}

var _ ports.SnapshotExporter = (*Exporter)(nil)

func New(logger *applog.Logger) *Exporter {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Exporter{logger: logger.WithComponent(applog.ComponentSheets)}
}

func (e *Exporter) ExportSnapshot(ctx context.Context, snap core.Snapshot) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return 0, e.err
	}
	e.rows = ports.Rows(snap)
	e.exports++
	e.logger.DebugContext(ctx, "Snapshot exported to memory", applog.FieldExpenseCnt, len(e.rows))
	return len(e.rows), nil
}

// FailWith makes later exports return err; nil clears it.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Rows returns the rows of the last successful export.
func (e *Exporter) Rows() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.rows...)
}

// Exports counts successful exports.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
