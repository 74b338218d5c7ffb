// Package storage persists domain snapshots in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"spendly/internal/core"

	_ "modernc.org/sqlite"
)

// DefaultSnapshotName is the row used when no name is configured.
const DefaultSnapshotName = "default"

// SQLiteRepository stores one named snapshot as a JSON document.
type SQLiteRepository struct {
	db   *sql.DB
	name string
	now  func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath, name string) (*SQLiteRepository, error) {
	if name == "" {
		name = DefaultSnapshotName
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// The app and the export worker share the file.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db, name: name, now: time.Now}, nil
}

// Name returns the snapshot row this repository reads and writes.
func (r *SQLiteRepository) Name() string { return r.name }

// Load returns the stored snapshot. found is false when none was saved yet.
func (r *SQLiteRepository) Load(ctx context.Context) (core.Snapshot, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE name = ?`, r.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Snapshot{}, false, nil
	}
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("query snapshot %q: %w", r.name, err)
	}

	var snap core.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("decode snapshot %q: %w", r.name, err)
	}
	return snap, true, nil
}

// Save replaces the stored snapshot and bumps its version.
func (r *SQLiteRepository) Save(ctx context.Context, snap core.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, payload, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			version = snapshots.version + 1,
			updated_at = excluded.updated_at`,
		r.name, string(payload), r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert snapshot %q: %w", r.name, err)
	}
	return nil
}

// Version returns how many times the snapshot was saved, 0 if never.
func (r *SQLiteRepository) Version(ctx context.Context) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx,
		`SELECT version FROM snapshots WHERE name = ?`, r.name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query snapshot version: %w", err)
	}
	return v, nil
}

// Ping checks the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
