// Package history records one row per rb invocation in a local SQLite
// database. This is rb's own audit log only — snapshot state lives solely
// in the restic repository.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"rb-go/internal/config"
	"rb-go/internal/history/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Operation is one recorded rb invocation.
type Operation struct {
	ID         string
	HostID     string
	Operation  string
	SnapshotID string
	Target     string
	Status     string // "running", "success", or "error"
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// Store records and lists operations.
type Store interface {
	// Begin records the start of an operation and returns it.
	Begin(operation, snapshotID, target string) (*Operation, error)

	// Finish marks an operation as finished with the given status.
	Finish(op *Operation, status string) error

	// List returns the most recent operations, newest first.
	List(limit int) ([]*Operation, error)

	// Close closes the store.
	Close() error
}

// Clock abstracts time retrieval so store behavior is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// NewStoreFromConfig creates a Store based on the history config type.
func NewStoreFromConfig(cfg config.HistoryConfig, hostID string) (Store, error) {
	switch cfg.Type {
	case "", "none":
		return NopStore{}, nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("sqlite history requires data_dir to be set")
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "history.db"), hostID, RealClock{}, UUIDGenerator{})
	default:
		return nil, fmt.Errorf("unknown history type: %s", cfg.Type)
	}
}

// NopStore discards all history. Used when history is disabled.
type NopStore struct{}

func (NopStore) Begin(operation, snapshotID, target string) (*Operation, error) {
	return &Operation{Operation: operation, SnapshotID: snapshotID, Target: target}, nil
}
func (NopStore) Finish(*Operation, string) error { return nil }
func (NopStore) List(int) ([]*Operation, error)  { return nil, nil }
func (NopStore) Close() error                    { return nil }

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	hostID string
	clock  Clock
	idgen  IDGenerator
}

// NewSQLiteStore opens (creating and migrating if needed) the history
// database at path. path can be ":memory:" for tests.
func NewSQLiteStore(path string, hostID string, clock Clock, idgen IDGenerator) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}

	return &SQLiteStore{db: db, hostID: hostID, clock: clock, idgen: idgen}, nil
}

func (s *SQLiteStore) Begin(operation, snapshotID, target string) (*Operation, error) {
	op := &Operation{
		ID:         s.idgen.New(),
		HostID:     s.hostID,
		Operation:  operation,
		SnapshotID: snapshotID,
		Target:     target,
		Status:     "running",
		StartedAt:  s.clock.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO operations (id, host_id, operation, snapshot_id, target, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.HostID, op.Operation, op.SnapshotID, op.Target, op.Status, op.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("recording operation: %w", err)
	}

	return op, nil
}

func (s *SQLiteStore) Finish(op *Operation, status string) error {
	finishedAt := s.clock.Now().UTC()
	// Snapshot id and target may have been filled in after Begin, once the
	// user picked them; persist them alongside the final status.
	_, err := s.db.Exec(
		`UPDATE operations SET status = ?, finished_at = ?, snapshot_id = ?, target = ? WHERE id = ?`,
		status, finishedAt, op.SnapshotID, op.Target, op.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}

	op.Status = status
	op.FinishedAt = sql.NullTime{Time: finishedAt, Valid: true}
	return nil
}

func (s *SQLiteStore) List(limit int) ([]*Operation, error) {
	rows, err := s.db.Query(
		`SELECT id, host_id, operation, snapshot_id, target, status, started_at, finished_at
		 FROM operations ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		var op Operation
		if err := rows.Scan(&op.ID, &op.HostID, &op.Operation, &op.SnapshotID, &op.Target, &op.Status, &op.StartedAt, &op.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading operations: %w", err)
	}

	return ops, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
