// Package store persists reports and comparisons in SQLite.
//
// Report batches, metadata and selections are stored as JSON columns. Derived
// statistics are never written; the analysis attached to a report is
// recomputed each time the report is read.
//
// Storage is backed by a SQLite database at ~/.config/perfsight/perfsight.db
// (or the platform-equivalent path returned by os.UserConfigDir).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/database"
)

// SQLiteStore implements backend.Manager on a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// Option configures a store.
type Option func(*SQLiteStore)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(s *SQLiteStore) { s.log = log }
}

// WithClock overrides the time source. Intended for testing.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// Open creates or opens the store at the default path.
func Open(opts ...Option) (*SQLiteStore, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path, opts...)
}

// OpenAt creates or opens a SQLite database at the given path.
// The parent directory is created if it does not exist.
func OpenAt(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	s.log.Debug("store opened", zap.String("path", path))
	return s, nil
}

// migrations is the store schema history; append, never edit.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at       TEXT    NOT NULL,
		title            TEXT    NOT NULL DEFAULT '',
		tags_json        TEXT    NOT NULL DEFAULT '[]',
		folder_path      TEXT    NOT NULL DEFAULT '',
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		metrics_json     TEXT    NOT NULL DEFAULT '[]',
		meta_json        TEXT    NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_reports_folder ON reports(folder_path);`,

	`CREATE TABLE IF NOT EXISTS comparisons (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at         TEXT    NOT NULL,
		title              TEXT    NOT NULL DEFAULT '',
		report_ids_json    TEXT    NOT NULL DEFAULT '[]',
		baseline_report_id INTEGER,
		cpu_selections     TEXT    NOT NULL DEFAULT '{}',
		mem_selections     TEXT    NOT NULL DEFAULT '{}',
		tags_json          TEXT    NOT NULL DEFAULT '[]',
		folder_path        TEXT    NOT NULL DEFAULT ''
	);`,

	`CREATE TABLE IF NOT EXISTS folders (
		path       TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);`,
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if err := database.Migrate(ctx, s.db, migrations); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func marshalColumn(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("store: encode column: %w", err)
	}
	return string(data), nil
}

func unmarshalColumn(data string, v any) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("store: decode column: %w", err)
	}
	return nil
}

// expectOne maps a zero-row update or delete to err.
func expectOne(result sql.Result, err error) error {
	n, rerr := result.RowsAffected()
	if rerr != nil {
		return fmt.Errorf("store: rows affected: %w", rerr)
	}
	if n == 0 {
		return err
	}
	return nil
}
