// Package history records capture outcomes in an SQLite ledger so runs
// can be audited after the fact: which targets fell back, how many
// attempts they burned, what region was captured.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hazyhaar/mapshot/mapshot/internal/capture"
)

// Schema contains the complete DDL for the history table.
const Schema = `
CREATE TABLE IF NOT EXISTS capture_runs (
    run_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    status TEXT NOT NULL,
    output_path TEXT NOT NULL,
    region_x REAL,
    region_y REAL,
    region_w REAL,
    region_h REAL,
    bytes INTEGER NOT NULL,
    attempts INTEGER NOT NULL,
    stable INTEGER NOT NULL,
    error TEXT,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_capture_runs_target_time
    ON capture_runs(target_id, created_at DESC);
`

// Store writes capture results to SQLite.
type Store struct {
	db    *sql.DB
	runID string
}

// Open opens (or creates) the ledger at path with WAL-mode pragmas and
// applies the schema. The run ID stamps every row written by this Store.
func Open(path, runID string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}

	return &Store{db: db, runID: runID}, nil
}

// Record inserts one capture result. Non-blocking contract: errors are
// logged via slog but do not propagate; a failing ledger never fails a
// capture run.
func (s *Store) Record(ctx context.Context, res capture.Result) {
	stable := 0
	if res.Stable {
		stable = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO capture_runs (
			run_id, target_id, status, output_path,
			region_x, region_y, region_w, region_h,
			bytes, attempts, stable, error, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.runID, res.TargetID, string(res.Status), res.Path,
		res.Region.X, res.Region.Y, res.Region.Width, res.Region.Height,
		res.Bytes, res.Attempts, stable, res.Err, time.Now().Unix())
	if err != nil {
		slog.Error("history: record failed", "target", res.TargetID, "error", err)
	}
}

// DB exposes the underlying handle for ad-hoc queries against the ledger.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
