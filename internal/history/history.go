// Package history keeps a small sqlite ledger of collector runs, so
// operators can see when data was last fetched and how it went without
// trawling log files.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded collector run.
type Run struct {
	ID           string
	Date         string // snapshot calendar date, YYYY-MM-DD
	FetchedAt    time.Time
	Succeeded    int
	Failed       int
	Duration     time.Duration
	SnapshotPath string
	Notes        string
}

// Store wraps the ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates a ledger at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		snapshot_path TEXT,
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_date ON runs(date);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts one run row.
func (s *Store) Record(r Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, date, fetched_at, succeeded, failed, duration_ms, snapshot_path, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Date, r.FetchedAt.UnixMilli(), r.Succeeded, r.Failed,
		r.Duration.Milliseconds(), r.SnapshotPath, r.Notes,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns the latest n runs, newest first.
func (s *Store) Recent(n int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, date, fetched_at, succeeded, failed, duration_ms, snapshot_path, notes
		 FROM runs ORDER BY fetched_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		var fetchedMs, durMs int64
		if err := rows.Scan(&r.ID, &r.Date, &fetchedMs, &r.Succeeded, &r.Failed, &durMs, &r.SnapshotPath, &r.Notes); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.FetchedAt = time.UnixMilli(fetchedMs).UTC()
		r.Duration = time.Duration(durMs) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
