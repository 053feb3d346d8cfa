// Package history records completed regression runs in a local SQLite
// database so past results can be inspected with `cocoreg history`. The
// manifest-resolution core stays stateless; recording happens at the CLI
// layer after a run finishes.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMP NOT NULL,
	runbook     TEXT NOT NULL,
	sim         TEXT NOT NULL,
	testbenches INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Record is one completed regression run.
type Record struct {
	ID          string
	StartedAt   time.Time
	Runbook     string // runbook title, falling back to its file path
	Sim         string
	Testbenches int
	Passed      int
	Failed      int
	Duration    time.Duration
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the conventional database location under the user
// cache directory.
func DefaultPath() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locating cache dir: %w", err)
	}
	return filepath.Join(cache, "cocoreg", "history.db"), nil
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts a record, assigning an id and timestamp when absent.
func (s *Store) Append(r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, started_at, runbook, sim, testbenches, passed, failed, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC(), r.Runbook, r.Sim, r.Testbenches, r.Passed, r.Failed,
		r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, started_at, runbook, sim, testbenches, passed, failed, duration_ms
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Runbook, &r.Sim,
			&r.Testbenches, &r.Passed, &r.Failed, &durationMs); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, r)
	}
	return records, rows.Err()
}
