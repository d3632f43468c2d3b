// Package history persists a log of build passes in SQLite. The watch
// daemon records every pass so that build behavior over a long session can
// be inspected after the fact.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitegen/internal/site"
)

// Entry is one recorded build pass.
type Entry struct {
	ID            string
	Status        site.Status
	Incremental   bool
	PagesTotal    int
	PagesRendered int
	ChangedURLs   []string
	Warnings      int
	StartedAt     time.Time
	Duration      time.Duration
}

// Store is a SQLite-backed build log.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens a build history database. Use ":memory:" for an
// ephemeral log.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		incremental INTEGER NOT NULL,
		pages_total INTEGER NOT NULL,
		pages_rendered INTEGER NOT NULL,
		changed_urls TEXT NOT NULL,
		warnings INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one build result to the log.
func (s *Store) Record(ctx context.Context, res *site.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls, err := json.Marshal(res.ChangedURLs)
	if err != nil {
		return fmt.Errorf("marshal changed urls: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (id, status, incremental, pages_total, pages_rendered, changed_urls, warnings, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, string(res.Status), boolToInt(res.Incremental),
		res.PagesTotal, res.PagesRendered, string(urls), len(res.Warnings),
		res.StartTime.Unix(), res.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// Recent returns the most recent n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, incremental, pages_total, pages_rendered, changed_urls, warnings, started_at, duration_ms
		 FROM builds ORDER BY started_at DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query build records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			status      string
			incremental int
			urlsJSON    string
			startedUnix int64
			durationMS  int64
		)
		if err := rows.Scan(&e.ID, &status, &incremental, &e.PagesTotal, &e.PagesRendered,
			&urlsJSON, &e.Warnings, &startedUnix, &durationMS); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		e.Status = site.Status(status)
		e.Incremental = incremental != 0
		e.StartedAt = time.Unix(startedUnix, 0)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(urlsJSON), &e.ChangedURLs); err != nil {
			return nil, fmt.Errorf("unmarshal changed urls: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
