// Package sqlite provides embedded persistence for locations, posts, and
// mentions, plus the aggregation queries behind the read API.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound signals a lookup for a row that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness violation, e.g. two writers racing to
	// create the same Location name.
	ErrConflict = errors.New("conflict")
)

// Store handles SQLite persistence. The write path is single-writer (the
// ingestion pipeline); reads are safe concurrently with an in-progress run
// because file databases run in WAL mode.
type Store struct {
	db *sql.DB
}

// Open creates a Store backed by the database at path, creating tables as
// needed. Pass ":memory:" for an ephemeral database (used in tests).
func Open(path string) (*Store, error) {
	connStr := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared&_pragma=foreign_keys(1)"
	} else {
		connStr += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL COLLATE NOCASE,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		place_type TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT 'HI',
		created_at DATETIME NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_name ON locations(name);
	CREATE INDEX IF NOT EXISTS idx_locations_place_type ON locations(place_type);

	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		channel TEXT NOT NULL,
		posted_at DATETIME NOT NULL,
		scraped_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS mentions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location_id INTEGER NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		sentiment_score REAL NOT NULL DEFAULT 0,
		context TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_mentions_location ON mentions(location_id);
	CREATE INDEX IF NOT EXISTS idx_mentions_post ON mentions(post_id);
	CREATE INDEX IF NOT EXISTS idx_mentions_created ON mentions(created_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Counts reports row counts per table, used for run summaries and tests.
type Counts struct {
	Locations int64
	Posts     int64
	Mentions  int64
}

// Count returns the current row counts.
func (s *Store) Count(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM locations),
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM mentions)`)
	if err := row.Scan(&c.Locations, &c.Posts, &c.Mentions); err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
