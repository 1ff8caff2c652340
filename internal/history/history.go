// Package history persists join attempts across runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration

	"github.com/itsharshx/niftypool/internal/results"
)

const (
	schemaVersion      = 1
	defaultBusyTimeout = 5000 // ms
)

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS attempts (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		session      TEXT    NOT NULL,
		link         TEXT    NOT NULL,
		success      INTEGER NOT NULL,
		error        TEXT    NOT NULL DEFAULT '',
		group_name   TEXT    NOT NULL DEFAULT '',
		member_count INTEGER NOT NULL DEFAULT 0,
		join_time    TEXT    NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_attempts_time ON attempts(join_time DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_attempts_session ON attempts(session, join_time DESC)`,
}

// Entry is one recorded attempt.
type Entry struct {
	ID      int64
	Session string
	results.Result
}

// Store records and queries join attempts.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
//
// The database is created with WAL mode, a 5 s busy timeout, and a single
// connection (SQLite serialises writes). The schema is migrated
// automatically.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("history: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: set busy_timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates or updates the database schema to the latest version.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("history: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("history: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("history: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("history: record schema version: %w", err)
	}

	return nil
}

// Record appends one attempt for the given session.
func (s *Store) Record(ctx context.Context, session string, r results.Result) error {
	joinTime := r.JoinTime
	if joinTime.IsZero() {
		joinTime = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (session, link, success, error, group_name, member_count, join_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session, r.Link, boolToInt(r.Success), r.Error, r.GroupName, r.MemberCount,
		joinTime.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("history: record attempt: %w", err)
	}
	return nil
}

// Recent returns the most recent attempts, newest first. failedOnly
// restricts the listing to unsuccessful attempts.
func (s *Store) Recent(ctx context.Context, limit int, failedOnly bool) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session, link, success, error, group_name, member_count, join_time
		FROM attempts`
	if failedOnly {
		query += ` WHERE success = 0`
	}
	query += ` ORDER BY join_time DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var success int
		var joinTime string
		if err := rows.Scan(&e.ID, &e.Session, &e.Link, &success, &e.Error, &e.GroupName, &e.MemberCount, &joinTime); err != nil {
			return nil, fmt.Errorf("history: scan attempt: %w", err)
		}
		e.Success = success != 0
		if t, err := time.Parse(time.RFC3339Nano, joinTime); err == nil {
			e.JoinTime = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate attempts: %w", err)
	}

	return entries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
