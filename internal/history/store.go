// Package history keeps a SQLite ledger of launch attempts and installs,
// so an operator can see what ran, for how long, and what failed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome is how a launch attempt ended.
type Outcome string

const (
	OutcomeExited     Outcome = "exited"     // the game closed by itself
	OutcomeTerminated Outcome = "terminated" // closed after the exit button
	OutcomeTimeout    Outcome = "timeout"    // the process never appeared
	OutcomeError      Outcome = "error"      // metadata or resolution failure
)

// LaunchRecord is one launch attempt.
type LaunchRecord struct {
	ID          int64
	AppID       string
	DisplayName string
	Executable  string
	PID         int
	Outcome     Outcome
	Error       string
	StartedAt   time.Time
	EndedAt     time.Time
}

// Duration is the wall time of the attempt.
func (r LaunchRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Summary aggregates launches of one game.
type Summary struct {
	AppID       string
	DisplayName string
	Launches    int
	Failures    int
	PlayTime    time.Duration
	LastPlayed  time.Time
}

// Store wraps the history database.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil { //nolint:gosec // Standard dir permissions
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// One writer; also keeps ":memory:" on a single database.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var version int
	if err := s.conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if version < 1 {
		if err := s.migrateV1(ctx); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(ctx); err != nil {
			return err
		}
	}
	return nil
}

// migrateV1 creates the launch ledger.
func (s *Store) migrateV1(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS launches (
			id INTEGER PRIMARY KEY,
			app_id TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			executable TEXT NOT NULL DEFAULT '',
			pid INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL,
			ended_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_launches_app_id ON launches(app_id);
		CREATE INDEX IF NOT EXISTS idx_launches_started_at ON launches(started_at);

		INSERT INTO schema_version (version) VALUES (1);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute v1 migration: %w", err)
	}
	return nil
}

// migrateV2 adds the install ledger.
func (s *Store) migrateV2(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS installs (
			app_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			executable TEXT NOT NULL DEFAULT '',
			script_path TEXT NOT NULL DEFAULT '',
			installed_at INTEGER NOT NULL
		);

		INSERT INTO schema_version (version) VALUES (2);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute v2 migration: %w", err)
	}
	return nil
}
