// Package history keeps a local log of realize runs in a sqlite database.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Outcome summarizes what a run did to the local copy.
type Outcome string

const (
	// OutcomeDownloaded means at least one file was fetched fresh.
	OutcomeDownloaded Outcome = "downloaded"
	// OutcomeVerified means the local copy was already complete.
	OutcomeVerified Outcome = "verified"
	// OutcomeRepaired means a corrupted data file was replaced.
	OutcomeRepaired Outcome = "repaired"
	// OutcomeFailed means the run returned an error.
	OutcomeFailed Outcome = "failed"
)

// Event is one recorded run.
type Event struct {
	ID        int64
	Database  string
	Version   string
	DateToken string
	Digest    string
	Outcome   Outcome
	Error     string
	Bytes     int64
	StartedAt time.Time
	Duration  time.Duration
}

// Store persists events.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and applies
// pending migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	drv, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate history database: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends e.
func (s *Store) Record(ctx context.Context, e Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO realizations (db_name, version, date_token, digest, outcome, error, bytes, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Database, e.Version, e.DateToken, e.Digest, string(e.Outcome), e.Error, e.Bytes,
		e.StartedAt.UnixMilli(), e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record history event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, db_name, version, date_token, digest, outcome, error, bytes, started_at, duration_ms
		 FROM realizations ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var outcome string
		var startedAt, durationMS int64
		if err := rows.Scan(&e.ID, &e.Database, &e.Version, &e.DateToken, &e.Digest, &outcome, &e.Error, &e.Bytes, &startedAt, &durationMS); err != nil {
			return nil, err
		}
		e.Outcome = Outcome(outcome)
		e.StartedAt = time.UnixMilli(startedAt)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		events = append(events, e)
	}
	return events, rows.Err()
}
