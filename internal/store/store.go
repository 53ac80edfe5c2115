// Package store provides durable storage for finished run records.
// Uses SQLite with WAL mode so run lookups can proceed while a run is
// being persisted.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kadlec/drover/internal/registry"
)

//go:embed schema.sql
var schemaSQL string

// timeFormat is how timestamps are stored; lexicographic order matches
// chronological order.
const timeFormat = time.RFC3339Nano

// Store is a SQLite-backed registry.PersistedStore.
type Store struct {
	db *sql.DB
}

var _ registry.PersistedStore = (*Store)(nil)

// Open creates or opens the run database at path. Applies pragmas and the
// schema automatically; idempotent, safe to call on an existing database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to run database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts a run record. Saving the same id twice keeps the latest
// snapshot.
func (s *Store) Save(rec registry.RunRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO runs
		(id, output_dir, status, created_at, finished_at, passed, failed, skipped, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			output_dir  = excluded.output_dir,
			status      = excluded.status,
			created_at  = excluded.created_at,
			finished_at = excluded.finished_at,
			passed      = excluded.passed,
			failed      = excluded.failed,
			skipped     = excluded.skipped,
			total       = excluded.total
	`,
		rec.ID,
		rec.OutputDir,
		rec.Status,
		rec.CreatedAt.Format(timeFormat),
		rec.FinishedAt.Format(timeFormat),
		rec.Passed,
		rec.Failed,
		rec.Skipped,
		rec.All,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}
	return nil
}

// Load returns the persisted record for id. The second return is false
// when no record exists.
func (s *Store) Load(id string) (registry.RunRecord, bool, error) {
	var (
		rec        registry.RunRecord
		createdAt  string
		finishedAt string
	)
	err := s.db.QueryRow(`
		SELECT id, output_dir, status, created_at, finished_at, passed, failed, skipped, total
		FROM runs WHERE id = ?
	`, id).Scan(
		&rec.ID,
		&rec.OutputDir,
		&rec.Status,
		&createdAt,
		&finishedAt,
		&rec.Passed,
		&rec.Failed,
		&rec.Skipped,
		&rec.All,
	)
	if err == sql.ErrNoRows {
		return registry.RunRecord{}, false, nil
	}
	if err != nil {
		return registry.RunRecord{}, false, fmt.Errorf("load run %s: %w", id, err)
	}
	if rec.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return registry.RunRecord{}, false, fmt.Errorf("load run %s: bad created_at: %w", id, err)
	}
	if rec.FinishedAt, err = time.Parse(timeFormat, finishedAt); err != nil {
		return registry.RunRecord{}, false, fmt.Errorf("load run %s: bad finished_at: %w", id, err)
	}
	return rec, true, nil
}

// Delete removes the record for id. Deleting an absent id is a no-op.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}

// List returns all persisted records ordered by creation time.
func (s *Store) List() ([]registry.RunRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, output_dir, status, created_at, finished_at, passed, failed, skipped, total
		FROM runs ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var recs []registry.RunRecord
	for rows.Next() {
		var (
			rec        registry.RunRecord
			createdAt  string
			finishedAt string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.OutputDir,
			&rec.Status,
			&createdAt,
			&finishedAt,
			&rec.Passed,
			&rec.Failed,
			&rec.Skipped,
			&rec.All,
		); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("list runs: bad created_at for %s: %w", rec.ID, err)
		}
		if rec.FinishedAt, err = time.Parse(timeFormat, finishedAt); err != nil {
			return nil, fmt.Errorf("list runs: bad finished_at for %s: %w", rec.ID, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return recs, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
