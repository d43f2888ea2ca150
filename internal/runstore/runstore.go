// Package runstore records preprocessing runs in a local SQLite
// database: which recording was processed, with which configuration, and
// the shape of the output. The store is provenance only; signal data
// lives in the EDF checkpoints.
package runstore

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run is one recorded pipeline execution.
type Run struct {
	ID           string
	Subject      string
	Session      string
	Task         string
	Recording    string // source file path
	Config       any    // marshalled to JSON on insert
	ConfigJSON   string // populated on read
	ChannelCount int
	InputRate    float64
	OutputRate   float64
	SampleCount  int
	CreatedAt    time.Time
}

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("preparing migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("preparing migrations: %w", err)
	}
	// Note: we don't close m because it would close the underlying DB
	// connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// RecordRun inserts the run and returns its generated ID.
func (s *Store) RecordRun(run Run) (string, error) {
	id := uuid.NewString()

	configJSON := run.ConfigJSON
	if run.Config != nil {
		b, err := json.Marshal(run.Config)
		if err != nil {
			return "", fmt.Errorf("marshalling run config: %w", err)
		}
		configJSON = string(b)
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, subject, session, task, recording, config_json,
			channel_count, input_rate, output_rate, sample_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.Subject, run.Session, run.Task, run.Recording, configJSON,
		run.ChannelCount, run.InputRate, run.OutputRate, run.SampleCount)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT run_id, subject, session, task, recording, config_json,
			channel_count, input_rate, output_rate, sample_count, created_at
		FROM runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Subject, &r.Session, &r.Task, &r.Recording,
			&r.ConfigJSON, &r.ChannelCount, &r.InputRate, &r.OutputRate,
			&r.SampleCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun fetches one run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	var r Run
	err := s.db.QueryRow(`
		SELECT run_id, subject, session, task, recording, config_json,
			channel_count, input_rate, output_rate, sample_count, created_at
		FROM runs WHERE run_id = ?`, id).
		Scan(&r.ID, &r.Subject, &r.Session, &r.Task, &r.Recording,
			&r.ConfigJSON, &r.ChannelCount, &r.InputRate, &r.OutputRate,
			&r.SampleCount, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching run: %w", err)
	}
	return &r, nil
}
