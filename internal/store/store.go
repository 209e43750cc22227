// Package store persists orchestration runs in a local SQLite database so
// past results stay inspectable across invocations.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one persisted orchestration outcome.
type Run struct {
	ID            string
	Task          string
	FinalFilename string
	FinalText     string
	CreatedAt     time.Time
	StepCount     int
	Steps         []StepRecord
}

// StepRecord is one step of a run's execution trace.
type StepRecord struct {
	Capability  string
	Instruction string
	Reason      string
	Filename    string
	Output      string
}

// Store manages the run history database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewStore creates or opens the run history store under dir.
func NewStore(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "runs.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		task TEXT NOT NULL,
		final_filename TEXT,
		final_text TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		step_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

	CREATE TABLE IF NOT EXISTS run_steps (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		capability TEXT NOT NULL,
		instruction TEXT NOT NULL,
		reason TEXT,
		filename TEXT,
		output TEXT NOT NULL,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);
	CREATE INDEX IF NOT EXISTS idx_run_steps_run ON run_steps(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordRun persists a run and its full execution trace atomically.
func (s *Store) RecordRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, task, final_filename, final_text, created_at, step_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Task, run.FinalFilename, run.FinalText, run.CreatedAt, len(run.Steps),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, step := range run.Steps {
		_, err = tx.Exec(`
			INSERT INTO run_steps (run_id, position, capability, instruction, reason, filename, output)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, step.Capability, step.Instruction, step.Reason, step.Filename, step.Output,
		)
		if err != nil {
			return fmt.Errorf("insert run step %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the newest runs, most recent first, without their step
// traces.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT id, task, final_filename, final_text, created_at, step_count
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var filename sql.NullString
		if err := rows.Scan(&run.ID, &run.Task, &filename, &run.FinalText, &run.CreatedAt, &run.StepCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.FinalFilename = filename.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunSteps returns the execution trace of one run in step order.
func (s *Store) RunSteps(runID string) ([]StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT capability, instruction, reason, filename, output
		FROM run_steps
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var step StepRecord
		var reason, filename sql.NullString
		if err := rows.Scan(&step.Capability, &step.Instruction, &reason, &filename, &step.Output); err != nil {
			return nil, fmt.Errorf("scan run step: %w", err)
		}
		step.Reason = reason.String
		step.Filename = filename.String
		steps = append(steps, step)
	}
	return steps, rows.Err()
}
