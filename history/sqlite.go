package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a Store backed by a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens (or creates) the history database at path and applies the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		service TEXT NOT NULL,
		environment TEXT NOT NULL,
		dry_run INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		image_tag TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS stage_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		ok INTEGER NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		recorded_at DATETIME NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_service ON runs(service, environment);
	CREATE INDEX IF NOT EXISTS idx_stage_results_run_id ON stage_results(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// CreateRun inserts a new run record, assigning an ID if the caller has not.
func (s *SQLiteStore) CreateRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, service, environment, dry_run, state, reason, image_tag, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	`, run.ID, run.Service, run.Environment, boolToInt(run.DryRun), run.State, run.Reason, run.ImageTag, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun updates the terminal state, reason and timing of a run.
func (s *SQLiteStore) FinishRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if run.FinishedAt == nil {
		run.FinishedAt = &now
	}
	run.DurationMs = run.FinishedAt.Sub(run.StartedAt).Milliseconds()

	_, err := s.db.Exec(`
		UPDATE runs SET state = ?, reason = ?, image_tag = ?, finished_at = ?, duration_ms = ? WHERE id = ?
	`, run.State, run.Reason, run.ImageTag, run.FinishedAt, run.DurationMs, run.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// RecordStage appends a stage result for the run.
func (s *SQLiteStore) RecordStage(runID string, res StageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.RecordedAt.IsZero() {
		res.RecordedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO stage_results (run_id, stage, ok, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, runID, res.Stage, boolToInt(res.OK), res.Detail, res.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert stage result: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT id, service, environment, dry_run, state, reason, image_tag, started_at, finished_at, duration_ms
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var dryRun int
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Service, &r.Environment, &dryRun, &r.State, &r.Reason,
			&r.ImageTag, &r.StartedAt, &finished, &r.DurationMs); err != nil {
			return nil, err
		}
		r.DryRun = dryRun != 0
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// StageResults returns the recorded stage results for a run, oldest first.
func (s *SQLiteStore) StageResults(runID string) ([]StageResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT stage, ok, detail, recorded_at FROM stage_results
		WHERE run_id = ? ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list stage results: %w", err)
	}
	defer rows.Close()

	var results []StageResult
	for rows.Next() {
		var res StageResult
		var ok int
		if err := rows.Scan(&res.Stage, &ok, &res.Detail, &res.RecordedAt); err != nil {
			return nil, err
		}
		res.OK = ok != 0
		results = append(results, res)
	}
	return results, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
