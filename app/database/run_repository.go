package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// RunRepository persists generation run history.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// InsertRun records a newly started generation run.
func (r *RunRepository) InsertRun(run *GenerationRun) error {
	outcomes, err := json.Marshal(run.Outcomes)
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	if run.Outcomes == nil {
		outcomes = []byte("[]")
	}

	_, err = r.db.Exec(`
		INSERT INTO generation_runs (id, status, lookahead_days, started_at, total_units, succeeded, skipped, failed, message, outcomes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Status, run.LookaheadDays, run.StartedAt.UTC().Format(time.RFC3339),
		run.TotalUnits, run.Succeeded, run.Skipped, run.Failed, run.Message, string(outcomes))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// FinalizeRun updates a run with its terminal status and outcome list.
func (r *RunRepository) FinalizeRun(run *GenerationRun) error {
	outcomes, err := json.Marshal(run.Outcomes)
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	if run.Outcomes == nil {
		outcomes = []byte("[]")
	}

	var finishedAt interface{}
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	}

	_, err = r.db.Exec(`
		UPDATE generation_runs
		SET status = ?, finished_at = ?, total_units = ?, succeeded = ?, skipped = ?, failed = ?, message = ?, outcomes = ?
		WHERE id = ?
	`, run.Status, finishedAt, run.TotalUnits, run.Succeeded, run.Skipped, run.Failed,
		run.Message, string(outcomes), run.ID)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by id.
func (r *RunRepository) GetRun(id string) (*GenerationRun, error) {
	row := r.db.QueryRow(`
		SELECT id, status, lookahead_days, started_at, finished_at, total_units, succeeded, skipped, failed, message, outcomes
		FROM generation_runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// GetLastRun returns the most recently started run, or nil when none exist.
func (r *RunRepository) GetLastRun() (*GenerationRun, error) {
	row := r.db.QueryRow(`
		SELECT id, status, lookahead_days, started_at, finished_at, total_units, succeeded, skipped, failed, message, outcomes
		FROM generation_runs
		ORDER BY started_at DESC
		LIMIT 1
	`)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	return run, nil
}

// ListRuns returns up to limit runs, newest first.
func (r *RunRepository) ListRuns(limit int) ([]GenerationRun, error) {
	rows, err := r.db.Query(`
		SELECT id, status, lookahead_days, started_at, finished_at, total_units, succeeded, skipped, failed, message, outcomes
		FROM generation_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []GenerationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*GenerationRun, error) {
	var run GenerationRun
	var startedAt string
	var finishedAt sql.NullString
	var outcomes string

	err := row.Scan(
		&run.ID, &run.Status, &run.LookaheadDays, &startedAt, &finishedAt,
		&run.TotalUnits, &run.Succeeded, &run.Skipped, &run.Failed, &run.Message, &outcomes,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if finishedAt.Valid {
		t, err := time.Parse(time.RFC3339, finishedAt.String)
		if err == nil {
			run.FinishedAt = &t
		}
	}

	if err := json.Unmarshal([]byte(outcomes), &run.Outcomes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outcomes: %w", err)
	}

	return &run, nil
}
