package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLRunRepository records one row per scan run
type SQLRunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *SQLRunRepository {
	return &SQLRunRepository{db: db}
}

// StartRun inserts a running row and returns its id
func (r *SQLRunRepository) StartRun(mode string, watermarkBefore int) (string, error) {
	id := uuid.NewString()

	_, err := r.db.Exec(`
		INSERT INTO runs (id, mode, status, watermark_before, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, mode, string(RunStatusRunning), watermarkBefore, time.Now().UTC())

	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	return id, nil
}

// FinishRun stores the outcome of a run
func (r *SQLRunRepository) FinishRun(id string, stats RunStats) error {
	res, err := r.db.Exec(`
		UPDATE runs
		SET status = ?, watermark_after = ?, listed = ?, selected = ?, reported = ?,
		    failed = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, string(stats.Status), stats.WatermarkAfter, stats.Listed, stats.Selected, stats.Reported,
		stats.Failed, stats.Error, time.Now().UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}

	return nil
}

// GetLastRun returns the most recently started run, or nil
func (r *SQLRunRepository) GetLastRun() (*Run, error) {
	var (
		run        Run
		status     string
		finishedAt sql.NullTime
	)

	err := r.db.QueryRow(`
		SELECT id, mode, status, watermark_before, watermark_after, listed, selected,
		       reported, failed, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(
		&run.ID, &run.Mode, &status, &run.WatermarkBefore, &run.WatermarkAfter, &run.Listed,
		&run.Selected, &run.Reported, &run.Failed, &run.Error, &run.StartedAt, &finishedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	run.Status = RunStatus(status)
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	return &run, nil
}

// GetRunCount returns the number of recorded runs
func (r *SQLRunRepository) GetRunCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get run count: %w", err)
	}
	return count, nil
}
