package database

import (
	"database/sql"
	"fmt"

	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

const batchRunColumns = `id, status, universe_size, group_size, processed, succeeded, failed, started_at, finished_at`

// CreateBatchRun inserts the record of a run that has just started
func (db *DB) CreateBatchRun(run *models.BatchRun) error {
	query := `
		INSERT INTO batch_runs (` + batchRunColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := db.conn.Exec(query,
		run.ID, run.Status, run.UniverseSize, run.GroupSize,
		run.Processed, run.Succeeded, run.Failed, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create batch run: %w", err)
	}
	return nil
}

// FinishBatchRun stores the final status and tallies of a run
func (db *DB) FinishBatchRun(run *models.BatchRun) error {
	query := `
		UPDATE batch_runs
		SET status = $2, processed = $3, succeeded = $4, failed = $5, finished_at = $6
		WHERE id = $1
	`
	result, err := db.conn.Exec(query,
		run.ID, run.Status, run.Processed, run.Succeeded, run.Failed, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to finish batch run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("batch run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// GetBatchRun retrieves a run by id
func (db *DB) GetBatchRun(id string) (*models.BatchRun, error) {
	query := `SELECT ` + batchRunColumns + ` FROM batch_runs WHERE id = $1`

	run, err := scanBatchRun(db.conn.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("batch run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch run: %w", err)
	}
	return run, nil
}

// GetLatestBatchRun retrieves the most recently started run
func (db *DB) GetLatestBatchRun() (*models.BatchRun, error) {
	query := `SELECT ` + batchRunColumns + ` FROM batch_runs ORDER BY started_at DESC LIMIT 1`

	run, err := scanBatchRun(db.conn.QueryRow(query))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("latest batch run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest batch run: %w", err)
	}
	return run, nil
}

// ListBatchRuns returns up to limit runs, newest first
func (db *DB) ListBatchRuns(limit int) ([]*models.BatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + batchRunColumns + ` FROM batch_runs ORDER BY started_at DESC LIMIT $1`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.BatchRun
	for rows.Next() {
		run, err := scanBatchRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate batch runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBatchRun(row rowScanner) (*models.BatchRun, error) {
	var run models.BatchRun
	var finishedAt sql.NullTime

	err := row.Scan(
		&run.ID, &run.Status, &run.UniverseSize, &run.GroupSize,
		&run.Processed, &run.Succeeded, &run.Failed, &run.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt = run.StartedAt.UTC()
	if finishedAt.Valid {
		t := finishedAt.Time.UTC()
		run.FinishedAt = &t
	}
	return &run, nil
}
