package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"jobpilot/internal/common"
	"jobpilot/internal/domain/model"
)

type LocalTaskRepository interface {
	Create(ctx context.Context, tx *sql.Tx, task *model.LocalTask) error
	GetByID(ctx context.Context, id string) (*model.LocalTask, error)
	// ListPending returns pending tasks oldest-created-first. The read is
	// non-destructive: a poller may observe the same task until it resolves.
	ListPending(ctx context.Context) ([]model.LocalTask, error)
	// Resolve transitions a task out of pending exactly once, as an atomic
	// compare-and-set on status. A task that is already resolved yields
	// ErrInvalidState reporting its current status.
	Resolve(ctx context.Context, tx *sql.Tx, id string, status model.LocalTaskStatus, result, logs *string) (*model.LocalTask, error)
}

type pgLocalTaskRepository struct {
	db *sql.DB
}

func NewPgLocalTaskRepository(db *sql.DB) LocalTaskRepository {
	return &pgLocalTaskRepository{db: db}
}

const taskColumns = `id, job_id, step_id, instructions, status, result, logs, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*model.LocalTask, error) {
	t := &model.LocalTask{}
	err := row.Scan(&t.ID, &t.JobID, &t.StepID, &t.Instructions, &t.Status, &t.Result, &t.Logs, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *pgLocalTaskRepository) Create(ctx context.Context, tx *sql.Tx, task *model.LocalTask) error {
	query := `INSERT INTO local_tasks (id, job_id, step_id, instructions, status)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at, updated_at`

	row := queryRow(r.db, tx, ctx, query, task.ID, task.JobID, task.StepID, task.Instructions, task.Status)
	if err := row.Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return fmt.Errorf("pgLocalTaskRepository.Create: %v: %w", err, common.ErrStorage)
	}
	return nil
}

func (r *pgLocalTaskRepository) GetByID(ctx context.Context, id string) (*model.LocalTask, error) {
	query := `SELECT ` + taskColumns + ` FROM local_tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("local task %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgLocalTaskRepository.GetByID: %v: %w", err, common.ErrStorage)
	}
	return task, nil
}

func (r *pgLocalTaskRepository) ListPending(ctx context.Context) ([]model.LocalTask, error) {
	query := `SELECT ` + taskColumns + ` FROM local_tasks WHERE status = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, model.TaskStatusPending)
	if err != nil {
		return nil, fmt.Errorf("pgLocalTaskRepository.ListPending query: %v: %w", err, common.ErrStorage)
	}
	defer rows.Close()

	tasks := []model.LocalTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("pgLocalTaskRepository.ListPending scan: %v: %w", err, common.ErrStorage)
		}
		tasks = append(tasks, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLocalTaskRepository.ListPending rows.Err: %v: %w", err, common.ErrStorage)
	}
	return tasks, nil
}

func (r *pgLocalTaskRepository) Resolve(ctx context.Context, tx *sql.Tx, id string, status model.LocalTaskStatus, result, logs *string) (*model.LocalTask, error) {
	// The WHERE status = 'pending' clause is the compare-and-set that turns
	// at-least-once delivery into exactly-once resolution: only the first
	// submission matches a row.
	query := `UPDATE local_tasks SET status = $1, result = $2, logs = $3, updated_at = now()
	          WHERE id = $4 AND status = $5
	          RETURNING ` + taskColumns

	task, err := scanTask(queryRow(r.db, tx, ctx, query, status, result, logs, id, model.TaskStatusPending))
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pgLocalTaskRepository.Resolve: %v: %w", err, common.ErrStorage)
	}

	// Either the task does not exist or it has already been resolved; a second
	// read distinguishes the two for a useful error.
	existing, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("local task %s already resolved (status %s): %w", id, existing.Status, common.ErrInvalidState)
}
