package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"jobpilot/internal/common"
	"jobpilot/internal/domain/model"
)

type StepRepository interface {
	// CreateBatch inserts an ordered batch of steps for one job atomically.
	// The relational backend must be handed an open transaction so a partial
	// insert rolls back; the file store writes the whole batch in one file write.
	CreateBatch(ctx context.Context, tx *sql.Tx, steps []*model.Step) error
	GetByID(ctx context.Context, id string) (*model.Step, error)
	// ListByJobID returns the job's steps ordered by step_index ascending.
	ListByJobID(ctx context.Context, jobID string) ([]model.Step, error)
	// NextPending returns the lowest-index pending step, or nil when none
	// remain. The empty case is not an error.
	NextPending(ctx context.Context, jobID string) (*model.Step, error)
	// Update applies a partial update; nil fields in upd leave the stored
	// values untouched. updated_at is server-assigned.
	Update(ctx context.Context, tx *sql.Tx, id string, upd model.StepUpdate) (*model.Step, error)
	IncrementFixAttempts(ctx context.Context, tx *sql.Tx, id string) (*model.Step, error)
}

type pgStepRepository struct {
	db *sql.DB
}

func NewPgStepRepository(db *sql.DB) StepRepository {
	return &pgStepRepository{db: db}
}

const stepColumns = `id, job_id, step_index, role, description, status, logs, evidence, fix_attempts, created_at, updated_at`

func scanStep(row interface{ Scan(...any) error }) (*model.Step, error) {
	s := &model.Step{}
	err := row.Scan(&s.ID, &s.JobID, &s.StepIndex, &s.Role, &s.Description, &s.Status,
		&s.Logs, &s.Evidence, &s.FixAttempts, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *pgStepRepository) CreateBatch(ctx context.Context, tx *sql.Tx, steps []*model.Step) error {
	if len(steps) == 0 {
		return nil
	}
	query := `INSERT INTO steps (id, job_id, step_index, role, description, status)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("pgStepRepository.CreateBatch prepare: %v: %w", err, common.ErrStorage)
	}
	defer stmt.Close()

	for _, s := range steps {
		if err := stmt.QueryRowContext(ctx, s.ID, s.JobID, s.StepIndex, s.Role, s.Description, s.Status).
			Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
			return fmt.Errorf("pgStepRepository.CreateBatch exec for step %d: %v: %w", s.StepIndex, err, common.ErrStorage)
		}
	}
	return nil
}

func (r *pgStepRepository) GetByID(ctx context.Context, id string) (*model.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE id = $1`
	step, err := scanStep(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("step %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgStepRepository.GetByID: %v: %w", err, common.ErrStorage)
	}
	return step, nil
}

func (r *pgStepRepository) ListByJobID(ctx context.Context, jobID string) ([]model.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE job_id = $1 ORDER BY step_index ASC`
	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("pgStepRepository.ListByJobID query: %v: %w", err, common.ErrStorage)
	}
	defer rows.Close()

	steps := []model.Step{}
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("pgStepRepository.ListByJobID scan: %v: %w", err, common.ErrStorage)
		}
		steps = append(steps, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgStepRepository.ListByJobID rows.Err: %v: %w", err, common.ErrStorage)
	}
	return steps, nil
}

func (r *pgStepRepository) NextPending(ctx context.Context, jobID string) (*model.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps
	          WHERE job_id = $1 AND status = $2
	          ORDER BY step_index ASC LIMIT 1`
	step, err := scanStep(r.db.QueryRowContext(ctx, query, jobID, model.StepStatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // no pending steps left
		}
		return nil, fmt.Errorf("pgStepRepository.NextPending: %v: %w", err, common.ErrStorage)
	}
	return step, nil
}

func (r *pgStepRepository) Update(ctx context.Context, tx *sql.Tx, id string, upd model.StepUpdate) (*model.Step, error) {
	// COALESCE keeps stored logs/evidence when the caller did not supply them.
	query := `UPDATE steps SET
	            status = COALESCE($1, status),
	            logs = COALESCE($2, logs),
	            evidence = COALESCE($3, evidence),
	            updated_at = now()
	          WHERE id = $4
	          RETURNING ` + stepColumns

	step, err := scanStep(queryRow(r.db, tx, ctx, query, upd.Status, upd.Logs, upd.Evidence, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("step %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgStepRepository.Update: %v: %w", err, common.ErrStorage)
	}
	return step, nil
}

func (r *pgStepRepository) IncrementFixAttempts(ctx context.Context, tx *sql.Tx, id string) (*model.Step, error) {
	query := `UPDATE steps SET fix_attempts = fix_attempts + 1, updated_at = now()
	          WHERE id = $1
	          RETURNING ` + stepColumns

	step, err := scanStep(queryRow(r.db, tx, ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("step %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgStepRepository.IncrementFixAttempts: %v: %w", err, common.ErrStorage)
	}
	return step, nil
}
