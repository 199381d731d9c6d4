package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"jobpilot/internal/common"
	"jobpilot/internal/domain/model"
)

// JobRepository is the storage capability contract for jobs. Both the
// Postgres implementation below and the file/memory stores satisfy it with
// identical observable behavior; tx is nil outside a transaction and is
// ignored by the non-relational backends.
type JobRepository interface {
	Create(ctx context.Context, tx *sql.Tx, job *model.Job) error
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// List returns all jobs newest-created-first.
	List(ctx context.Context) ([]model.Job, error)
	// UpdateStatus writes the new status with a server-assigned updated_at and
	// returns the refreshed record.
	UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status model.JobStatus) (*model.Job, error)
}

type pgJobRepository struct {
	db *sql.DB
}

func NewPgJobRepository(db *sql.DB) JobRepository {
	return &pgJobRepository{db: db}
}

const jobColumns = `id, slug, goal, status, risk_level, require_approval, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (*model.Job, error) {
	j := &model.Job{}
	err := row.Scan(&j.ID, &j.Slug, &j.Goal, &j.Status, &j.RiskLevel, &j.RequireApproval, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *pgJobRepository) Create(ctx context.Context, tx *sql.Tx, job *model.Job) error {
	query := `INSERT INTO jobs (id, slug, goal, status, risk_level, require_approval)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`

	row := queryRow(r.db, tx, ctx, query, job.ID, job.Slug, job.Goal, job.Status, job.RiskLevel, job.RequireApproval)
	if err := row.Scan(&job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("pgJobRepository.Create: %v: %w", err, common.ErrStorage)
	}
	return nil
}

func (r *pgJobRepository) GetByID(ctx context.Context, id string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgJobRepository.GetByID: %v: %w", err, common.ErrStorage)
	}
	return job, nil
}

func (r *pgJobRepository) List(ctx context.Context) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgJobRepository.List query: %v: %w", err, common.ErrStorage)
	}
	defer rows.Close()

	jobs := []model.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("pgJobRepository.List scan: %v: %w", err, common.ErrStorage)
		}
		jobs = append(jobs, *j)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgJobRepository.List rows.Err: %v: %w", err, common.ErrStorage)
	}
	return jobs, nil
}

func (r *pgJobRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status model.JobStatus) (*model.Job, error) {
	query := `UPDATE jobs SET status = $1, updated_at = now() WHERE id = $2
	          RETURNING ` + jobColumns

	job, err := scanJob(queryRow(r.db, tx, ctx, query, status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgJobRepository.UpdateStatus: %v: %w", err, common.ErrStorage)
	}
	return job, nil
}

// queryRow routes through the transaction when one is open.
func queryRow(db *sql.DB, tx *sql.Tx, ctx context.Context, query string, args ...any) *sql.Row {
	if tx != nil {
		return tx.QueryRowContext(ctx, query, args...)
	}
	return db.QueryRowContext(ctx, query, args...)
}
