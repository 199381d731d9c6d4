package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"jobpilot/internal/common"
	"jobpilot/internal/domain/model"
	"jobpilot/internal/domain/repository"
)

// Jobs exposes the store's job collection through the shared repository
// contract. The tx argument is part of the contract for the relational
// backend and is ignored here.
func (s *Store) Jobs() repository.JobRepository {
	return jobView{s}
}

type jobView struct {
	s *Store
}

func (v jobView) Create(ctx context.Context, _ *sql.Tx, job *model.Job) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	ts := now()
	job.CreatedAt = ts
	job.UpdatedAt = ts
	v.s.state.Jobs = append(v.s.state.Jobs, cloneJob(job))
	if err := v.s.persist(); err != nil {
		v.s.state.Jobs = v.s.state.Jobs[:len(v.s.state.Jobs)-1]
		return err
	}
	return nil
}

func (v jobView) GetByID(ctx context.Context, id string) (*model.Job, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	j := v.s.findJob(id)
	if j == nil {
		return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	return cloneJob(j), nil
}

func (v jobView) List(ctx context.Context) ([]model.Job, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	// Newest first. Walking the slice backwards before the stable sort makes
	// insertion order break timestamp ties, since the clock has finite
	// resolution.
	jobs := make([]model.Job, 0, len(v.s.state.Jobs))
	for i := len(v.s.state.Jobs) - 1; i >= 0; i-- {
		jobs = append(jobs, *cloneJob(v.s.state.Jobs[i]))
	}
	sort.SliceStable(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
	})
	return jobs, nil
}

func (v jobView) UpdateStatus(ctx context.Context, _ *sql.Tx, id string, status model.JobStatus) (*model.Job, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	j := v.s.findJob(id)
	if j == nil {
		return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	prev := *j
	j.Status = status
	j.UpdatedAt = now()
	if err := v.s.persist(); err != nil {
		*j = prev
		return nil, err
	}
	return cloneJob(j), nil
}
