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

func (s *Store) Steps() repository.StepRepository {
	return stepView{s}
}

type stepView struct {
	s *Store
}

func (v stepView) CreateBatch(ctx context.Context, _ *sql.Tx, steps []*model.Step) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	ts := now()
	prevLen := len(v.s.state.Steps)
	for _, st := range steps {
		st.CreatedAt = ts
		st.UpdatedAt = ts
		v.s.state.Steps = append(v.s.state.Steps, cloneStep(st))
	}
	// One whole-file write makes the batch all-or-nothing.
	if err := v.s.persist(); err != nil {
		v.s.state.Steps = v.s.state.Steps[:prevLen]
		return err
	}
	return nil
}

func (v stepView) GetByID(ctx context.Context, id string) (*model.Step, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	st := v.s.findStep(id)
	if st == nil {
		return nil, fmt.Errorf("step %s: %w", id, common.ErrNotFound)
	}
	return cloneStep(st), nil
}

func (v stepView) ListByJobID(ctx context.Context, jobID string) ([]model.Step, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	steps := []model.Step{}
	for _, st := range v.s.state.Steps {
		if st.JobID == jobID {
			steps = append(steps, *cloneStep(st))
		}
	}
	sort.Slice(steps, func(i, k int) bool { return steps[i].StepIndex < steps[k].StepIndex })
	return steps, nil
}

func (v stepView) NextPending(ctx context.Context, jobID string) (*model.Step, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var next *model.Step
	for _, st := range v.s.state.Steps {
		if st.JobID != jobID || st.Status != model.StepStatusPending {
			continue
		}
		if next == nil || st.StepIndex < next.StepIndex {
			next = st
		}
	}
	if next == nil {
		return nil, nil
	}
	return cloneStep(next), nil
}

func (v stepView) Update(ctx context.Context, _ *sql.Tx, id string, upd model.StepUpdate) (*model.Step, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	st := v.s.findStep(id)
	if st == nil {
		return nil, fmt.Errorf("step %s: %w", id, common.ErrNotFound)
	}
	prev := *st
	if upd.Status != nil {
		st.Status = *upd.Status
	}
	if upd.Logs != nil {
		st.Logs = cloneStr(upd.Logs)
	}
	if upd.Evidence != nil {
		st.Evidence = cloneStr(upd.Evidence)
	}
	st.UpdatedAt = now()
	if err := v.s.persist(); err != nil {
		*st = prev
		return nil, err
	}
	return cloneStep(st), nil
}

func (v stepView) IncrementFixAttempts(ctx context.Context, _ *sql.Tx, id string) (*model.Step, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	st := v.s.findStep(id)
	if st == nil {
		return nil, fmt.Errorf("step %s: %w", id, common.ErrNotFound)
	}
	prev := *st
	st.FixAttempts++
	st.UpdatedAt = now()
	if err := v.s.persist(); err != nil {
		*st = prev
		return nil, err
	}
	return cloneStep(st), nil
}
