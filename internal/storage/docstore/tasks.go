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

func (s *Store) LocalTasks() repository.LocalTaskRepository {
	return taskView{s}
}

type taskView struct {
	s *Store
}

func (v taskView) Create(ctx context.Context, _ *sql.Tx, task *model.LocalTask) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	ts := now()
	task.CreatedAt = ts
	task.UpdatedAt = ts
	v.s.state.LocalTasks = append(v.s.state.LocalTasks, cloneTask(task))
	if err := v.s.persist(); err != nil {
		v.s.state.LocalTasks = v.s.state.LocalTasks[:len(v.s.state.LocalTasks)-1]
		return err
	}
	return nil
}

func (v taskView) GetByID(ctx context.Context, id string) (*model.LocalTask, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	t := v.s.findTask(id)
	if t == nil {
		return nil, fmt.Errorf("local task %s: %w", id, common.ErrNotFound)
	}
	return cloneTask(t), nil
}

func (v taskView) ListPending(ctx context.Context) ([]model.LocalTask, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	tasks := []model.LocalTask{}
	for _, t := range v.s.state.LocalTasks {
		if t.Status == model.TaskStatusPending {
			tasks = append(tasks, *cloneTask(t))
		}
	}
	// Oldest first; insertion order breaks timestamp ties.
	sort.SliceStable(tasks, func(i, k int) bool {
		return tasks[i].CreatedAt.Before(tasks[k].CreatedAt)
	})
	return tasks, nil
}

func (v taskView) Resolve(ctx context.Context, _ *sql.Tx, id string, status model.LocalTaskStatus, result, logs *string) (*model.LocalTask, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	t := v.s.findTask(id)
	if t == nil {
		return nil, fmt.Errorf("local task %s: %w", id, common.ErrNotFound)
	}
	// Compare-and-set under the store mutex: the first submission wins.
	if t.Status != model.TaskStatusPending {
		return nil, fmt.Errorf("local task %s already resolved (status %s): %w", id, t.Status, common.ErrInvalidState)
	}
	prev := *t
	t.Status = status
	t.Result = cloneStr(result)
	t.Logs = cloneStr(logs)
	t.UpdatedAt = now()
	if err := v.s.persist(); err != nil {
		*t = prev
		return nil, err
	}
	return cloneTask(t), nil
}
