package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"jobpilot/internal/common"
	"jobpilot/internal/domain/model"
)

func newFileStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobpilot.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return s, path
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()

	job := &model.Job{ID: "job-1", Slug: "deploy", Goal: "deploy", Status: model.JobStatusPlanning, RiskLevel: model.RiskLow, RequireApproval: true}
	if err := s.Jobs().Create(ctx, nil, job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	steps := []*model.Step{
		{ID: "step-1", JobID: "job-1", StepIndex: 0, Role: model.RoleExecutor, Description: "build", Status: model.StepStatusPending},
	}
	if err := s.Steps().CreateBatch(ctx, nil, steps); err != nil {
		t.Fatalf("failed to create steps: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	got, err := reopened.Jobs().GetByID(ctx, "job-1")
	if err != nil {
		t.Fatalf("job not found after reopen: %v", err)
	}
	if got.Goal != "deploy" || got.Status != model.JobStatusPlanning {
		t.Errorf("unexpected job after reopen: %+v", got)
	}
	stepList, err := reopened.Steps().ListByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("failed to list steps after reopen: %v", err)
	}
	if len(stepList) != 1 || stepList[0].ID != "step-1" {
		t.Errorf("unexpected steps after reopen: %+v", stepList)
	}
}

func TestFileStoreLeavesNoTempFile(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()

	job := &model.Job{ID: "job-1", Goal: "g", Status: model.JobStatusPlanning, RiskLevel: model.RiskLow}
	if err := s.Jobs().Create(ctx, nil, job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind after write: %v", err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	job := &model.Job{ID: "job-1", Goal: "g", Status: model.JobStatusPlanning, RiskLevel: model.RiskLow}
	if err := s.Jobs().Create(ctx, nil, job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	got, err := s.Jobs().GetByID(ctx, "job-1")
	if err != nil {
		t.Fatalf("failed to get job: %v", err)
	}
	got.Status = model.JobStatusFailed // caller mutation must not leak into the store

	again, err := s.Jobs().GetByID(ctx, "job-1")
	if err != nil {
		t.Fatalf("failed to re-get job: %v", err)
	}
	if again.Status != model.JobStatusPlanning {
		t.Errorf("caller mutation leaked into the store: %s", again.Status)
	}
}

func TestResolveIsCompareAndSet(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	job := &model.Job{ID: "job-1", Goal: "g", Status: model.JobStatusRunning, RiskLevel: model.RiskLow}
	if err := s.Jobs().Create(ctx, nil, job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	task := &model.LocalTask{ID: "task-1", JobID: "job-1", Instructions: "ls", Status: model.TaskStatusPending}
	if err := s.LocalTasks().Create(ctx, nil, task); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	result := "ok"
	if _, err := s.LocalTasks().Resolve(ctx, nil, "task-1", model.TaskStatusCompleted, &result, nil); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	_, err := s.LocalTasks().Resolve(ctx, nil, "task-1", model.TaskStatusFailed, nil, nil)
	if !errors.Is(err, common.ErrInvalidState) {
		t.Fatalf("second resolve: got %v, want ErrInvalidState", err)
	}

	// First write must still be the stored state.
	got, err := s.LocalTasks().GetByID(ctx, "task-1")
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if got.Status != model.TaskStatusCompleted || got.Result == nil || *got.Result != "ok" {
		t.Errorf("first resolution was overwritten: %+v", got)
	}
}

func TestUnknownIDsReturnNotFound(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if _, err := s.Jobs().GetByID(ctx, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("jobs: got %v, want ErrNotFound", err)
	}
	if _, err := s.Steps().GetByID(ctx, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("steps: got %v, want ErrNotFound", err)
	}
	if _, err := s.LocalTasks().GetByID(ctx, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("local tasks: got %v, want ErrNotFound", err)
	}
}
