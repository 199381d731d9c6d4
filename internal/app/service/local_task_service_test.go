package service

import (
	"context"
	"errors"
	"testing"

	"jobpilot/internal/common"
	"jobpilot/internal/domain/model"
)

func TestCreateLocalTaskValidation(t *testing.T) {
	ctx := context.Background()
	for name, env := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := env.tasks.CreateTask(ctx, CreateLocalTaskInput{Instructions: "ls"}); !errors.Is(err, common.ErrValidation) {
				t.Errorf("missing job_id: got %v, want ErrValidation", err)
			}
			if _, err := env.tasks.CreateTask(ctx, CreateLocalTaskInput{JobID: "j", Instructions: " "}); !errors.Is(err, common.ErrValidation) {
				t.Errorf("blank instructions: got %v, want ErrValidation", err)
			}
			if _, err := env.tasks.CreateTask(ctx, CreateLocalTaskInput{JobID: "missing", Instructions: "ls"}); !errors.Is(err, common.ErrNotFound) {
				t.Errorf("unknown job: got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestPendingTasksOldestFirstAndNonDestructive(t *testing.T) {
	ctx := context.Background()
	for name, env := range backends(t) {
		t.Run(name, func(t *testing.T) {
			job, err := env.jobs.CreateJob(ctx, CreateJobInput{Goal: "g", RiskLevel: model.RiskLow})
			if err != nil {
				t.Fatalf("failed to create job: %v", err)
			}

			first, err := env.tasks.CreateTask(ctx, CreateLocalTaskInput{JobID: job.ID, Instructions: "echo one"})
			if err != nil {
				t.Fatalf("failed to create task: %v", err)
			}
			second, err := env.tasks.CreateTask(ctx, CreateLocalTaskInput{JobID: job.ID, Instructions: "echo two"})
			if err != nil {
				t.Fatalf("failed to create task: %v", err)
			}

			pending, err := env.tasks.PendingTasks(ctx)
			if err != nil {
				t.Fatalf("failed to list pending: %v", err)
			}
			if len(pending) != 2 || pending[0].ID != first.ID || pending[1].ID != second.ID {
				t.Fatalf("pending order wrong: %+v", pending)
			}

			// Reading the queue must not change it: a poller sees the same
			// task until someone resolves it.
			again, err := env.tasks.PendingTasks(ctx)
			if err != nil {
				t.Fatalf("failed to re-list pending: %v", err)
			}
			if len(again) != 2 {
				t.Errorf("non-destructive read changed the queue: %d tasks left", len(again))
			}
		})
	}
}

func TestSubmitResultResolvesOnce(t *testing.T) {
	ctx := context.Background()
	for name, env := range backends(t) {
		t.Run(name, func(t *testing.T) {
			job, err := env.jobs.CreateJob(ctx, CreateJobInput{Goal: "g", RiskLevel: model.RiskLow})
			if err != nil {
				t.Fatalf("failed to create job: %v", err)
			}
			task, err := env.tasks.CreateTask(ctx, CreateLocalTaskInput{JobID: job.ID, Instructions: "make deploy"})
			if err != nil {
				t.Fatalf("failed to create task: %v", err)
			}

			result, logs := "deployed", "42 resources"
			resolved, err := env.tasks.SubmitResult(ctx, task.ID, &result, &logs, true)
			if err != nil {
				t.Fatalf("submit failed: %v", err)
			}
			if resolved.Status != model.TaskStatusCompleted {
				t.Errorf("status = %s, want completed", resolved.Status)
			}
			if resolved.Result == nil || *resolved.Result != "deployed" {
				t.Errorf("result not stored: %+v", resolved.Result)
			}
			if resolved.Logs == nil || *resolved.Logs != "42 resources" {
				t.Errorf("logs not stored: %+v", resolved.Logs)
			}
			if resolved.UpdatedAt.Before(resolved.CreatedAt) {
				t.Error("updated_at precedes created_at")
			}

			// Two pollers racing: the second submission loses with an
			// InvalidState error and the first write stays.
			_, err = env.tasks.SubmitResult(ctx, task.ID, nil, nil, false)
			if !errors.Is(err, common.ErrInvalidState) {
				t.Fatalf("double submit: got %v, want ErrInvalidState", err)
			}

			pending, err := env.tasks.PendingTasks(ctx)
			if err != nil {
				t.Fatalf("failed to list pending: %v", err)
			}
			if len(pending) != 0 {
				t.Errorf("resolved task still pending")
			}
		})
	}
}

func TestSubmitResultFailureAndUnknownID(t *testing.T) {
	ctx := context.Background()
	for name, env := range backends(t) {
		t.Run(name, func(t *testing.T) {
			job, err := env.jobs.CreateJob(ctx, CreateJobInput{Goal: "g", RiskLevel: model.RiskLow})
			if err != nil {
				t.Fatalf("failed to create job: %v", err)
			}
			task, err := env.tasks.CreateTask(ctx, CreateLocalTaskInput{JobID: job.ID, Instructions: "make deploy"})
			if err != nil {
				t.Fatalf("failed to create task: %v", err)
			}

			logs := "exit status 1"
			resolved, err := env.tasks.SubmitResult(ctx, task.ID, nil, &logs, false)
			if err != nil {
				t.Fatalf("submit failed: %v", err)
			}
			if resolved.Status != model.TaskStatusFailed {
				t.Errorf("status = %s, want failed", resolved.Status)
			}

			if _, err := env.tasks.SubmitResult(ctx, "missing", nil, nil, true); !errors.Is(err, common.ErrNotFound) {
				t.Errorf("unknown task: got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestCreateLocalTaskLinksStep(t *testing.T) {
	ctx := context.Background()
	for name, env := range backends(t) {
		t.Run(name, func(t *testing.T) {
			job, err := env.jobs.CreateJob(ctx, CreateJobInput{Goal: "g", RiskLevel: model.RiskLow})
			if err != nil {
				t.Fatalf("failed to create job: %v", err)
			}
			steps, err := env.steps.CreateStepsForJob(ctx, job.ID, []StepInput{{Role: model.RoleLocalExecutor, Description: "run locally"}})
			if err != nil {
				t.Fatalf("failed to create steps: %v", err)
			}

			task, err := env.tasks.CreateTask(ctx, CreateLocalTaskInput{JobID: job.ID, StepID: &steps[0].ID, Instructions: "npm test"})
			if err != nil {
				t.Fatalf("failed to create task: %v", err)
			}
			if task.StepID == nil || *task.StepID != steps[0].ID {
				t.Errorf("step link not stored: %+v", task.StepID)
			}

			missing := "missing-step"
			if _, err := env.tasks.CreateTask(ctx, CreateLocalTaskInput{JobID: job.ID, StepID: &missing, Instructions: "x"}); !errors.Is(err, common.ErrNotFound) {
				t.Errorf("unknown step: got %v, want ErrNotFound", err)
			}
		})
	}
}
