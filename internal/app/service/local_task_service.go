package service

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"jobpilot/internal/common"
	"jobpilot/internal/domain/model"
	"jobpilot/internal/domain/repository"

	"github.com/google/uuid"
)

// LocalTaskService is the work-queue boundary for locally running executor
// agents: non-destructive polling reads, single resolution per task.
type LocalTaskService struct {
	taskRepo repository.LocalTaskRepository
	jobRepo  repository.JobRepository
	stepRepo repository.StepRepository
	notifier *NotifierService
	db       *sql.DB // nil for the document/memory backends
}

func NewLocalTaskService(taskRepo repository.LocalTaskRepository, jobRepo repository.JobRepository, stepRepo repository.StepRepository, notifier *NotifierService, db *sql.DB) *LocalTaskService {
	return &LocalTaskService{taskRepo: taskRepo, jobRepo: jobRepo, stepRepo: stepRepo, notifier: notifier, db: db}
}

type CreateLocalTaskInput struct {
	JobID        string  `json:"job_id"`
	StepID       *string `json:"step_id"`
	Instructions string  `json:"instructions"`
}

func (s *LocalTaskService) CreateTask(ctx context.Context, in CreateLocalTaskInput) (*model.LocalTask, error) {
	if strings.TrimSpace(in.JobID) == "" {
		return nil, common.Errorf("job_id is required: %w", common.ErrValidation)
	}
	if strings.TrimSpace(in.Instructions) == "" {
		return nil, common.Errorf("instructions are required: %w", common.ErrValidation)
	}
	if _, err := s.jobRepo.GetByID(ctx, in.JobID); err != nil {
		return nil, err
	}
	if in.StepID != nil {
		if _, err := s.stepRepo.GetByID(ctx, *in.StepID); err != nil {
			return nil, err
		}
	}

	task := &model.LocalTask{
		ID:           uuid.NewString(),
		JobID:        in.JobID,
		StepID:       in.StepID,
		Instructions: in.Instructions,
		Status:       model.TaskStatusPending,
	}
	if err := s.taskRepo.Create(ctx, nil, task); err != nil {
		return nil, common.Errorf("create local task: %w", err)
	}
	log.Printf("INFO: Local task %s queued for job %s", task.ID, task.JobID)
	return task, nil
}

// PendingTasks is the whole queue-pop protocol: oldest first, no hidden status
// change on read. Concurrent pollers may both see the same task; the
// compare-and-set in SubmitResult decides who resolved it.
func (s *LocalTaskService) PendingTasks(ctx context.Context) ([]model.LocalTask, error) {
	return s.taskRepo.ListPending(ctx)
}

func (s *LocalTaskService) SubmitResult(ctx context.Context, id string, result, logs *string, success bool) (*model.LocalTask, error) {
	status := model.TaskStatusCompleted
	if !success {
		status = model.TaskStatusFailed
	}
	task, err := s.taskRepo.Resolve(ctx, nil, id, status, result, logs)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, WorkflowEvent{Type: EventTaskResolved, JobID: task.JobID, Detail: string(task.Status)})
	log.Printf("INFO: Local task %s resolved as %s", task.ID, task.Status)
	return task, nil
}
