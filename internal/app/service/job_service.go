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
	"github.com/gosimple/slug"
)

// JobService owns the job state machine. It is the only component that
// mutates job status fields; handlers and agents go through it.
type JobService struct {
	jobRepo  repository.JobRepository
	stepRepo repository.StepRepository
	notifier *NotifierService
	db       *sql.DB // nil for the document/memory backends
}

func NewJobService(jobRepo repository.JobRepository, stepRepo repository.StepRepository, notifier *NotifierService, db *sql.DB) *JobService {
	return &JobService{jobRepo: jobRepo, stepRepo: stepRepo, notifier: notifier, db: db}
}

type CreateJobInput struct {
	Goal            string          `json:"goal"`
	RiskLevel       model.RiskLevel `json:"risk_level"`
	RequireApproval *bool           `json:"require_approval"`
}

// JobDetail embeds a job's ordered steps for the detail endpoint.
type JobDetail struct {
	model.Job
	Steps []model.Step `json:"steps"`
}

func (s *JobService) CreateJob(ctx context.Context, in CreateJobInput) (*model.Job, error) {
	goal := strings.TrimSpace(in.Goal)
	if goal == "" {
		return nil, common.Errorf("goal must not be empty: %w", common.ErrValidation)
	}
	riskLevel := in.RiskLevel
	if riskLevel == "" {
		riskLevel = model.RiskMedium
	}
	if !model.ValidRiskLevel(riskLevel) {
		return nil, common.Errorf("risk_level %q must be one of low, medium, high: %w", in.RiskLevel, common.ErrValidation)
	}

	requireApproval := true // approval gate is opt-out, not opt-in
	if in.RequireApproval != nil {
		requireApproval = *in.RequireApproval
	}

	job := &model.Job{
		ID:              uuid.NewString(),
		Slug:            slug.Make(goal),
		Goal:            goal,
		Status:          model.JobStatusPlanning,
		RiskLevel:       riskLevel,
		RequireApproval: requireApproval,
	}
	if err := s.jobRepo.Create(ctx, nil, job); err != nil {
		return nil, common.Errorf("create job: %w", err)
	}
	log.Printf("INFO: Job %s created (risk %s, approval required: %t)", job.ID, job.RiskLevel, job.RequireApproval)
	return job, nil
}

func (s *JobService) ListJobs(ctx context.Context) ([]model.Job, error) {
	return s.jobRepo.List(ctx)
}

func (s *JobService) GetJob(ctx context.Context, id string) (*JobDetail, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	steps, err := s.stepRepo.ListByJobID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &JobDetail{Job: *job, Steps: steps}, nil
}

// UpdateStatus is the generic transition path used by the planning engine.
// The target is validated against the status enum, deliberately not against a
// per-state reachability table; approve, request-changes and reject carry
// their own stricter preconditions.
func (s *JobService) UpdateStatus(ctx context.Context, id string, target model.JobStatus) (*model.Job, error) {
	if !model.ValidJobStatus(target) {
		return nil, common.Errorf("status %q is not one of %v: %w", target, model.JobStatuses, common.ErrInvalidTransition)
	}
	job, err := s.jobRepo.UpdateStatus(ctx, nil, id, target)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: Job %s transitioned to %s", job.ID, job.Status)
	return job, nil
}

// Approve moves a job waiting at the approval gate back into execution.
func (s *JobService) Approve(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusWaitingApproval {
		return nil, common.Errorf("cannot approve job in status %q, must be %q: %w",
			job.Status, model.JobStatusWaitingApproval, common.ErrInvalidState)
	}
	job, err = s.jobRepo.UpdateStatus(ctx, nil, id, model.JobStatusRunning)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, WorkflowEvent{Type: EventJobApproved, JobID: job.ID, Status: job.Status})
	log.Printf("INFO: Job %s approved", job.ID)
	return job, nil
}

// RequestChanges sends a waiting job back to planning. Feedback is advisory:
// it is logged and forwarded to the workflow engine, never validated.
func (s *JobService) RequestChanges(ctx context.Context, id, feedback string) (*model.Job, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusWaitingApproval {
		return nil, common.Errorf("cannot request changes on job in status %q, must be %q: %w",
			job.Status, model.JobStatusWaitingApproval, common.ErrInvalidState)
	}
	job, err = s.jobRepo.UpdateStatus(ctx, nil, id, model.JobStatusPlanning)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, WorkflowEvent{Type: EventChangesRequested, JobID: job.ID, Status: job.Status, Detail: feedback})
	log.Printf("INFO: Changes requested on job %s: %s", job.ID, feedback)
	return job, nil
}

// Reject is legal from any non-terminal status and is itself terminal.
func (s *JobService) Reject(ctx context.Context, id, reason string) (*model.Job, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return nil, common.Errorf("cannot reject job in terminal status %q: %w", job.Status, common.ErrInvalidState)
	}
	job, err = s.jobRepo.UpdateStatus(ctx, nil, id, model.JobStatusRejected)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, WorkflowEvent{Type: EventJobRejected, JobID: job.ID, Status: job.Status, Detail: reason})
	log.Printf("INFO: Job %s rejected: %s", job.ID, reason)
	return job, nil
}
