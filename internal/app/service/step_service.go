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

type StepService struct {
	stepRepo repository.StepRepository
	jobRepo  repository.JobRepository
	db       *sql.DB // nil for the document/memory backends
}

func NewStepService(stepRepo repository.StepRepository, jobRepo repository.JobRepository, db *sql.DB) *StepService {
	return &StepService{stepRepo: stepRepo, jobRepo: jobRepo, db: db}
}

type StepInput struct {
	Role        model.StepRole `json:"role"`
	Description string         `json:"description"`
}

type UpdateStepInput struct {
	Status   *model.StepStatus `json:"status"`
	Logs     *string           `json:"logs"`
	Evidence *string           `json:"evidence"`
}

// CreateStepsForJob creates the job's plan as one atomic batch with
// step_index 0..N-1 in the supplied order. The first batch for a planning job
// also advances the job to running, inside the same transaction on the
// relational backend.
func (s *StepService) CreateStepsForJob(ctx context.Context, jobID string, inputs []StepInput) ([]model.Step, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, common.Errorf("steps list must not be empty: %w", common.ErrValidation)
	}

	steps := make([]*model.Step, 0, len(inputs))
	for i, in := range inputs {
		if !model.ValidStepRole(in.Role) {
			return nil, common.Errorf("step %d: role %q must be one of planner, executor, reviewer, local_executor: %w",
				i, in.Role, common.ErrValidation)
		}
		if strings.TrimSpace(in.Description) == "" {
			return nil, common.Errorf("step %d: description must not be empty: %w", i, common.ErrValidation)
		}
		steps = append(steps, &model.Step{
			ID:          uuid.NewString(),
			JobID:       jobID,
			StepIndex:   i,
			Role:        in.Role,
			Description: in.Description,
			Status:      model.StepStatusPending,
		})
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.stepRepo.CreateBatch(ctx, tx, steps); err != nil {
			return err
		}
		if job.Status == model.JobStatusPlanning {
			if _, err := s.jobRepo.UpdateStatus(ctx, tx, jobID, model.JobStatusRunning); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Step, len(steps))
	for i, st := range steps {
		out[i] = *st
	}
	log.Printf("INFO: Created %d steps for job %s", len(out), jobID)
	return out, nil
}

func (s *StepService) ListSteps(ctx context.Context, jobID string) ([]model.Step, error) {
	if _, err := s.jobRepo.GetByID(ctx, jobID); err != nil {
		return nil, err
	}
	return s.stepRepo.ListByJobID(ctx, jobID)
}

// NextPendingStep is the scheduling rule: strict index order, no priority, no
// skipping failed steps. A nil step with a nil error means the job has no
// pending work.
func (s *StepService) NextPendingStep(ctx context.Context, jobID string) (*model.Step, error) {
	if _, err := s.jobRepo.GetByID(ctx, jobID); err != nil {
		return nil, err
	}
	return s.stepRepo.NextPending(ctx, jobID)
}

// UpdateStep applies a partial update. Absent logs/evidence mean "leave
// unchanged", never "clear".
func (s *StepService) UpdateStep(ctx context.Context, id string, in UpdateStepInput) (*model.Step, error) {
	if in.Status != nil && !model.ValidStepStatus(*in.Status) {
		return nil, common.Errorf("status %q is not a valid step status: %w", *in.Status, common.ErrValidation)
	}
	step, err := s.stepRepo.Update(ctx, nil, id, model.StepUpdate{
		Status:   in.Status,
		Logs:     in.Logs,
		Evidence: in.Evidence,
	})
	if err != nil {
		return nil, err
	}
	if in.Status != nil {
		log.Printf("INFO: Step %s (job %s, index %d) moved to %s", step.ID, step.JobID, step.StepIndex, step.Status)
	}
	return step, nil
}

// IncrementFixAttempts counts one more retry. The ceiling is deliberately not
// enforced here: retry-limit policy belongs to the consumer driving the fix
// loop (see the agent's max-fix-attempts setting).
func (s *StepService) IncrementFixAttempts(ctx context.Context, id string) (*model.Step, error) {
	step, err := s.stepRepo.IncrementFixAttempts(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: Step %s fix attempts now %d", step.ID, step.FixAttempts)
	return step, nil
}
