package model

import (
	"time"
)

type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusNeedsFix  StepStatus = "needs_fix"
)

type StepRole string

const (
	RolePlanner       StepRole = "planner"
	RoleExecutor      StepRole = "executor"
	RoleReviewer      StepRole = "reviewer"
	RoleLocalExecutor StepRole = "local_executor"
)

func ValidStepStatus(s StepStatus) bool {
	switch s {
	case StepStatusPending, StepStatusRunning, StepStatusCompleted, StepStatusFailed, StepStatusNeedsFix:
		return true
	}
	return false
}

func ValidStepRole(r StepRole) bool {
	switch r {
	case RolePlanner, RoleExecutor, RoleReviewer, RoleLocalExecutor:
		return true
	}
	return false
}

type Step struct {
	ID          string     `json:"id"`
	JobID       string     `json:"job_id"`
	StepIndex   int        `json:"step_index"`
	Role        StepRole   `json:"role"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
	Logs        *string    `json:"logs,omitempty"`
	Evidence    *string    `json:"evidence,omitempty"`
	FixAttempts int        `json:"fix_attempts"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StepUpdate carries a partial update. Nil fields mean "leave unchanged",
// never "clear": logs and evidence are merged, not replaced wholesale.
type StepUpdate struct {
	Status   *StepStatus
	Logs     *string
	Evidence *string
}
