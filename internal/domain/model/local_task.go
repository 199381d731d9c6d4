package model

import (
	"time"
)

type LocalTaskStatus string

const (
	TaskStatusPending   LocalTaskStatus = "pending"
	TaskStatusCompleted LocalTaskStatus = "completed"
	TaskStatusFailed    LocalTaskStatus = "failed"
)

// LocalTask is a unit of work handed off to a locally running executor agent.
// It resolves exactly once: pending -> completed or pending -> failed, never
// reopened. Delivery to a poller is at-least-once; resolution is guarded by a
// compare-and-set on status at the storage layer.
type LocalTask struct {
	ID           string          `json:"id"`
	JobID        string          `json:"job_id"`
	StepID       *string         `json:"step_id,omitempty"`
	Instructions string          `json:"instructions"`
	Status       LocalTaskStatus `json:"status"`
	Result       *string         `json:"result,omitempty"`
	Logs         *string         `json:"logs,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (s LocalTaskStatus) Resolved() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}
