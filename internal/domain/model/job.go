package model

import (
	"time"
)

type JobStatus string

const (
	JobStatusPlanning        JobStatus = "planning"
	JobStatusRunning         JobStatus = "running"
	JobStatusWaitingApproval JobStatus = "waiting_approval"
	JobStatusRejected        JobStatus = "rejected"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusFailed          JobStatus = "failed"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// JobStatuses is the full status enum. The generic status-update path validates
// against membership in this set, not against a per-state transition table
// (approve/request-changes/reject carry their own stricter preconditions).
var JobStatuses = []JobStatus{
	JobStatusPlanning,
	JobStatusRunning,
	JobStatusWaitingApproval,
	JobStatusRejected,
	JobStatusCompleted,
	JobStatusFailed,
}

func ValidJobStatus(s JobStatus) bool {
	for _, v := range JobStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func ValidRiskLevel(r RiskLevel) bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// IsTerminal reports whether no further status change is legal for s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusRejected || s == JobStatusCompleted || s == JobStatusFailed
}

type Job struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Goal            string    `json:"goal"`
	Status          JobStatus `json:"status"`
	RiskLevel       RiskLevel `json:"risk_level"`
	RequireApproval bool      `json:"require_approval"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
