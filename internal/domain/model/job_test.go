package model

import "testing"

func TestValidJobStatus(t *testing.T) {
	for _, s := range JobStatuses {
		if !ValidJobStatus(s) {
			t.Errorf("expected %q to be a valid job status", s)
		}
	}
	for _, s := range []JobStatus{"", "done", "PLANNING", "waiting"} {
		if ValidJobStatus(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	terminal := map[JobStatus]bool{
		JobStatusPlanning:        false,
		JobStatusRunning:         false,
		JobStatusWaitingApproval: false,
		JobStatusRejected:        true,
		JobStatusCompleted:       true,
		JobStatusFailed:          true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Errorf("IsTerminal(%q) = %t, want %t", status, got, want)
		}
	}
}

func TestValidRiskLevel(t *testing.T) {
	for _, r := range []RiskLevel{RiskLow, RiskMedium, RiskHigh} {
		if !ValidRiskLevel(r) {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if ValidRiskLevel("critical") {
		t.Error("expected unknown risk level to be rejected")
	}
}

func TestValidStepRoleAndStatus(t *testing.T) {
	for _, r := range []StepRole{RolePlanner, RoleExecutor, RoleReviewer, RoleLocalExecutor} {
		if !ValidStepRole(r) {
			t.Errorf("expected role %q to be valid", r)
		}
	}
	if ValidStepRole("supervisor") {
		t.Error("expected unknown role to be rejected")
	}
	if !ValidStepStatus(StepStatusNeedsFix) {
		t.Error("expected needs_fix to be a valid step status")
	}
	if ValidStepStatus("retrying") {
		t.Error("expected unknown step status to be rejected")
	}
}

func TestLocalTaskStatusResolved(t *testing.T) {
	if TaskStatusPending.Resolved() {
		t.Error("pending must not count as resolved")
	}
	if !TaskStatusCompleted.Resolved() || !TaskStatusFailed.Resolved() {
		t.Error("completed and failed must count as resolved")
	}
}
