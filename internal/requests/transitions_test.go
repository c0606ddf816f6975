package requests

import (
	"testing"

	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
)

func TestNextApprovalState(t *testing.T) {
	tests := []struct {
		name       string
		current    enums.RequestStatus
		stage      enums.RequestStage
		decision   enums.Decision
		wantStatus enums.RequestStatus
		wantStage  enums.RequestStage
	}{
		{"checker approves", enums.RequestStatusPending, enums.StageChecker, enums.DecisionApprove, enums.RequestStatusChecked, enums.StageReviewer},
		{"reviewer approves", enums.RequestStatusChecked, enums.StageReviewer, enums.DecisionApprove, enums.RequestStatusReviewed, enums.StageApprover},
		{"approver approves", enums.RequestStatusReviewed, enums.StageApprover, enums.DecisionApprove, enums.RequestStatusApproved, enums.StageNone},
		{"checker rejects", enums.RequestStatusPending, enums.StageChecker, enums.DecisionReject, enums.RequestStatusRejected, enums.StageNone},
		{"reviewer returns", enums.RequestStatusChecked, enums.StageReviewer, enums.DecisionReturn, enums.RequestStatusReturned, enums.StageNone},
		{"approver rejects", enums.RequestStatusReviewed, enums.StageApprover, enums.DecisionReject, enums.RequestStatusRejected, enums.StageNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, stage, err := NextApprovalState(tc.current, tc.stage, tc.decision)
			if err != nil {
				t.Fatalf("NextApprovalState error: %v", err)
			}
			if status != tc.wantStatus || stage != tc.wantStage {
				t.Fatalf("got %s/%s, want %s/%s", status, stage, tc.wantStatus, tc.wantStage)
			}
		})
	}
}

func TestNextApprovalState_Terminal(t *testing.T) {
	for _, status := range []enums.RequestStatus{enums.RequestStatusRejected, enums.RequestStatusPaid} {
		if _, _, err := NextApprovalState(status, enums.StageChecker, enums.DecisionApprove); !errors.HasCode(err, errors.CodeStageMismatch) {
			t.Fatalf("expected stage mismatch for %s, got %v", status, err)
		}
	}
}

func TestNextApprovalState_UnknownMove(t *testing.T) {
	if _, _, err := NextApprovalState(enums.RequestStatusApproved, enums.StageNone, enums.DecisionApprove); !errors.HasCode(err, errors.CodeStageMismatch) {
		t.Fatalf("expected stage mismatch, got %v", err)
	}
}

func TestRoleForStage(t *testing.T) {
	tests := []struct {
		stage enums.RequestStage
		want  enums.WorkflowRole
	}{
		{enums.StageChecker, enums.RoleChecker},
		{enums.StageReviewer, enums.RoleReviewer},
		{enums.StageApprover, enums.RoleApprover},
	}
	for _, tc := range tests {
		role, err := RoleForStage(tc.stage)
		if err != nil {
			t.Fatalf("RoleForStage(%s) error: %v", tc.stage, err)
		}
		if role != tc.want {
			t.Fatalf("RoleForStage(%s) = %s, want %s", tc.stage, role, tc.want)
		}
	}
	if _, err := RoleForStage(enums.StageNone); !errors.HasCode(err, errors.CodeStageMismatch) {
		t.Fatalf("expected stage mismatch for cleared stage, got %v", err)
	}
}

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		from enums.RequestStatus
		to   enums.RequestStatus
		want bool
	}{
		{enums.RequestStatusApproved, enums.RequestStatusInProcurement, true},
		{enums.RequestStatusInProcurement, enums.RequestStatusProcured, true},
		{enums.RequestStatusProcured, enums.RequestStatusPaymentPending, true},
		{enums.RequestStatusPaymentPending, enums.RequestStatusPaid, true},
		{enums.RequestStatusApproved, enums.RequestStatusProcured, false},
		{enums.RequestStatusPending, enums.RequestStatusInProcurement, false},
		{enums.RequestStatusPaid, enums.RequestStatusPaid, false},
	}
	for _, tc := range tests {
		if got := CanAdvance(tc.from, tc.to); got != tc.want {
			t.Errorf("CanAdvance(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
