package requests

import (
	"fmt"

	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
)

// transitionKey addresses one legal approval move: the stage the request
// waits on and the decision taken there.
type transitionKey struct {
	stage    enums.RequestStage
	decision enums.Decision
}

// transitionResult is the state a legal move lands on.
type transitionResult struct {
	status enums.RequestStatus
	stage  enums.RequestStage
}

// approvalTransitions is the complete legal-move set for the approval
// ladder. Anything not in this table is rejected, which keeps the
// machine auditable as plain data.
var approvalTransitions = map[transitionKey]transitionResult{
	{enums.StageChecker, enums.DecisionApprove}:  {enums.RequestStatusChecked, enums.StageReviewer},
	{enums.StageChecker, enums.DecisionReject}:   {enums.RequestStatusRejected, enums.StageNone},
	{enums.StageChecker, enums.DecisionReturn}:   {enums.RequestStatusReturned, enums.StageNone},
	{enums.StageReviewer, enums.DecisionApprove}: {enums.RequestStatusReviewed, enums.StageApprover},
	{enums.StageReviewer, enums.DecisionReject}:  {enums.RequestStatusRejected, enums.StageNone},
	{enums.StageReviewer, enums.DecisionReturn}:  {enums.RequestStatusReturned, enums.StageNone},
	{enums.StageApprover, enums.DecisionApprove}: {enums.RequestStatusApproved, enums.StageNone},
	{enums.StageApprover, enums.DecisionReject}:  {enums.RequestStatusRejected, enums.StageNone},
	{enums.StageApprover, enums.DecisionReturn}:  {enums.RequestStatusReturned, enums.StageNone},
}

// stageRoles maps each approval stage to the workflow role allowed to
// act on it.
var stageRoles = map[enums.RequestStage]enums.WorkflowRole{
	enums.StageChecker:  enums.RoleChecker,
	enums.StageReviewer: enums.RoleReviewer,
	enums.StageApprover: enums.RoleApprover,
}

// procurementTransitions is the legal-move set for the post-approval
// phase, driven by downstream documents rather than stage decisions.
var procurementTransitions = map[enums.RequestStatus][]enums.RequestStatus{
	enums.RequestStatusApproved:       {enums.RequestStatusInProcurement},
	enums.RequestStatusInProcurement:  {enums.RequestStatusProcured},
	enums.RequestStatusProcured:       {enums.RequestStatusPaymentPending},
	enums.RequestStatusPaymentPending: {enums.RequestStatusPaid},
}

// RoleForStage returns the workflow role gated to act at the given stage.
func RoleForStage(stage enums.RequestStage) (enums.WorkflowRole, error) {
	role, ok := stageRoles[stage]
	if !ok {
		return "", errors.New(errors.CodeStageMismatch, fmt.Sprintf("no role acts at stage %q", stage))
	}
	return role, nil
}

// NextApprovalState resolves a stage decision against the transition
// table, returning the status and stage the request moves to.
func NextApprovalState(current enums.RequestStatus, stage enums.RequestStage, decision enums.Decision) (enums.RequestStatus, enums.RequestStage, error) {
	if current.IsTerminal() {
		return "", "", errors.New(errors.CodeStageMismatch, fmt.Sprintf("request is %s and accepts no further actions", current))
	}
	result, ok := approvalTransitions[transitionKey{stage: stage, decision: decision}]
	if !ok {
		return "", "", errors.New(errors.CodeStageMismatch, fmt.Sprintf("decision %s is not legal at stage %q", decision, stage))
	}
	return result.status, result.stage, nil
}

// CanAdvance reports whether a procurement-phase move from one status to
// another is legal.
func CanAdvance(from, to enums.RequestStatus) bool {
	for _, candidate := range procurementTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
