package requests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/internal/audit"
	"github.com/procureflow/procureflow-backend/internal/numbering"
	"github.com/procureflow/procureflow-backend/internal/roles"
	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/outbox"
	"github.com/procureflow/procureflow-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepo struct {
	request   *models.Request
	updateErr error
	updated   *StateUpdate
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, request *models.Request) error {
	request.ID = uuid.New()
	f.request = request
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	if f.request == nil || f.request.ID != id {
		return nil, errors.New(errors.CodeNotFound, "request not found")
	}
	return f.request, nil
}

func (f *fakeRepo) ListByStage(ctx context.Context, stage enums.RequestStage, limit int, cursor *pagination.Cursor) ([]models.Request, *pagination.Cursor, error) {
	if f.request != nil && f.request.CurrentStage == stage {
		return []models.Request{*f.request}, nil, nil
	}
	return nil, nil, nil
}

func (f *fakeRepo) ListByStatus(ctx context.Context, status enums.RequestStatus) ([]models.Request, error) {
	return nil, nil
}

func (f *fakeRepo) UpdateState(ctx context.Context, id uuid.UUID, expectedVersion int, update StateUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.request == nil || f.request.Version != expectedVersion {
		return errors.New(errors.CodeConcurrentMod, "request changed since it was read")
	}
	f.updated = &update
	return nil
}

type fakeRolesRepo struct {
	assignments []models.RoleAssignment
}

func (f *fakeRolesRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RoleAssignment, error) {
	var matched []models.RoleAssignment
	for _, a := range f.assignments {
		if a.UserID == userID {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

type fakeAuditService struct {
	entries []audit.RecordInput
}

func (f *fakeAuditService) Record(ctx context.Context, tx *gorm.DB, input audit.RecordInput) (*models.AuditEntry, error) {
	f.entries = append(f.entries, input)
	return &models.AuditEntry{}, nil
}

func (f *fakeAuditService) History(ctx context.Context, entityType enums.EntityType, entityID uuid.UUID, params pagination.Params) (*pagination.Page[models.AuditEntry], error) {
	return nil, nil
}

type fakeNumbering struct {
	number string
}

func (f *fakeNumbering) Next(ctx context.Context, tx *gorm.DB, docType numbering.DocType, year int) (string, error) {
	return f.number, nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type harness struct {
	svc     Service
	repo    *fakeRepo
	audit   *fakeAuditService
	emitter *fakeEmitter
}

func newHarness(t *testing.T, assignments []models.RoleAssignment) *harness {
	t.Helper()
	repo := &fakeRepo{}
	auditSvc := &fakeAuditService{}
	emitter := &fakeEmitter{}
	resolver, err := roles.NewResolver(&fakeRolesRepo{assignments: assignments})
	if err != nil {
		t.Fatalf("resolver error: %v", err)
	}
	svc, err := NewService(stubTxRunner{}, repo, resolver, auditSvc, &fakeNumbering{number: "REQ-2024-0001"}, emitter, nil)
	if err != nil {
		t.Fatalf("service error: %v", err)
	}
	return &harness{svc: svc, repo: repo, audit: auditSvc, emitter: emitter}
}

func validSubmitInput(initiator uuid.UUID) SubmitInput {
	return SubmitInput{
		ItemName:      "Laser Printer",
		Quantity:      3,
		Department:    "Finance",
		InitiatorID:   initiator,
		Purpose:       "office equipment",
		Justification: "current unit failed and repairs exceed replacement cost",
		Priority:      enums.PriorityMedium,
	}
}

func TestService_Submit(t *testing.T) {
	initiator := uuid.New()
	h := newHarness(t, nil)

	request, err := h.svc.Submit(context.Background(), validSubmitInput(initiator))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if request.RequestNumber != "REQ-2024-0001" {
		t.Fatalf("unexpected request number %q", request.RequestNumber)
	}
	if request.Status != enums.RequestStatusPending || request.CurrentStage != enums.StageChecker {
		t.Fatalf("unexpected initial state %s/%s", request.Status, request.CurrentStage)
	}
	if request.Version != 1 || request.Revision != 0 {
		t.Fatalf("unexpected version/revision %d/%d", request.Version, request.Revision)
	}
	if len(h.audit.entries) != 1 || h.audit.entries[0].ToState != "PENDING" {
		t.Fatalf("expected one audit entry to PENDING, got %+v", h.audit.entries)
	}
	if len(h.emitter.events) != 1 || h.emitter.events[0].EventType != enums.EventRequestSubmitted {
		t.Fatalf("expected submitted event, got %+v", h.emitter.events)
	}
}

func TestService_SubmitValidation(t *testing.T) {
	h := newHarness(t, nil)
	initiator := uuid.New()

	tests := []struct {
		name   string
		mutate func(in *SubmitInput)
	}{
		{"short item name", func(in *SubmitInput) { in.ItemName = "ab" }},
		{"zero quantity", func(in *SubmitInput) { in.Quantity = 0 }},
		{"short justification", func(in *SubmitInput) { in.Justification = "too short" }},
		{"missing department", func(in *SubmitInput) { in.Department = "" }},
		{"missing initiator", func(in *SubmitInput) { in.InitiatorID = uuid.Nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validSubmitInput(initiator)
			tc.mutate(&input)
			if _, err := h.svc.Submit(context.Background(), input); !errors.HasCode(err, errors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_ActApprovalLadder(t *testing.T) {
	initiator := uuid.New()
	checker := uuid.New()
	reviewer := uuid.New()
	approver := uuid.New()
	h := newHarness(t, []models.RoleAssignment{
		{UserID: checker, Role: enums.RoleChecker},
		{UserID: reviewer, Role: enums.RoleReviewer},
		{UserID: approver, Role: enums.RoleApprover},
	})
	ctx := context.Background()

	request, err := h.svc.Submit(ctx, validSubmitInput(initiator))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	steps := []struct {
		actor      uuid.UUID
		role       enums.WorkflowRole
		wantStatus enums.RequestStatus
		wantStage  enums.RequestStage
	}{
		{checker, enums.RoleChecker, enums.RequestStatusChecked, enums.StageReviewer},
		{reviewer, enums.RoleReviewer, enums.RequestStatusReviewed, enums.StageApprover},
		{approver, enums.RoleApprover, enums.RequestStatusApproved, enums.StageNone},
	}
	for _, step := range steps {
		got, err := h.svc.Act(ctx, ActInput{
			RequestID:  request.ID,
			ActorID:    step.actor,
			ActingRole: step.role,
			Decision:   enums.DecisionApprove,
		})
		if err != nil {
			t.Fatalf("Act(%s) error: %v", step.role, err)
		}
		if got.Status != step.wantStatus || got.CurrentStage != step.wantStage {
			t.Fatalf("Act(%s) = %s/%s, want %s/%s", step.role, got.Status, got.CurrentStage, step.wantStatus, step.wantStage)
		}
	}
	if request.Version != 4 {
		t.Fatalf("expected version 4 after three approvals, got %d", request.Version)
	}
	last := h.emitter.events[len(h.emitter.events)-1]
	if last.EventType != enums.EventRequestApproved {
		t.Fatalf("expected approved event, got %s", last.EventType)
	}
}

func TestService_ActRejectRequiresComments(t *testing.T) {
	initiator := uuid.New()
	checker := uuid.New()
	h := newHarness(t, []models.RoleAssignment{{UserID: checker, Role: enums.RoleChecker}})
	ctx := context.Background()

	request, err := h.svc.Submit(ctx, validSubmitInput(initiator))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	_, err = h.svc.Act(ctx, ActInput{
		RequestID:  request.ID,
		ActorID:    checker,
		ActingRole: enums.RoleChecker,
		Decision:   enums.DecisionReject,
		Comments:   "   ",
	})
	if !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for empty comments, got %v", err)
	}
	if request.Status != enums.RequestStatusPending {
		t.Fatalf("rejected command must not mutate state, got %s", request.Status)
	}

	got, err := h.svc.Act(ctx, ActInput{
		RequestID:  request.ID,
		ActorID:    checker,
		ActingRole: enums.RoleChecker,
		Decision:   enums.DecisionReject,
		Comments:   "insufficient budget",
	})
	if err != nil {
		t.Fatalf("Act reject error: %v", err)
	}
	if got.Status != enums.RequestStatusRejected || got.CurrentStage != enums.StageNone {
		t.Fatalf("unexpected state after reject: %s/%s", got.Status, got.CurrentStage)
	}

	// Terminal now, further actions must fail.
	_, err = h.svc.Act(ctx, ActInput{
		RequestID:  request.ID,
		ActorID:    checker,
		ActingRole: enums.RoleChecker,
		Decision:   enums.DecisionApprove,
	})
	if !errors.HasCode(err, errors.CodeStageMismatch) {
		t.Fatalf("expected stage mismatch on terminal request, got %v", err)
	}
}

func TestService_ActRoleGates(t *testing.T) {
	initiator := uuid.New()
	checker := uuid.New()
	outsider := uuid.New()
	h := newHarness(t, []models.RoleAssignment{{UserID: checker, Role: enums.RoleChecker}})
	ctx := context.Background()

	request, err := h.svc.Submit(ctx, validSubmitInput(initiator))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	// Role label does not match the stage.
	_, err = h.svc.Act(ctx, ActInput{
		RequestID:  request.ID,
		ActorID:    checker,
		ActingRole: enums.RoleReviewer,
		Decision:   enums.DecisionApprove,
	})
	if !errors.HasCode(err, errors.CodeStageMismatch) {
		t.Fatalf("expected stage mismatch, got %v", err)
	}

	// Actor does not hold the required role.
	_, err = h.svc.Act(ctx, ActInput{
		RequestID:  request.ID,
		ActorID:    outsider,
		ActingRole: enums.RoleChecker,
		Decision:   enums.DecisionApprove,
	})
	if !errors.HasCode(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_ActConcurrentModification(t *testing.T) {
	initiator := uuid.New()
	checker := uuid.New()
	h := newHarness(t, []models.RoleAssignment{{UserID: checker, Role: enums.RoleChecker}})
	ctx := context.Background()

	request, err := h.svc.Submit(ctx, validSubmitInput(initiator))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	h.repo.updateErr = errors.New(errors.CodeConcurrentMod, "request changed since it was read")
	_, err = h.svc.Act(ctx, ActInput{
		RequestID:  request.ID,
		ActorID:    checker,
		ActingRole: enums.RoleChecker,
		Decision:   enums.DecisionApprove,
	})
	if !errors.HasCode(err, errors.CodeConcurrentMod) {
		t.Fatalf("expected concurrent modification error, got %v", err)
	}
}

func TestService_Resubmit(t *testing.T) {
	initiator := uuid.New()
	checker := uuid.New()
	h := newHarness(t, []models.RoleAssignment{{UserID: checker, Role: enums.RoleChecker}})
	ctx := context.Background()

	request, err := h.svc.Submit(ctx, validSubmitInput(initiator))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if _, err := h.svc.Act(ctx, ActInput{
		RequestID:  request.ID,
		ActorID:    checker,
		ActingRole: enums.RoleChecker,
		Decision:   enums.DecisionReturn,
		Comments:   "quantity looks wrong, please confirm",
	}); err != nil {
		t.Fatalf("Act return error: %v", err)
	}

	// Only the initiator may resubmit.
	if _, err := h.svc.Resubmit(ctx, request.ID, checker); !errors.HasCode(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	got, err := h.svc.Resubmit(ctx, request.ID, initiator)
	if err != nil {
		t.Fatalf("Resubmit error: %v", err)
	}
	if got.Status != enums.RequestStatusPending || got.CurrentStage != enums.StageChecker {
		t.Fatalf("unexpected state after resubmit: %s/%s", got.Status, got.CurrentStage)
	}
	if got.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", got.Revision)
	}

	// Resubmitting a request that is not RETURNED fails.
	if _, err := h.svc.Resubmit(ctx, request.ID, initiator); !errors.HasCode(err, errors.CodeStageMismatch) {
		t.Fatalf("expected stage mismatch, got %v", err)
	}

	// Audit history from before the return is preserved alongside the reset.
	if len(h.audit.entries) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(h.audit.entries))
	}
}

func TestService_Advance(t *testing.T) {
	initiator := uuid.New()
	h := newHarness(t, nil)
	ctx := context.Background()

	request, err := h.svc.Submit(ctx, validSubmitInput(initiator))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	h.repo.request.Status = enums.RequestStatusApproved
	h.repo.request.CurrentStage = enums.StageNone

	got, err := h.svc.Advance(ctx, &gorm.DB{}, request.ID, enums.RequestStatusInProcurement, uuid.New(), enums.RoleProcurementOfficer)
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if got.Status != enums.RequestStatusInProcurement {
		t.Fatalf("unexpected status %s", got.Status)
	}

	// Skipping a phase is refused.
	_, err = h.svc.Advance(ctx, &gorm.DB{}, request.ID, enums.RequestStatusPaid, uuid.New(), enums.RoleFinance)
	if !errors.HasCode(err, errors.CodePrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestService_ListByStage(t *testing.T) {
	initiator := uuid.New()
	h := newHarness(t, nil)
	ctx := context.Background()

	if _, err := h.svc.Submit(ctx, validSubmitInput(initiator)); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	page, err := h.svc.ListByStage(ctx, ListParams{Stage: enums.StageChecker, Limit: 10})
	if err != nil {
		t.Fatalf("ListByStage error: %v", err)
	}
	if len(page.Items) != 1 || page.Cursor != "" {
		t.Fatalf("unexpected page: %d items, cursor %q", len(page.Items), page.Cursor)
	}

	if _, err := h.svc.ListByStage(ctx, ListParams{Stage: "SHIPPING"}); !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := h.svc.ListByStage(ctx, ListParams{Stage: enums.StageChecker, Cursor: "not-a-cursor"}); !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for bad cursor, got %v", err)
	}
}
