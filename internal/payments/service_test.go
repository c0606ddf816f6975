package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/internal/audit"
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
	payments []*models.Payment
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, payment *models.Payment) error {
	payment.ID = uuid.New()
	f.payments = append(f.payments, payment)
	return nil
}

func (f *fakeRepo) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Payment, error) {
	for _, payment := range f.payments {
		if payment.RequestID == requestID {
			return payment, nil
		}
	}
	return nil, errors.New(errors.CodeNotFound, "payment not found")
}

type fakeOrders struct {
	order *models.PurchaseOrder
}

func (f *fakeOrders) GetActiveByRequestID(ctx context.Context, requestID uuid.UUID) (*models.PurchaseOrder, error) {
	if f.order == nil || f.order.RequestID != requestID {
		return nil, errors.New(errors.CodeNotFound, "no active purchase order for request")
	}
	return f.order, nil
}

type fakeRequests struct {
	request  *models.Request
	advanced []enums.RequestStatus
}

func (f *fakeRequests) Get(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	if f.request == nil || f.request.ID != id {
		return nil, errors.New(errors.CodeNotFound, "request not found")
	}
	return f.request, nil
}

func (f *fakeRequests) Advance(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, to enums.RequestStatus, actorID uuid.UUID, role enums.WorkflowRole) (*models.Request, error) {
	f.advanced = append(f.advanced, to)
	f.request.Status = to
	return f.request, nil
}

type fakeReceipt struct {
	ready bool
}

func (f *fakeReceipt) IsReadyForPayment(ctx context.Context, requestID uuid.UUID) (bool, error) {
	return f.ready, nil
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

type fakeAuditService struct{}

func (fakeAuditService) Record(ctx context.Context, tx *gorm.DB, input audit.RecordInput) (*models.AuditEntry, error) {
	return &models.AuditEntry{}, nil
}

func (fakeAuditService) History(ctx context.Context, entityType enums.EntityType, entityID uuid.UUID, params pagination.Params) (*pagination.Page[models.AuditEntry], error) {
	return nil, nil
}

type fakeEmitter struct{}

func (fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return nil
}

type harness struct {
	svc      Service
	requests *fakeRequests
	receipt  *fakeReceipt
	finance  uuid.UUID
}

func newHarness(t *testing.T, requestStatus enums.RequestStatus, ready bool) *harness {
	t.Helper()
	h := &harness{
		receipt: &fakeReceipt{ready: ready},
		finance: uuid.New(),
	}
	requestID := uuid.New()
	h.requests = &fakeRequests{request: &models.Request{ID: requestID, Status: requestStatus}}
	orders := &fakeOrders{order: &models.PurchaseOrder{
		ID:          uuid.New(),
		RequestID:   requestID,
		TotalAmount: decimal.NewFromFloat(4201.96),
		Status:      enums.PurchaseOrderStatusDelivered,
	}}
	resolver, err := roles.NewResolver(&fakeRolesRepo{assignments: []models.RoleAssignment{
		{UserID: h.finance, Role: enums.RoleFinance},
	}})
	if err != nil {
		t.Fatalf("resolver error: %v", err)
	}
	svc, err := NewService(stubTxRunner{}, &fakeRepo{}, orders, h.requests, h.receipt, resolver, fakeAuditService{}, fakeEmitter{}, nil)
	if err != nil {
		t.Fatalf("service error: %v", err)
	}
	h.svc = svc
	return h
}

func TestService_Record(t *testing.T) {
	h := newHarness(t, enums.RequestStatusPaymentPending, true)

	payment, err := h.svc.Record(context.Background(), RecordInput{
		RequestID: h.requests.request.ID,
		ActorID:   h.finance,
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if payment.Status != enums.PaymentStatusPaid {
		t.Fatalf("unexpected status %s", payment.Status)
	}
	if !payment.Amount.Equal(decimal.NewFromFloat(4201.96)) {
		t.Fatalf("amount must come from the purchase order, got %s", payment.Amount)
	}
	if len(h.requests.advanced) != 1 || h.requests.advanced[0] != enums.RequestStatusPaid {
		t.Fatalf("expected request advanced to PAID, got %v", h.requests.advanced)
	}
}

func TestService_RecordRequiresPaymentPending(t *testing.T) {
	h := newHarness(t, enums.RequestStatusProcured, true)

	_, err := h.svc.Record(context.Background(), RecordInput{
		RequestID: h.requests.request.ID,
		ActorID:   h.finance,
	})
	if !errors.HasCode(err, errors.CodePrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestService_RecordRequiresCompletedReceipt(t *testing.T) {
	h := newHarness(t, enums.RequestStatusPaymentPending, false)

	_, err := h.svc.Record(context.Background(), RecordInput{
		RequestID: h.requests.request.ID,
		ActorID:   h.finance,
	})
	if !errors.HasCode(err, errors.CodePrecursorNotReady) {
		t.Fatalf("expected precursor error, got %v", err)
	}
}

func TestService_RecordOncePerRequest(t *testing.T) {
	h := newHarness(t, enums.RequestStatusPaymentPending, true)
	ctx := context.Background()

	if _, err := h.svc.Record(ctx, RecordInput{RequestID: h.requests.request.ID, ActorID: h.finance}); err != nil {
		t.Fatalf("Record error: %v", err)
	}

	// Status moved to PAID, so a second attempt trips the precondition.
	_, err := h.svc.Record(ctx, RecordInput{RequestID: h.requests.request.ID, ActorID: h.finance})
	if !errors.HasCode(err, errors.CodePrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestService_RecordRoleGate(t *testing.T) {
	h := newHarness(t, enums.RequestStatusPaymentPending, true)

	_, err := h.svc.Record(context.Background(), RecordInput{
		RequestID: h.requests.request.ID,
		ActorID:   uuid.New(),
	})
	if !errors.HasCode(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
