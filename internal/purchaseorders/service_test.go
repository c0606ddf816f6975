package purchaseorders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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
	orders []*models.PurchaseOrder
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, order *models.PurchaseOrder) error {
	order.ID = uuid.New()
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	for _, order := range f.orders {
		if order.ID == id {
			return order, nil
		}
	}
	return nil, errors.New(errors.CodeNotFound, "purchase order not found")
}

func (f *fakeRepo) GetActiveByRequestID(ctx context.Context, requestID uuid.UUID) (*models.PurchaseOrder, error) {
	for _, order := range f.orders {
		if order.RequestID == requestID && order.Status != enums.PurchaseOrderStatusCancelled {
			return order, nil
		}
	}
	return nil, errors.New(errors.CodeNotFound, "no active purchase order for request")
}

func (f *fakeRepo) ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]models.PurchaseOrder, error) {
	var matched []models.PurchaseOrder
	for _, order := range f.orders {
		if order.RequestID == requestID {
			matched = append(matched, *order)
		}
	}
	return matched, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status enums.PurchaseOrderStatus) error {
	for _, order := range f.orders {
		if order.ID == id {
			if order.Version != expectedVersion {
				return errors.New(errors.CodeConcurrentMod, "purchase order changed since it was read")
			}
			return nil
		}
	}
	return errors.New(errors.CodeNotFound, "purchase order not found")
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

type fakeNumbering struct{}

func (fakeNumbering) Next(ctx context.Context, tx *gorm.DB, docType numbering.DocType, year int) (string, error) {
	return numbering.Format(docType, 2024, 1), nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type harness struct {
	svc      Service
	repo     *fakeRepo
	requests *fakeRequests
	officer  uuid.UUID
	vendorID uuid.UUID
}

func newHarness(t *testing.T, requestStatus enums.RequestStatus) *harness {
	t.Helper()
	h := &harness{
		repo:     &fakeRepo{},
		officer:  uuid.New(),
		vendorID: uuid.New(),
	}
	h.requests = &fakeRequests{request: &models.Request{
		ID:     uuid.New(),
		Status: requestStatus,
	}}
	resolver, err := roles.NewResolver(&fakeRolesRepo{assignments: []models.RoleAssignment{
		{UserID: h.officer, Role: enums.RoleProcurementOfficer},
	}})
	if err != nil {
		t.Fatalf("resolver error: %v", err)
	}
	svc, err := NewService(stubTxRunner{}, h.repo, h.requests, resolver, &fakeAuditService{}, fakeNumbering{}, &fakeEmitter{}, nil)
	if err != nil {
		t.Fatalf("service error: %v", err)
	}
	h.svc = svc
	return h
}

func validItems() []ItemInput {
	return []ItemInput{
		{ItemName: "Desktop Computer", Quantity: 4, UnitPrice: decimal.NewFromFloat(850.50)},
		{ItemName: "Monitor", Quantity: 4, UnitPrice: decimal.NewFromFloat(199.99)},
	}
}

func TestService_Create(t *testing.T) {
	h := newHarness(t, enums.RequestStatusApproved)

	order, err := h.svc.Create(context.Background(), CreateInput{
		RequestID: h.requests.request.ID,
		VendorID:  h.vendorID,
		ActorID:   h.officer,
		Items:     validItems(),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if order.PoNumber != "PO-2024-1" {
		t.Fatalf("unexpected po number %q", order.PoNumber)
	}
	// 4*850.50 + 4*199.99 = 4201.96, recomputed server-side.
	if !order.TotalAmount.Equal(decimal.NewFromFloat(4201.96)) {
		t.Fatalf("unexpected total %s", order.TotalAmount)
	}
	if order.Status != enums.PurchaseOrderStatusDraft {
		t.Fatalf("unexpected status %s", order.Status)
	}
	if len(h.requests.advanced) != 1 || h.requests.advanced[0] != enums.RequestStatusInProcurement {
		t.Fatalf("expected request advanced to IN_PROCUREMENT, got %v", h.requests.advanced)
	}
	if order.Items[0].Position != 1 || order.Items[1].Position != 2 {
		t.Fatalf("items must keep position order: %+v", order.Items)
	}
}

func TestService_CreateRequiresApprovedRequest(t *testing.T) {
	h := newHarness(t, enums.RequestStatusReviewed)

	_, err := h.svc.Create(context.Background(), CreateInput{
		RequestID: h.requests.request.ID,
		VendorID:  h.vendorID,
		ActorID:   h.officer,
		Items:     validItems(),
	})
	if !errors.HasCode(err, errors.CodePrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestService_CreateDuplicateGuard(t *testing.T) {
	h := newHarness(t, enums.RequestStatusApproved)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, CreateInput{
		RequestID: h.requests.request.ID,
		VendorID:  h.vendorID,
		ActorID:   h.officer,
		Items:     validItems(),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// A second order for the same request is refused while one is active.
	h.requests.request.Status = enums.RequestStatusApproved
	_, err = h.svc.Create(ctx, CreateInput{
		RequestID: h.requests.request.ID,
		VendorID:  h.vendorID,
		ActorID:   h.officer,
		Items:     validItems(),
	})
	if !errors.HasCode(err, errors.CodeDuplicatePO) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	// Once the prior order is cancelled, reissue is allowed.
	order.Status = enums.PurchaseOrderStatusCancelled
	if _, err := h.svc.Create(ctx, CreateInput{
		RequestID: h.requests.request.ID,
		VendorID:  h.vendorID,
		ActorID:   h.officer,
		Items:     validItems(),
	}); err != nil {
		t.Fatalf("Create after cancel error: %v", err)
	}
}

func TestService_CreateValidation(t *testing.T) {
	h := newHarness(t, enums.RequestStatusApproved)

	tests := []struct {
		name  string
		items []ItemInput
	}{
		{"no items", nil},
		{"blank item name", []ItemInput{{ItemName: "  ", Quantity: 1, UnitPrice: decimal.NewFromInt(10)}}},
		{"zero quantity", []ItemInput{{ItemName: "Chair", Quantity: 0, UnitPrice: decimal.NewFromInt(10)}}},
		{"negative price", []ItemInput{{ItemName: "Chair", Quantity: 1, UnitPrice: decimal.NewFromInt(-5)}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Create(context.Background(), CreateInput{
				RequestID: h.requests.request.ID,
				VendorID:  h.vendorID,
				ActorID:   h.officer,
				Items:     tc.items,
			})
			if !errors.HasCode(err, errors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_UpdateStatusLifecycle(t *testing.T) {
	h := newHarness(t, enums.RequestStatusApproved)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, CreateInput{
		RequestID: h.requests.request.ID,
		VendorID:  h.vendorID,
		ActorID:   h.officer,
		Items:     validItems(),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Skipping straight to DELIVERED is refused.
	_, err = h.svc.UpdateStatus(ctx, UpdateStatusInput{
		PurchaseOrderID: order.ID,
		ActorID:         h.officer,
		Status:          enums.PurchaseOrderStatusDelivered,
	})
	if !errors.HasCode(err, errors.CodePrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}

	for _, status := range []enums.PurchaseOrderStatus{
		enums.PurchaseOrderStatusSent,
		enums.PurchaseOrderStatusConfirmed,
		enums.PurchaseOrderStatusDelivered,
	} {
		got, err := h.svc.UpdateStatus(ctx, UpdateStatusInput{
			PurchaseOrderID: order.ID,
			ActorID:         h.officer,
			Status:          status,
		})
		if err != nil {
			t.Fatalf("UpdateStatus(%s) error: %v", status, err)
		}
		if got.Status != status {
			t.Fatalf("UpdateStatus(%s) = %s", status, got.Status)
		}
	}

	// Delivery marks the owning request procured.
	last := h.requests.advanced[len(h.requests.advanced)-1]
	if last != enums.RequestStatusProcured {
		t.Fatalf("expected request advanced to PROCURED, got %v", h.requests.advanced)
	}

	// Terminal now.
	_, err = h.svc.UpdateStatus(ctx, UpdateStatusInput{
		PurchaseOrderID: order.ID,
		ActorID:         h.officer,
		Status:          enums.PurchaseOrderStatusCancelled,
	})
	if !errors.HasCode(err, errors.CodePrecondition) {
		t.Fatalf("expected precondition error on delivered order, got %v", err)
	}
}

func TestService_RoleGate(t *testing.T) {
	h := newHarness(t, enums.RequestStatusApproved)

	_, err := h.svc.Create(context.Background(), CreateInput{
		RequestID: h.requests.request.ID,
		VendorID:  h.vendorID,
		ActorID:   uuid.New(),
		Items:     validItems(),
	})
	if !errors.HasCode(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
