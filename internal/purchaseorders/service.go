package purchaseorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/internal/audit"
	"github.com/procureflow/procureflow-backend/internal/numbering"
	"github.com/procureflow/procureflow-backend/internal/roles"
	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/metrics"
	"github.com/procureflow/procureflow-backend/pkg/outbox"
)

const entityLabel = "purchase_order"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// requestAdvancer moves the owning request through its procurement phase
// inside the purchase order's transaction.
type requestAdvancer interface {
	Advance(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, to enums.RequestStatus, actorID uuid.UUID, role enums.WorkflowRole) (*models.Request, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Request, error)
}

// statusTransitions is the legal lifecycle of an issued order. Cancelling
// is allowed from any non-terminal status.
var statusTransitions = map[enums.PurchaseOrderStatus][]enums.PurchaseOrderStatus{
	enums.PurchaseOrderStatusDraft:     {enums.PurchaseOrderStatusSent, enums.PurchaseOrderStatusCancelled},
	enums.PurchaseOrderStatusSent:      {enums.PurchaseOrderStatusConfirmed, enums.PurchaseOrderStatusCancelled},
	enums.PurchaseOrderStatusConfirmed: {enums.PurchaseOrderStatusDelivered, enums.PurchaseOrderStatusCancelled},
}

// Service issues and progresses purchase orders for approved requests.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.PurchaseOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.PurchaseOrder, error)
}

// ItemInput is one line of an order. Totals are recomputed server-side;
// any client-supplied total is ignored.
type ItemInput struct {
	ItemName  string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateInput carries the fields an order is issued with.
type CreateInput struct {
	RequestID uuid.UUID
	VendorID  uuid.UUID
	ActorID   uuid.UUID
	Items     []ItemInput
}

// UpdateStatusInput is a lifecycle move on an issued order.
type UpdateStatusInput struct {
	PurchaseOrderID uuid.UUID
	ActorID         uuid.UUID
	Status          enums.PurchaseOrderStatus
}

type service struct {
	tx        txRunner
	repo      Repository
	requests  requestAdvancer
	roles     roles.Resolver
	audit     audit.Service
	numbering numbering.Service
	events    eventEmitter
	metrics   *metrics.WorkflowMetrics
	now       func() time.Time
}

// NewService wires the purchase order service.
func NewService(
	tx txRunner,
	repo Repository,
	requestsSvc requestAdvancer,
	rolesResolver roles.Resolver,
	auditSvc audit.Service,
	numberingSvc numbering.Service,
	events eventEmitter,
	workflowMetrics *metrics.WorkflowMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("purchase order repository required")
	}
	if requestsSvc == nil {
		return nil, fmt.Errorf("request service required")
	}
	if rolesResolver == nil {
		return nil, fmt.Errorf("role resolver required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if numberingSvc == nil {
		return nil, fmt.Errorf("numbering service required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		requests:  requestsSvc,
		roles:     rolesResolver,
		audit:     auditSvc,
		numbering: numberingSvc,
		events:    events,
		metrics:   workflowMetrics,
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error) {
	if input.RequestID == uuid.Nil || input.VendorID == uuid.Nil || input.ActorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "request id, vendor id and actor id are required")
	}
	if len(input.Items) == 0 {
		return nil, errors.New(errors.CodeValidation, "at least one item is required")
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.ItemName) == "" {
			return nil, errors.New(errors.CodeValidation, fmt.Sprintf("item %d: name is required", i+1))
		}
		if item.Quantity < 1 {
			return nil, errors.New(errors.CodeValidation, fmt.Sprintf("item %d: quantity must be at least 1", i+1))
		}
		if item.UnitPrice.IsNegative() {
			return nil, errors.New(errors.CodeValidation, fmt.Sprintf("item %d: unit price cannot be negative", i+1))
		}
	}

	if err := s.roles.Require(ctx, input.ActorID, enums.RoleProcurementOfficer, roles.Scope{}); err != nil {
		s.metrics.IncRejection(entityLabel, "forbidden")
		return nil, err
	}

	request, err := s.requests.Get(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.RequestStatusApproved {
		s.metrics.IncRejection(entityLabel, "precondition")
		return nil, errors.New(errors.CodePrecondition,
			fmt.Sprintf("purchase orders require an approved request, request is %s", request.Status))
	}

	if _, err := s.repo.GetActiveByRequestID(ctx, input.RequestID); err == nil {
		s.metrics.IncRejection(entityLabel, "duplicate")
		return nil, errors.New(errors.CodeDuplicatePO, "request already has an active purchase order")
	} else if !errors.HasCode(err, errors.CodeNotFound) {
		return nil, err
	}

	total := decimal.Zero
	items := make([]models.PurchaseOrderItem, 0, len(input.Items))
	for i, item := range input.Items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
		items = append(items, models.PurchaseOrderItem{
			ItemName:  strings.TrimSpace(item.ItemName),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Position:  i + 1,
		})
	}

	order := &models.PurchaseOrder{
		RequestID:   input.RequestID,
		VendorID:    input.VendorID,
		TotalAmount: total,
		Status:      enums.PurchaseOrderStatusDraft,
		Items:       items,
		Version:     1,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.numbering.Next(ctx, tx, numbering.DocTypePO, s.now().Year())
		if err != nil {
			return err
		}
		order.PoNumber = number

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "create purchase order")
		}

		// Issuing the order is what moves the request into procurement.
		if _, err := s.requests.Advance(ctx, tx, input.RequestID, enums.RequestStatusInProcurement, input.ActorID, enums.RoleProcurementOfficer); err != nil {
			return err
		}

		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypePurchaseOrder,
			EntityID:      order.ID,
			ToState:       order.Status.String(),
			ActorUserID:   input.ActorID,
			Role:          enums.RoleProcurementOfficer,
			EntityVersion: order.Version,
		}); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseOrderCreated,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: enums.RoleProcurementOfficer.String()},
			Data: map[string]any{
				"po_number":    order.PoNumber,
				"request_id":   order.RequestID,
				"vendor_id":    order.VendorID,
				"total_amount": order.TotalAmount,
			},
			Version: order.Version,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityLabel, order.Status.String())
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.PurchaseOrder, error) {
	if input.PurchaseOrderID == uuid.Nil || input.ActorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "purchase order id and actor id are required")
	}
	if !input.Status.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid purchase order status %q", input.Status))
	}

	if err := s.roles.Require(ctx, input.ActorID, enums.RoleProcurementOfficer, roles.Scope{}); err != nil {
		s.metrics.IncRejection(entityLabel, "forbidden")
		return nil, err
	}

	order, err := s.repo.GetByID(ctx, input.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if !canTransition(order.Status, input.Status) {
		s.metrics.IncRejection(entityLabel, "precondition")
		return nil, errors.New(errors.CodePrecondition,
			fmt.Sprintf("purchase order cannot move from %s to %s", order.Status, input.Status))
	}

	fromStatus := order.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, order.Version, input.Status); err != nil {
			return err
		}

		// Delivery is what marks the owning request procured.
		if input.Status == enums.PurchaseOrderStatusDelivered {
			if _, err := s.requests.Advance(ctx, tx, order.RequestID, enums.RequestStatusProcured, input.ActorID, enums.RoleProcurementOfficer); err != nil {
				return err
			}
		}

		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypePurchaseOrder,
			EntityID:      order.ID,
			FromState:     fromStatus.String(),
			ToState:       input.Status.String(),
			ActorUserID:   input.ActorID,
			Role:          enums.RoleProcurementOfficer,
			EntityVersion: order.Version + 1,
		}); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseOrderUpdated,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: enums.RoleProcurementOfficer.String()},
			Data: map[string]any{
				"from_state": fromStatus,
				"to_state":   input.Status,
			},
			Version: order.Version + 1,
		})
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeConcurrentMod) {
			s.metrics.IncConflict(entityLabel)
		}
		return nil, err
	}

	order.Status = input.Status
	order.Version++
	s.metrics.IncTransition(entityLabel, input.Status.String())
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "purchase order id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.PurchaseOrder, error) {
	if requestID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "request id is required")
	}
	orders, err := s.repo.ListByRequestID(ctx, requestID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list purchase orders")
	}
	return orders, nil
}

func canTransition(from, to enums.PurchaseOrderStatus) bool {
	for _, candidate := range statusTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
