package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/internal/audit"
	"github.com/procureflow/procureflow-backend/internal/roles"
	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/metrics"
	"github.com/procureflow/procureflow-backend/pkg/outbox"
)

const entityLabel = "payment"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderSource interface {
	GetActiveByRequestID(ctx context.Context, requestID uuid.UUID) (*models.PurchaseOrder, error)
}

type requestAdvancer interface {
	Advance(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, to enums.RequestStatus, actorID uuid.UUID, role enums.WorkflowRole) (*models.Request, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Request, error)
}

type receiptChecker interface {
	IsReadyForPayment(ctx context.Context, requestID uuid.UUID) (bool, error)
}

// Service settles approved and received requests.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Payment, error)
	GetByRequest(ctx context.Context, requestID uuid.UUID) (*models.Payment, error)
}

// RecordInput settles the payment for a request. The amount is taken from
// the purchase order, never from the caller.
type RecordInput struct {
	RequestID uuid.UUID
	ActorID   uuid.UUID
}

type service struct {
	tx       txRunner
	repo     Repository
	orders   orderSource
	requests requestAdvancer
	receipt  receiptChecker
	roles    roles.Resolver
	audit    audit.Service
	events   eventEmitter
	metrics  *metrics.WorkflowMetrics
}

// NewService wires the payment service.
func NewService(
	tx txRunner,
	repo Repository,
	orders orderSource,
	requestsSvc requestAdvancer,
	receipt receiptChecker,
	rolesResolver roles.Resolver,
	auditSvc audit.Service,
	events eventEmitter,
	workflowMetrics *metrics.WorkflowMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("purchase order source required")
	}
	if requestsSvc == nil {
		return nil, fmt.Errorf("request service required")
	}
	if receipt == nil {
		return nil, fmt.Errorf("receipt checker required")
	}
	if rolesResolver == nil {
		return nil, fmt.Errorf("role resolver required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		orders:   orders,
		requests: requestsSvc,
		receipt:  receipt,
		roles:    rolesResolver,
		audit:    auditSvc,
		events:   events,
		metrics:  workflowMetrics,
	}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.Payment, error) {
	if input.RequestID == uuid.Nil || input.ActorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "request id and actor id are required")
	}

	if err := s.roles.Require(ctx, input.ActorID, enums.RoleFinance, roles.Scope{}); err != nil {
		s.metrics.IncRejection(entityLabel, "forbidden")
		return nil, err
	}

	request, err := s.requests.Get(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.RequestStatusPaymentPending {
		s.metrics.IncRejection(entityLabel, "precondition")
		return nil, errors.New(errors.CodePrecondition,
			fmt.Sprintf("payments require a payment_pending request, request is %s", request.Status))
	}

	ready, err := s.receipt.IsReadyForPayment(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if !ready {
		s.metrics.IncRejection(entityLabel, "precursor_not_ready")
		return nil, errors.New(errors.CodePrecursorNotReady, "goods receipt chain is not complete")
	}

	if _, err := s.repo.GetByRequestID(ctx, input.RequestID); err == nil {
		s.metrics.IncRejection(entityLabel, "conflict")
		return nil, errors.New(errors.CodeConflict, "request already has a payment")
	} else if !errors.HasCode(err, errors.CodeNotFound) {
		return nil, err
	}

	order, err := s.orders.GetActiveByRequestID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		RequestID:        input.RequestID,
		PurchaseOrderID:  order.ID,
		Amount:           order.TotalAmount,
		Status:           enums.PaymentStatusPaid,
		RecordedByUserID: input.ActorID,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "create payment")
		}

		if _, err := s.requests.Advance(ctx, tx, input.RequestID, enums.RequestStatusPaid, input.ActorID, enums.RoleFinance); err != nil {
			return err
		}

		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypePayment,
			EntityID:      payment.ID,
			ToState:       payment.Status.String(),
			ActorUserID:   input.ActorID,
			Role:          enums.RoleFinance,
			EntityVersion: 1,
		}); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: enums.RoleFinance.String()},
			Data: map[string]any{
				"request_id":        payment.RequestID,
				"purchase_order_id": payment.PurchaseOrderID,
				"amount":            payment.Amount,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityLabel, payment.Status.String())
	return payment, nil
}

func (s *service) GetByRequest(ctx context.Context, requestID uuid.UUID) (*models.Payment, error) {
	if requestID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "request id is required")
	}
	return s.repo.GetByRequestID(ctx, requestID)
}
