package goodsreceipt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
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

const (
	svcLabel = "store_verification_certificate"
	srvLabel = "store_receive_voucher"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// orderSource reads purchase orders so certificates can be pinned to the
// procurement chain they verify.
type orderSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	GetActiveByRequestID(ctx context.Context, requestID uuid.UUID) (*models.PurchaseOrder, error)
}

// requestAdvancer moves the owning request once its goods are received.
type requestAdvancer interface {
	Advance(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, to enums.RequestStatus, actorID uuid.UUID, role enums.WorkflowRole) (*models.Request, error)
}

// Service enforces the SVC then SRV document chain for goods receipt.
type Service interface {
	CreateSVC(ctx context.Context, input CreateSVCInput) (*models.StoreVerificationCertificate, error)
	ResolveSVC(ctx context.Context, input ResolveSVCInput) (*models.StoreVerificationCertificate, error)
	CreateSRV(ctx context.Context, input CreateSRVInput) (*models.StoreReceiveVoucher, error)
	CompleteSRV(ctx context.Context, srvID, actorID uuid.UUID) (*models.StoreReceiveVoucher, error)
	GetSVC(ctx context.Context, id uuid.UUID) (*models.StoreVerificationCertificate, error)
	GetSRV(ctx context.Context, id uuid.UUID) (*models.StoreReceiveVoucher, error)
	// IsReadyForPayment walks the chain request, purchase order, verified
	// SVC, completed SRV and reports whether finance may proceed.
	IsReadyForPayment(ctx context.Context, requestID uuid.UUID) (bool, error)
}

// CreateSVCInput carries the fields a certificate is raised with.
type CreateSVCInput struct {
	StoreID          uuid.UUID
	ContractorID     uuid.UUID
	PurchaseOrderID  uuid.UUID
	GoodsDescription string
	QuantityReceived int
	VerificationDate time.Time
	ActorID          uuid.UUID
}

// ResolveSVCInput settles a pending certificate.
type ResolveSVCInput struct {
	SVCID   uuid.UUID
	Outcome enums.SVCStatus
	ActorID uuid.UUID
}

// CreateSRVInput carries the fields a voucher is raised with.
type CreateSRVInput struct {
	SVCID            uuid.UUID
	ReceivedByUserID uuid.UUID
	ReceiveDate      time.Time
	ActorID          uuid.UUID
}

type service struct {
	tx        txRunner
	repo      Repository
	orders    orderSource
	requests  requestAdvancer
	roles     roles.Resolver
	audit     audit.Service
	numbering numbering.Service
	events    eventEmitter
	metrics   *metrics.WorkflowMetrics
	now       func() time.Time
}

// NewService wires the goods-receipt service.
func NewService(
	tx txRunner,
	repo Repository,
	orders orderSource,
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
		return nil, fmt.Errorf("goods receipt repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("purchase order source required")
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
		orders:    orders,
		requests:  requestsSvc,
		roles:     rolesResolver,
		audit:     auditSvc,
		numbering: numberingSvc,
		events:    events,
		metrics:   workflowMetrics,
		now:       time.Now,
	}, nil
}

func (s *service) CreateSVC(ctx context.Context, input CreateSVCInput) (*models.StoreVerificationCertificate, error) {
	if input.StoreID == uuid.Nil || input.ContractorID == uuid.Nil || input.PurchaseOrderID == uuid.Nil || input.ActorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "store, contractor, purchase order and actor ids are required")
	}
	if strings.TrimSpace(input.GoodsDescription) == "" {
		return nil, errors.New(errors.CodeValidation, "goods description is required")
	}
	if input.QuantityReceived < 1 {
		return nil, errors.New(errors.CodeValidation, "quantity received must be at least 1")
	}
	if input.VerificationDate.IsZero() {
		return nil, errors.New(errors.CodeValidation, "verification date is required")
	}

	if err := s.roles.Require(ctx, input.ActorID, enums.RoleStoreKeeper, roles.Scope{StoreID: input.StoreID}); err != nil {
		s.metrics.IncRejection(svcLabel, "forbidden")
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, input.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.PurchaseOrderStatusCancelled {
		s.metrics.IncRejection(svcLabel, "precondition")
		return nil, errors.New(errors.CodePrecondition, "cannot verify goods against a cancelled purchase order")
	}

	svc := &models.StoreVerificationCertificate{
		StoreID:          input.StoreID,
		ContractorID:     input.ContractorID,
		PurchaseOrderID:  input.PurchaseOrderID,
		GoodsDescription: strings.TrimSpace(input.GoodsDescription),
		QuantityReceived: input.QuantityReceived,
		VerificationDate: input.VerificationDate,
		Status:           enums.SVCStatusPending,
		Version:          1,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.numbering.Next(ctx, tx, numbering.DocTypeSVC, s.now().Year())
		if err != nil {
			return err
		}
		svc.VerificationNumber = number

		if err := s.repo.WithTx(tx).CreateSVC(ctx, svc); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "create verification certificate")
		}
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypeSVC,
			EntityID:      svc.ID,
			ToState:       svc.Status.String(),
			ActorUserID:   input.ActorID,
			Role:          enums.RoleStoreKeeper,
			EntityVersion: svc.Version,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSVCCreated,
			AggregateType: enums.AggregateSVC,
			AggregateID:   svc.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: enums.RoleStoreKeeper.String()},
			Data: map[string]any{
				"verification_number": svc.VerificationNumber,
				"purchase_order_id":   svc.PurchaseOrderID,
				"quantity_received":   svc.QuantityReceived,
			},
			Version: svc.Version,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(svcLabel, svc.Status.String())
	return svc, nil
}

func (s *service) ResolveSVC(ctx context.Context, input ResolveSVCInput) (*models.StoreVerificationCertificate, error) {
	if input.SVCID == uuid.Nil || input.ActorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "certificate id and actor id are required")
	}
	if input.Outcome != enums.SVCStatusVerified && input.Outcome != enums.SVCStatusRejected {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid outcome %q", input.Outcome))
	}

	svc, err := s.repo.GetSVCByID(ctx, input.SVCID)
	if err != nil {
		return nil, err
	}
	if err := s.roles.Require(ctx, input.ActorID, enums.RoleStoreKeeper, roles.Scope{StoreID: svc.StoreID}); err != nil {
		s.metrics.IncRejection(svcLabel, "forbidden")
		return nil, err
	}
	// Resolved certificates are immutable.
	if svc.Status.IsResolved() {
		s.metrics.IncRejection(svcLabel, "precondition")
		return nil, errors.New(errors.CodePrecondition, fmt.Sprintf("certificate already %s", svc.Status))
	}

	fromStatus := svc.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateSVCStatus(ctx, svc.ID, svc.Version, input.Outcome); err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypeSVC,
			EntityID:      svc.ID,
			FromState:     fromStatus.String(),
			ToState:       input.Outcome.String(),
			ActorUserID:   input.ActorID,
			Role:          enums.RoleStoreKeeper,
			EntityVersion: svc.Version + 1,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSVCResolved,
			AggregateType: enums.AggregateSVC,
			AggregateID:   svc.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: enums.RoleStoreKeeper.String()},
			Data: map[string]any{
				"outcome": input.Outcome,
			},
			Version: svc.Version + 1,
		})
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeConcurrentMod) {
			s.metrics.IncConflict(svcLabel)
		}
		return nil, err
	}

	svc.Status = input.Outcome
	svc.Version++
	s.metrics.IncTransition(svcLabel, input.Outcome.String())
	return svc, nil
}

func (s *service) CreateSRV(ctx context.Context, input CreateSRVInput) (*models.StoreReceiveVoucher, error) {
	if input.SVCID == uuid.Nil || input.ReceivedByUserID == uuid.Nil || input.ActorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "certificate id, receiver id and actor id are required")
	}
	if input.ReceiveDate.IsZero() {
		return nil, errors.New(errors.CodeValidation, "receive date is required")
	}

	svc, err := s.repo.GetSVCByID(ctx, input.SVCID)
	if err != nil {
		return nil, err
	}
	if err := s.roles.Require(ctx, input.ActorID, enums.RoleStoreKeeper, roles.Scope{StoreID: svc.StoreID}); err != nil {
		s.metrics.IncRejection(srvLabel, "forbidden")
		return nil, err
	}
	if svc.Status != enums.SVCStatusVerified {
		s.metrics.IncRejection(srvLabel, "precursor_not_ready")
		return nil, errors.New(errors.CodePrecursorNotReady,
			fmt.Sprintf("vouchers require a verified certificate, certificate is %s", svc.Status))
	}
	if _, err := s.repo.GetSRVBySVCID(ctx, input.SVCID); err == nil {
		s.metrics.IncRejection(srvLabel, "precursor_not_ready")
		return nil, errors.New(errors.CodePrecursorNotReady, "certificate already has a receive voucher")
	} else if !errors.HasCode(err, errors.CodeNotFound) {
		return nil, err
	}

	srv := &models.StoreReceiveVoucher{
		SVCID:            input.SVCID,
		ReceivedByUserID: input.ReceivedByUserID,
		ReceiveDate:      input.ReceiveDate,
		Status:           enums.SRVStatusPending,
		Version:          1,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.numbering.Next(ctx, tx, numbering.DocTypeSRV, s.now().Year())
		if err != nil {
			return err
		}
		srv.SrvNumber = number

		if err := s.repo.WithTx(tx).CreateSRV(ctx, srv); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "create receive voucher")
		}
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypeSRV,
			EntityID:      srv.ID,
			ToState:       srv.Status.String(),
			ActorUserID:   input.ActorID,
			Role:          enums.RoleStoreKeeper,
			EntityVersion: srv.Version,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSRVCreated,
			AggregateType: enums.AggregateSRV,
			AggregateID:   srv.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: enums.RoleStoreKeeper.String()},
			Data: map[string]any{
				"srv_number": srv.SrvNumber,
				"svc_id":     srv.SVCID,
			},
			Version: srv.Version,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(srvLabel, srv.Status.String())
	return srv, nil
}

func (s *service) CompleteSRV(ctx context.Context, srvID, actorID uuid.UUID) (*models.StoreReceiveVoucher, error) {
	if srvID == uuid.Nil || actorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "voucher id and actor id are required")
	}

	srv, err := s.repo.GetSRVByID(ctx, srvID)
	if err != nil {
		return nil, err
	}
	svc, err := s.repo.GetSVCByID(ctx, srv.SVCID)
	if err != nil {
		return nil, err
	}
	if err := s.roles.Require(ctx, actorID, enums.RoleStoreKeeper, roles.Scope{StoreID: svc.StoreID}); err != nil {
		s.metrics.IncRejection(srvLabel, "forbidden")
		return nil, err
	}
	if srv.Status != enums.SRVStatusPending {
		s.metrics.IncRejection(srvLabel, "precondition")
		return nil, errors.New(errors.CodePrecondition, fmt.Sprintf("voucher already %s", srv.Status))
	}

	order, err := s.orders.GetByID(ctx, svc.PurchaseOrderID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateSRVStatus(ctx, srv.ID, srv.Version, enums.SRVStatusCompleted); err != nil {
			return err
		}

		// Completed receipt hands the request over to finance.
		if _, err := s.requests.Advance(ctx, tx, order.RequestID, enums.RequestStatusPaymentPending, actorID, enums.RoleStoreKeeper); err != nil {
			return err
		}

		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypeSRV,
			EntityID:      srv.ID,
			FromState:     enums.SRVStatusPending.String(),
			ToState:       enums.SRVStatusCompleted.String(),
			ActorUserID:   actorID,
			Role:          enums.RoleStoreKeeper,
			EntityVersion: srv.Version + 1,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSRVCompleted,
			AggregateType: enums.AggregateSRV,
			AggregateID:   srv.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.RoleStoreKeeper.String()},
			Data: map[string]any{
				"request_id": order.RequestID,
			},
			Version: srv.Version + 1,
		})
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeConcurrentMod) {
			s.metrics.IncConflict(srvLabel)
		}
		return nil, err
	}

	srv.Status = enums.SRVStatusCompleted
	srv.Version++
	s.metrics.IncTransition(srvLabel, srv.Status.String())
	return srv, nil
}

func (s *service) GetSVC(ctx context.Context, id uuid.UUID) (*models.StoreVerificationCertificate, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "certificate id is required")
	}
	return s.repo.GetSVCByID(ctx, id)
}

func (s *service) GetSRV(ctx context.Context, id uuid.UUID) (*models.StoreReceiveVoucher, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "voucher id is required")
	}
	return s.repo.GetSRVByID(ctx, id)
}

func (s *service) IsReadyForPayment(ctx context.Context, requestID uuid.UUID) (bool, error) {
	if requestID == uuid.Nil {
		return false, errors.New(errors.CodeValidation, "request id is required")
	}

	order, err := s.orders.GetActiveByRequestID(ctx, requestID)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}

	svcs, err := s.repo.ListSVCsByPurchaseOrder(ctx, order.ID)
	if err != nil {
		return false, err
	}
	for _, svc := range svcs {
		if svc.Status != enums.SVCStatusVerified {
			continue
		}
		srv, err := s.repo.GetSRVBySVCID(ctx, svc.ID)
		if err != nil {
			if errors.HasCode(err, errors.CodeNotFound) {
				continue
			}
			return false, err
		}
		if srv.Status == enums.SRVStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}
