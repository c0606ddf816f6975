package replenishments

import (
	"context"
	"fmt"
	"strings"
	"time"

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

const entityLabel = "stock_replenishment"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// gateRoles maps an approval gate to the workflow role that may set it.
var gateRoles = map[enums.WorkflowRole]enums.WorkflowRole{
	enums.RoleDirectorGSD: enums.RoleDirectorGSD,
	enums.RoleDG:          enums.RoleDG,
}

// Service drives the dual-approval workflow for stock replenishments.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.StockReplenishment, error)
	Approve(ctx context.Context, input ApproveInput) (*models.StockReplenishment, error)
	Complete(ctx context.Context, replenishmentID, actorID uuid.UUID) (*models.StockReplenishment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.StockReplenishment, error)
	ListByStatus(ctx context.Context, status enums.ReplenishmentStatus) ([]models.StockReplenishment, error)
}

// CreateInput carries the fields a store files a replenishment with.
type CreateInput struct {
	StoreID           uuid.UUID
	ItemName          string
	Quantity          int
	InitiatedByUserID uuid.UUID
	Justification     string
}

// ApproveInput is one gate decision on a pending replenishment.
type ApproveInput struct {
	ReplenishmentID uuid.UUID
	ActorID         uuid.UUID
	ApprovalType    enums.WorkflowRole
	Decision        enums.ApprovalState
	Comments        string
}

type service struct {
	tx      txRunner
	repo    Repository
	roles   roles.Resolver
	audit   audit.Service
	events  eventEmitter
	metrics *metrics.WorkflowMetrics
	now     func() time.Time
}

// NewService wires the replenishment workflow service.
func NewService(
	tx txRunner,
	repo Repository,
	rolesResolver roles.Resolver,
	auditSvc audit.Service,
	events eventEmitter,
	workflowMetrics *metrics.WorkflowMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("replenishment repository required")
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
		tx:      tx,
		repo:    repo,
		roles:   rolesResolver,
		audit:   auditSvc,
		events:  events,
		metrics: workflowMetrics,
		now:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.StockReplenishment, error) {
	if input.StoreID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "store id is required")
	}
	if input.InitiatedByUserID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "initiator id is required")
	}
	if strings.TrimSpace(input.ItemName) == "" {
		return nil, errors.New(errors.CodeValidation, "item name is required")
	}
	if input.Quantity < 1 {
		return nil, errors.New(errors.CodeValidation, "quantity must be at least 1")
	}

	replenishment := &models.StockReplenishment{
		ItemName:            strings.TrimSpace(input.ItemName),
		QuantityRequested:   input.Quantity,
		StoreID:             input.StoreID,
		InitiatedByUserID:   input.InitiatedByUserID,
		Justification:       input.Justification,
		DirectorGsdApproval: enums.ApprovalStatePending,
		DgApproval:          enums.ApprovalStatePending,
		Status:              enums.ReplenishmentStatusPending,
		Version:             1,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, replenishment); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "create replenishment")
		}
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypeReplenishment,
			EntityID:      replenishment.ID,
			ToState:       replenishment.Status.String(),
			ActorUserID:   input.InitiatedByUserID,
			EntityVersion: replenishment.Version,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReplenishmentCreated,
			AggregateType: enums.AggregateReplenishment,
			AggregateID:   replenishment.ID,
			Actor:         &outbox.ActorRef{UserID: input.InitiatedByUserID},
			Data: map[string]any{
				"item_name": replenishment.ItemName,
				"quantity":  replenishment.QuantityRequested,
				"store_id":  replenishment.StoreID,
			},
			Version: replenishment.Version,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityLabel, replenishment.Status.String())
	return replenishment, nil
}

func (s *service) Approve(ctx context.Context, input ApproveInput) (*models.StockReplenishment, error) {
	if input.ReplenishmentID == uuid.Nil || input.ActorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "replenishment id and actor id are required")
	}
	gateRole, ok := gateRoles[input.ApprovalType]
	if !ok {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid approval type %q", input.ApprovalType))
	}
	if input.Decision != enums.ApprovalStateApproved && input.Decision != enums.ApprovalStateRejected {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid decision %q", input.Decision))
	}

	replenishment, err := s.repo.GetByID(ctx, input.ReplenishmentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkDrift(replenishment); err != nil {
		return nil, err
	}
	if err := s.roles.Require(ctx, input.ActorID, gateRole, roles.Scope{}); err != nil {
		s.metrics.IncRejection(entityLabel, "forbidden")
		return nil, err
	}

	gsd := replenishment.DirectorGsdApproval
	dg := replenishment.DgApproval
	switch input.ApprovalType {
	case enums.RoleDirectorGSD:
		if gsd.IsResolved() {
			s.metrics.IncRejection(entityLabel, "gate_resolved")
			return nil, errors.New(errors.CodePrecondition, fmt.Sprintf("director gsd gate already %s", gsd))
		}
		gsd = input.Decision
	case enums.RoleDG:
		if replenishment.DirectorGsdApproval != enums.ApprovalStateApproved {
			s.metrics.IncRejection(entityLabel, "out_of_order")
			return nil, errors.New(errors.CodeOutOfOrder, "dg may only act after director gsd approves")
		}
		if dg.IsResolved() {
			s.metrics.IncRejection(entityLabel, "gate_resolved")
			return nil, errors.New(errors.CodePrecondition, fmt.Sprintf("dg gate already %s", dg))
		}
		dg = input.Decision
	}

	fromStatus := replenishment.Status
	nextStatus := DeriveStatus(gsd, dg, replenishment.CompletedAt)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateGates(ctx, replenishment.ID, replenishment.Version, GateUpdate{
			DirectorGsdApproval: gsd,
			DgApproval:          dg,
			Status:              nextStatus,
			CompletedAt:         replenishment.CompletedAt,
		}); err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypeReplenishment,
			EntityID:      replenishment.ID,
			FromState:     fromStatus.String(),
			ToState:       nextStatus.String(),
			ActorUserID:   input.ActorID,
			Role:          gateRole,
			Comments:      input.Comments,
			EntityVersion: replenishment.Version + 1,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReplenishmentDecided,
			AggregateType: enums.AggregateReplenishment,
			AggregateID:   replenishment.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: gateRole.String()},
			Data: map[string]any{
				"approval_type": input.ApprovalType,
				"decision":      input.Decision,
				"from_state":    fromStatus,
				"to_state":      nextStatus,
			},
			Version: replenishment.Version + 1,
		})
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeConcurrentMod) {
			s.metrics.IncConflict(entityLabel)
		}
		return nil, err
	}

	replenishment.DirectorGsdApproval = gsd
	replenishment.DgApproval = dg
	replenishment.Status = nextStatus
	replenishment.Version++
	s.metrics.IncTransition(entityLabel, nextStatus.String())
	return replenishment, nil
}

func (s *service) Complete(ctx context.Context, replenishmentID, actorID uuid.UUID) (*models.StockReplenishment, error) {
	if replenishmentID == uuid.Nil || actorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "replenishment id and actor id are required")
	}

	replenishment, err := s.repo.GetByID(ctx, replenishmentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkDrift(replenishment); err != nil {
		return nil, err
	}
	if err := s.roles.Require(ctx, actorID, enums.RoleProcurementOfficer, roles.Scope{}); err != nil {
		s.metrics.IncRejection(entityLabel, "forbidden")
		return nil, err
	}
	if replenishment.Status != enums.ReplenishmentStatusInProcurement {
		s.metrics.IncRejection(entityLabel, "precondition")
		return nil, errors.New(errors.CodePrecondition,
			fmt.Sprintf("only in_procurement replenishments can complete, got %s", replenishment.Status))
	}

	completedAt := s.now()
	fromStatus := replenishment.Status
	nextStatus := DeriveStatus(replenishment.DirectorGsdApproval, replenishment.DgApproval, &completedAt)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateGates(ctx, replenishment.ID, replenishment.Version, GateUpdate{
			DirectorGsdApproval: replenishment.DirectorGsdApproval,
			DgApproval:          replenishment.DgApproval,
			Status:              nextStatus,
			CompletedAt:         &completedAt,
		}); err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypeReplenishment,
			EntityID:      replenishment.ID,
			FromState:     fromStatus.String(),
			ToState:       nextStatus.String(),
			ActorUserID:   actorID,
			Role:          enums.RoleProcurementOfficer,
			EntityVersion: replenishment.Version + 1,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReplenishmentComplete,
			AggregateType: enums.AggregateReplenishment,
			AggregateID:   replenishment.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.RoleProcurementOfficer.String()},
			Data: map[string]any{
				"completed_at": completedAt,
			},
			Version: replenishment.Version + 1,
		})
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeConcurrentMod) {
			s.metrics.IncConflict(entityLabel)
		}
		return nil, err
	}

	replenishment.Status = nextStatus
	replenishment.CompletedAt = &completedAt
	replenishment.Version++
	s.metrics.IncTransition(entityLabel, nextStatus.String())
	return replenishment, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.StockReplenishment, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "replenishment id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByStatus(ctx context.Context, status enums.ReplenishmentStatus) ([]models.StockReplenishment, error) {
	if !status.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid replenishment status %q", status))
	}
	replenishments, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list replenishments")
	}
	return replenishments, nil
}

// checkDrift refuses to act on a row whose stored status disagrees with
// its gates. That only happens if some writer bypassed the service.
func (s *service) checkDrift(replenishment *models.StockReplenishment) error {
	derived := DeriveStatus(replenishment.DirectorGsdApproval, replenishment.DgApproval, replenishment.CompletedAt)
	if derived != replenishment.Status {
		return errors.New(errors.CodeInternal,
			fmt.Sprintf("stored status %s disagrees with derived %s", replenishment.Status, derived))
	}
	return nil
}
