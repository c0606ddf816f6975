package requests

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
	"github.com/procureflow/procureflow-backend/pkg/pagination"
)

const entityLabel = "request"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives the approval ladder and lifecycle of procurement requests.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Request, error)
	Act(ctx context.Context, input ActInput) (*models.Request, error)
	Resubmit(ctx context.Context, requestID, actorID uuid.UUID) (*models.Request, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Request, error)
	ListByStage(ctx context.Context, params ListParams) (*ListResult, error)
	// Advance moves a request through the procurement phase inside the
	// caller's transaction. Downstream document services drive it.
	Advance(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, to enums.RequestStatus, actorID uuid.UUID, role enums.WorkflowRole) (*models.Request, error)
}

// SubmitInput carries the fields an initiator files a request with.
type SubmitInput struct {
	ItemName      string
	Quantity      int
	Department    string
	InitiatorID   uuid.UUID
	Purpose       string
	Justification string
	Priority      enums.Priority
}

// ActInput is a stage decision on a pending request.
type ActInput struct {
	RequestID  uuid.UUID
	ActorID    uuid.UUID
	ActingRole enums.WorkflowRole
	Decision   enums.Decision
	Comments   string
}

// ListParams selects a stage queue page.
type ListParams struct {
	Stage  enums.RequestStage
	Limit  int
	Cursor string
}

// ListResult is one page of a stage queue with the cursor to the next.
type ListResult struct {
	Items  []models.Request `json:"items"`
	Cursor string           `json:"cursor"`
}

type service struct {
	tx        txRunner
	repo      Repository
	roles     roles.Resolver
	audit     audit.Service
	numbering numbering.Service
	events    eventEmitter
	metrics   *metrics.WorkflowMetrics
	now       func() time.Time
}

// NewService wires the request workflow service.
func NewService(
	tx txRunner,
	repo Repository,
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
		return nil, fmt.Errorf("request repository required")
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
		roles:     rolesResolver,
		audit:     auditSvc,
		numbering: numberingSvc,
		events:    events,
		metrics:   workflowMetrics,
		now:       time.Now,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Request, error) {
	if err := validateSubmit(input); err != nil {
		s.metrics.IncRejection(entityLabel, "validation")
		return nil, err
	}

	request := &models.Request{
		ItemName:      strings.TrimSpace(input.ItemName),
		Quantity:      input.Quantity,
		Department:    input.Department,
		InitiatorID:   input.InitiatorID,
		Purpose:       input.Purpose,
		Justification: strings.TrimSpace(input.Justification),
		Priority:      input.Priority,
		Status:        enums.RequestStatusPending,
		CurrentStage:  enums.StageChecker,
		Revision:      0,
		Version:       1,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.numbering.Next(ctx, tx, numbering.DocTypeRequest, s.now().Year())
		if err != nil {
			return err
		}
		request.RequestNumber = number

		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "create request")
		}

		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypeRequest,
			EntityID:      request.ID,
			FromState:     "",
			ToState:       request.Status.String(),
			ActorUserID:   input.InitiatorID,
			EntityVersion: request.Version,
		}); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRequestSubmitted,
			AggregateType: enums.AggregateRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: input.InitiatorID},
			Data: map[string]any{
				"request_number": request.RequestNumber,
				"item_name":      request.ItemName,
				"quantity":       request.Quantity,
				"department":     request.Department,
				"priority":       request.Priority,
			},
			Version: request.Version,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityLabel, request.Status.String())
	return request, nil
}

func validateSubmit(input SubmitInput) error {
	if len(strings.TrimSpace(input.ItemName)) < 3 {
		return errors.New(errors.CodeValidation, "item name must be at least 3 characters")
	}
	if input.Quantity < 1 {
		return errors.New(errors.CodeValidation, "quantity must be at least 1")
	}
	if len(strings.TrimSpace(input.Justification)) < 20 {
		return errors.New(errors.CodeValidation, "justification must be at least 20 characters")
	}
	if input.Department == "" {
		return errors.New(errors.CodeValidation, "department is required")
	}
	if input.InitiatorID == uuid.Nil {
		return errors.New(errors.CodeValidation, "initiator id is required")
	}
	if input.Priority != "" && !input.Priority.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("invalid priority %q", input.Priority))
	}
	return nil
}

func (s *service) Act(ctx context.Context, input ActInput) (*models.Request, error) {
	if input.RequestID == uuid.Nil || input.ActorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "request id and actor id are required")
	}
	if !input.Decision.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid decision %q", input.Decision))
	}
	if input.Decision.RequiresComments() && strings.TrimSpace(input.Comments) == "" {
		s.metrics.IncRejection(entityLabel, "missing_comments")
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("%s requires comments", strings.ToLower(input.Decision.String())))
	}

	request, err := s.repo.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}

	requiredRole, err := RoleForStage(request.CurrentStage)
	if err != nil {
		s.metrics.IncRejection(entityLabel, "stage_mismatch")
		return nil, err
	}
	if input.ActingRole != requiredRole {
		s.metrics.IncRejection(entityLabel, "stage_mismatch")
		return nil, errors.New(errors.CodeStageMismatch,
			fmt.Sprintf("stage %s requires role %s, got %s", request.CurrentStage, requiredRole, input.ActingRole))
	}
	if err := s.roles.Require(ctx, input.ActorID, requiredRole, roles.Scope{Department: request.Department}); err != nil {
		s.metrics.IncRejection(entityLabel, "forbidden")
		return nil, err
	}

	nextStatus, nextStage, err := NextApprovalState(request.Status, request.CurrentStage, input.Decision)
	if err != nil {
		s.metrics.IncRejection(entityLabel, "stage_mismatch")
		return nil, err
	}

	fromStatus := request.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateState(ctx, request.ID, request.Version, StateUpdate{
			Status:       nextStatus,
			CurrentStage: nextStage,
			Revision:     request.Revision,
		}); err != nil {
			return err
		}

		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypeRequest,
			EntityID:      request.ID,
			FromState:     fromStatus.String(),
			ToState:       nextStatus.String(),
			ActorUserID:   input.ActorID,
			Role:          input.ActingRole,
			Comments:      input.Comments,
			EntityVersion: request.Version + 1,
		}); err != nil {
			return err
		}

		eventType := enums.EventRequestDecided
		if nextStatus == enums.RequestStatusApproved {
			eventType = enums.EventRequestApproved
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: input.ActingRole.String()},
			Data: map[string]any{
				"decision":   input.Decision,
				"from_state": fromStatus,
				"to_state":   nextStatus,
				"stage":      request.CurrentStage,
			},
			Version: request.Version + 1,
		})
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeConcurrentMod) {
			s.metrics.IncConflict(entityLabel)
		}
		return nil, err
	}

	request.Status = nextStatus
	request.CurrentStage = nextStage
	request.Version++
	s.metrics.IncTransition(entityLabel, nextStatus.String())
	return request, nil
}

func (s *service) Resubmit(ctx context.Context, requestID, actorID uuid.UUID) (*models.Request, error) {
	if requestID == uuid.Nil || actorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "request id and actor id are required")
	}

	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.RequestStatusReturned {
		s.metrics.IncRejection(entityLabel, "stage_mismatch")
		return nil, errors.New(errors.CodeStageMismatch,
			fmt.Sprintf("only returned requests can be resubmitted, request is %s", request.Status))
	}
	if request.InitiatorID != actorID {
		s.metrics.IncRejection(entityLabel, "forbidden")
		return nil, errors.New(errors.CodeForbidden, "only the original initiator can resubmit")
	}

	fromStatus := request.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateState(ctx, request.ID, request.Version, StateUpdate{
			Status:       enums.RequestStatusPending,
			CurrentStage: enums.StageChecker,
			Revision:     request.Revision + 1,
		}); err != nil {
			return err
		}

		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			EntityType:    enums.EntityTypeRequest,
			EntityID:      request.ID,
			FromState:     fromStatus.String(),
			ToState:       enums.RequestStatusPending.String(),
			ActorUserID:   actorID,
			EntityVersion: request.Version + 1,
		}); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRequestResubmitted,
			AggregateType: enums.AggregateRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Data: map[string]any{
				"revision": request.Revision + 1,
			},
			Version: request.Version + 1,
		})
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeConcurrentMod) {
			s.metrics.IncConflict(entityLabel)
		}
		return nil, err
	}

	request.Status = enums.RequestStatusPending
	request.CurrentStage = enums.StageChecker
	request.Revision++
	request.Version++
	s.metrics.IncTransition(entityLabel, request.Status.String())
	return request, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "request id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByStage(ctx context.Context, params ListParams) (*ListResult, error) {
	if !params.Stage.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid request stage %q", params.Stage))
	}

	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	requests, next, err := s.repo.ListByStage(ctx, params.Stage, params.Limit, cursor)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list requests by stage")
	}

	result := &ListResult{Items: requests}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Advance(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, to enums.RequestStatus, actorID uuid.UUID, role enums.WorkflowRole) (*models.Request, error) {
	if tx == nil {
		return nil, errors.New(errors.CodeInternal, "advance requires a transaction")
	}
	txRepo := s.repo.WithTx(tx)
	request, err := txRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !CanAdvance(request.Status, to) {
		s.metrics.IncRejection(entityLabel, "precondition")
		return nil, errors.New(errors.CodePrecondition,
			fmt.Sprintf("request cannot move from %s to %s", request.Status, to))
	}

	fromStatus := request.Status
	if err := txRepo.UpdateState(ctx, request.ID, request.Version, StateUpdate{
		Status:       to,
		CurrentStage: enums.StageNone,
		Revision:     request.Revision,
	}); err != nil {
		if errors.HasCode(err, errors.CodeConcurrentMod) {
			s.metrics.IncConflict(entityLabel)
		}
		return nil, err
	}

	if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
		EntityType:    enums.EntityTypeRequest,
		EntityID:      request.ID,
		FromState:     fromStatus.String(),
		ToState:       to.String(),
		ActorUserID:   actorID,
		Role:          role,
		EntityVersion: request.Version + 1,
	}); err != nil {
		return nil, err
	}

	request.Status = to
	request.CurrentStage = enums.StageNone
	request.Version++
	s.metrics.IncTransition(entityLabel, to.String())
	return request, nil
}
