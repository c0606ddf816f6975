package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/pagination"
)

// Service defines operations that record and read the workflow trail.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.AuditEntry, error)
	History(ctx context.Context, entityType enums.EntityType, entityID uuid.UUID, params pagination.Params) (*pagination.Page[models.AuditEntry], error)
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data a trail entry requires.
type RecordInput struct {
	EntityType    enums.EntityType
	EntityID      uuid.UUID
	FromState     string
	ToState       string
	ActorUserID   uuid.UUID
	Role          enums.WorkflowRole
	Comments      string
	EntityVersion int
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

// Record appends a trail entry inside the caller's transaction so the
// state write and its trail row commit or roll back together.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.AuditEntry, error) {
	if !input.EntityType.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid entity type %q", input.EntityType))
	}
	if input.EntityID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "entity id is required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "actor user id is required")
	}
	if input.ToState == "" {
		return nil, errors.New(errors.CodeValidation, "to state is required")
	}

	entry := &models.AuditEntry{
		EntityType:    input.EntityType,
		EntityID:      input.EntityID,
		FromState:     input.FromState,
		ToState:       input.ToState,
		ActorUserID:   input.ActorUserID,
		Role:          input.Role,
		Comments:      input.Comments,
		EntityVersion: input.EntityVersion,
	}

	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "record audit entry")
	}
	return entry, nil
}

func (s *service) History(ctx context.Context, entityType enums.EntityType, entityID uuid.UUID, params pagination.Params) (*pagination.Page[models.AuditEntry], error) {
	if !entityType.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid entity type %q", entityType))
	}
	if entityID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "entity id is required")
	}

	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	entries, next, err := s.repo.ListByEntity(ctx, entityType, entityID, params.Limit, cursor)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list audit entries")
	}

	page := &pagination.Page[models.AuditEntry]{Items: entries}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}
