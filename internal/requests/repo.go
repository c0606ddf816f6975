package requests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/pagination"
)

// StateUpdate is the mutable slice of a request written by a workflow
// transition.
type StateUpdate struct {
	Status       enums.RequestStatus
	CurrentStage enums.RequestStage
	Revision     int
}

// Repository manages persistence for procurement requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	ListByStage(ctx context.Context, stage enums.RequestStage, limit int, cursor *pagination.Cursor) ([]models.Request, *pagination.Cursor, error)
	ListByStatus(ctx context.Context, status enums.RequestStatus) ([]models.Request, error)
	// UpdateState applies a transition conditioned on the version the
	// caller read. A stale version leaves the row untouched and returns
	// CodeConcurrentMod.
	UpdateState(ctx context.Context, id uuid.UUID, expectedVersion int, update StateUpdate) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a request repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.Request) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var request models.Request
	err := r.db.WithContext(ctx).
		Preload("Documents").
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "request not found")
		}
		return nil, err
	}
	return &request, nil
}

// ListByStage pages through a stage's queue oldest-first.
func (r *repository) ListByStage(ctx context.Context, stage enums.RequestStage, limit int, cursor *pagination.Cursor) ([]models.Request, *pagination.Cursor, error) {
	buffered := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).Where("current_stage = ?", stage)
	// The cursor names the first row of the requested page, so the
	// comparison is inclusive.
	if cursor != nil {
		query = query.Where("(created_at, id) >= (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var requests []models.Request
	if err := query.Order("created_at ASC, id ASC").Limit(buffered).Find(&requests).Error; err != nil {
		return nil, nil, err
	}

	if len(requests) > normalized {
		next := requests[normalized]
		requests = requests[:normalized]
		return requests, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return requests, nil, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.RequestStatus) ([]models.Request, error) {
	var requests []models.Request
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) UpdateState(ctx context.Context, id uuid.UUID, expectedVersion int, update StateUpdate) error {
	result := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"status":        update.Status,
			"current_stage": update.CurrentStage,
			"revision":      update.Revision,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeConcurrentMod, "request changed since it was read")
	}
	return nil
}
