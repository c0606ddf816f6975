package replenishments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
)

// GateUpdate is the mutable slice of a replenishment written by a gate
// decision or completion.
type GateUpdate struct {
	DirectorGsdApproval enums.ApprovalState
	DgApproval          enums.ApprovalState
	Status              enums.ReplenishmentStatus
	CompletedAt         *time.Time
}

// Repository manages persistence for stock replenishments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, replenishment *models.StockReplenishment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StockReplenishment, error)
	ListByStatus(ctx context.Context, status enums.ReplenishmentStatus) ([]models.StockReplenishment, error)
	// UpdateGates applies a gate decision conditioned on the version the
	// caller read.
	UpdateGates(ctx context.Context, id uuid.UUID, expectedVersion int, update GateUpdate) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a replenishment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, replenishment *models.StockReplenishment) error {
	return r.db.WithContext(ctx).Create(replenishment).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.StockReplenishment, error) {
	var replenishment models.StockReplenishment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&replenishment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "replenishment not found")
		}
		return nil, err
	}
	return &replenishment, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.ReplenishmentStatus) ([]models.StockReplenishment, error) {
	var replenishments []models.StockReplenishment
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&replenishments).Error; err != nil {
		return nil, err
	}
	return replenishments, nil
}

func (r *repository) UpdateGates(ctx context.Context, id uuid.UUID, expectedVersion int, update GateUpdate) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockReplenishment{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"director_gsd_approval": update.DirectorGsdApproval,
			"dg_approval":           update.DgApproval,
			"status":                update.Status,
			"completed_at":          update.CompletedAt,
			"version":               gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeConcurrentMod, "replenishment changed since it was read")
	}
	return nil
}
