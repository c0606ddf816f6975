package purchaseorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/pkg/db"
	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
)

// Repository manages persistence for purchase orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PurchaseOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	// GetActiveByRequestID returns the non-cancelled order for a request,
	// or CodeNotFound when none exists.
	GetActiveByRequestID(ctx context.Context, requestID uuid.UUID) (*models.PurchaseOrder, error)
	ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]models.PurchaseOrder, error)
	// UpdateStatus applies a lifecycle move conditioned on the version the
	// caller read.
	UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status enums.PurchaseOrderStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a purchase order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.PurchaseOrder) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		// The partial unique index on request_id backstops the
		// service-level check when two writers race.
		if db.IsUniqueViolation(err, "ux_purchase_orders_active_request", "purchase_orders.request_id") {
			return errors.Wrap(errors.CodeDuplicatePO, err, "request already has an active purchase order")
		}
		return err
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "purchase order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) GetActiveByRequestID(ctx context.Context, requestID uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND status <> ?", requestID, enums.PurchaseOrderStatusCancelled).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "no active purchase order for request")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]models.PurchaseOrder, error) {
	var orders []models.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status enums.PurchaseOrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"status":  status,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeConcurrentMod, "purchase order changed since it was read")
	}
	return nil
}
