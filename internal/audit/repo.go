package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/pagination"
)

// Repository manages persistence for audit entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditEntry) error
	ListByEntity(ctx context.Context, entityType enums.EntityType, entityID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.AuditEntry, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByEntity pages through an entity's trail oldest-first. The trail is
// append-only, so (created_at, id) order matches insertion order.
func (r *repository) ListByEntity(ctx context.Context, entityType enums.EntityType, entityID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.AuditEntry, *pagination.Cursor, error) {
	buffered := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)
	// The cursor names the first row of the requested page, so the
	// comparison is inclusive.
	if cursor != nil {
		query = query.Where("(created_at, id) >= (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.AuditEntry
	if err := query.Order("created_at ASC, id ASC").Limit(buffered).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	if len(entries) > normalized {
		next := entries[normalized]
		entries = entries[:normalized]
		return entries, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return entries, nil, nil
}
