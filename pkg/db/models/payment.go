package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procureflow/procureflow-backend/pkg/enums"
)

// Payment records the finance settlement of a procured request. Only one
// payment may exist per request; recording it moves the request to PAID.
type Payment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID        uuid.UUID           `gorm:"column:request_id;type:uuid;not null;uniqueIndex"`
	PurchaseOrderID  uuid.UUID           `gorm:"column:purchase_order_id;type:uuid;not null"`
	Amount           decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	Status           enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	RecordedByUserID uuid.UUID           `gorm:"column:recorded_by_user_id;type:uuid;not null"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
