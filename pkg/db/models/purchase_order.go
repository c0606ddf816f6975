package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procureflow/procureflow-backend/pkg/enums"
)

// PurchaseOrder is issued against an approved request. TotalAmount is always
// recomputed from the items server-side; client-supplied totals are ignored.
type PurchaseOrder struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PoNumber    string                    `gorm:"column:po_number;not null;uniqueIndex"`
	RequestID   uuid.UUID                 `gorm:"column:request_id;type:uuid;not null;index"`
	Request     *Request                  `gorm:"foreignKey:RequestID"`
	VendorID    uuid.UUID                 `gorm:"column:vendor_id;type:uuid;not null"`
	Vendor      *Vendor                   `gorm:"foreignKey:VendorID"`
	TotalAmount decimal.Decimal           `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Status      enums.PurchaseOrderStatus `gorm:"column:status;type:text;not null;default:'DRAFT'"`
	Items       []PurchaseOrderItem       `gorm:"foreignKey:PurchaseOrderID"`
	Version     int                       `gorm:"column:version;not null;default:1"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// PurchaseOrderItem is one ordered line on a purchase order.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	ItemName        string          `gorm:"column:item_name;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Position        int             `gorm:"column:position;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
