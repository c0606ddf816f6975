package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/pkg/enums"
)

// StoreVerificationCertificate attests that goods physically received from a
// contractor match what was ordered. It anchors the receipt chain: a receive
// voucher can only follow a verified certificate.
type StoreVerificationCertificate struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VerificationNumber string          `gorm:"column:verification_number;not null;uniqueIndex"`
	StoreID            uuid.UUID       `gorm:"column:store_id;type:uuid;not null"`
	Store              *Store          `gorm:"foreignKey:StoreID"`
	ContractorID       uuid.UUID       `gorm:"column:contractor_id;type:uuid;not null"`
	Contractor         *Contractor     `gorm:"foreignKey:ContractorID"`
	PurchaseOrderID    uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null"`
	GoodsDescription   string          `gorm:"column:goods_description;not null"`
	QuantityReceived   int             `gorm:"column:quantity_received;not null"`
	VerificationDate   time.Time       `gorm:"column:verification_date;not null"`
	Status             enums.SVCStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Version            int             `gorm:"column:version;not null;default:1"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
