package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/pkg/enums"
)

// StockReplenishment is a store restock that needs Director-GSD sign-off
// followed by DG sign-off before procurement may begin. Status is stored as a
// projection but always re-derived from the two gates on mutation.
type StockReplenishment struct {
	ID                  uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemName            string                    `gorm:"column:item_name;not null"`
	QuantityRequested   int                       `gorm:"column:quantity_requested;not null"`
	StoreID             uuid.UUID                 `gorm:"column:store_id;type:uuid;not null"`
	Store               *Store                    `gorm:"foreignKey:StoreID"`
	InitiatedByUserID   uuid.UUID                 `gorm:"column:initiated_by_user_id;type:uuid;not null"`
	Justification       string                    `gorm:"column:justification"`
	DirectorGsdApproval enums.ApprovalState       `gorm:"column:director_gsd_approval;type:text;not null;default:'pending'"`
	DgApproval          enums.ApprovalState       `gorm:"column:dg_approval;type:text;not null;default:'pending'"`
	Status              enums.ReplenishmentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CompletedAt         *time.Time                `gorm:"column:completed_at"`
	Version             int                       `gorm:"column:version;not null;default:1"`
	CreatedAt           time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
