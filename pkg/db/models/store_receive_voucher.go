package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/pkg/enums"
)

// StoreReceiveVoucher closes the goods-receipt chain. The unique index on
// SVCID enforces the one-voucher-per-certificate rule at the storage layer as
// well as in the service.
type StoreReceiveVoucher struct {
	ID               uuid.UUID                     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SrvNumber        string                        `gorm:"column:srv_number;not null;uniqueIndex"`
	SVCID            uuid.UUID                     `gorm:"column:svc_id;type:uuid;not null;uniqueIndex"`
	SVC              *StoreVerificationCertificate `gorm:"foreignKey:SVCID"`
	ReceivedByUserID uuid.UUID                     `gorm:"column:received_by_user_id;type:uuid;not null"`
	ReceiveDate      time.Time                     `gorm:"column:receive_date;not null"`
	Status           enums.SRVStatus               `gorm:"column:status;type:text;not null;default:'pending'"`
	Version          int                           `gorm:"column:version;not null;default:1"`
	CreatedAt        time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                     `gorm:"column:updated_at;autoUpdateTime"`
}
