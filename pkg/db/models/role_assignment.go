package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/pkg/enums"
)

// RoleAssignment grants a user a workflow role, optionally scoped to a
// department or a store. A NULL scope column means the grant is global.
type RoleAssignment struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Role       enums.WorkflowRole `gorm:"column:role;type:text;not null"`
	Department *string            `gorm:"column:department"`
	StoreID    *uuid.UUID         `gorm:"column:store_id;type:uuid"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}
