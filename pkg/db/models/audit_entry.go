package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/pkg/enums"
)

// AuditEntry is one immutable row in the approval-history ledger. Rows are
// only ever inserted; EntityVersion orders entries for the same entity using
// the same counter the compare-and-swap writes use.
type AuditEntry struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityType    enums.EntityType   `gorm:"column:entity_type;type:text;not null;index:idx_audit_entity"`
	EntityID      uuid.UUID          `gorm:"column:entity_id;type:uuid;not null;index:idx_audit_entity"`
	FromState     string             `gorm:"column:from_state;not null"`
	ToState       string             `gorm:"column:to_state;not null"`
	ActorUserID   uuid.UUID          `gorm:"column:actor_user_id;type:uuid;not null"`
	Actor         *User              `gorm:"foreignKey:ActorUserID"`
	Role          enums.WorkflowRole `gorm:"column:role;type:text"`
	Comments      string             `gorm:"column:comments"`
	EntityVersion int                `gorm:"column:entity_version;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}
