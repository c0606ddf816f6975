package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an acting principal known to the workflow. Authentication happens
// upstream; this record only anchors references and role assignments.
type User struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullName   string    `gorm:"column:full_name;not null"`
	Email      string    `gorm:"column:email;not null;uniqueIndex"`
	Department string    `gorm:"column:department;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
