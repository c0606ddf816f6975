package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/pkg/enums"
)

// Request is a procurement request moving through the checker/reviewer/approver
// ladder. Status and CurrentStage are kept consistent by the workflow engine;
// Version is the optimistic-concurrency counter every mutating command
// compares against.
type Request struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestNumber string              `gorm:"column:request_number;not null;uniqueIndex"`
	ItemName      string              `gorm:"column:item_name;not null"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	Department    string              `gorm:"column:department;not null"`
	InitiatorID   uuid.UUID           `gorm:"column:initiator_id;type:uuid;not null"`
	Initiator     *User               `gorm:"foreignKey:InitiatorID"`
	Purpose       string              `gorm:"column:purpose"`
	Justification string              `gorm:"column:justification;not null"`
	Priority      enums.Priority      `gorm:"column:priority;type:text;not null;default:'MEDIUM'"`
	Status        enums.RequestStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	CurrentStage  enums.RequestStage  `gorm:"column:current_stage;type:text;not null;default:'CHECKER'"`
	Revision      int                 `gorm:"column:revision;not null;default:0"`
	Version       int                 `gorm:"column:version;not null;default:1"`
	Documents     []RequestDocument   `gorm:"foreignKey:RequestID"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// RequestDocument is a supporting attachment owned by a request. Upload
// mechanics live outside the engine; only the record is tracked here.
type RequestDocument struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID   uuid.UUID `gorm:"column:request_id;type:uuid;not null;index"`
	FileName    string    `gorm:"column:file_name;not null"`
	ContentType string    `gorm:"column:content_type"`
	UploadedBy  uuid.UUID `gorm:"column:uploaded_by;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
