package requests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/pagination"
)

func setupRequestsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	requests := `
CREATE TABLE IF NOT EXISTS requests (
  id TEXT PRIMARY KEY,
  request_number TEXT NOT NULL UNIQUE,
  item_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  department TEXT NOT NULL,
  initiator_id TEXT NOT NULL,
  purpose TEXT,
  justification TEXT NOT NULL,
  priority TEXT NOT NULL DEFAULT 'MEDIUM',
  status TEXT NOT NULL DEFAULT 'PENDING',
  current_stage TEXT NOT NULL DEFAULT 'CHECKER',
  revision INTEGER NOT NULL DEFAULT 0,
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	documents := `
CREATE TABLE IF NOT EXISTS request_documents (
  id TEXT PRIMARY KEY,
  request_id TEXT NOT NULL,
  file_name TEXT NOT NULL,
  content_type TEXT,
  uploaded_by TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(requests).Error)
	require.NoError(t, db.Exec(documents).Error)
	return db
}

func createRequest(t *testing.T, db *gorm.DB, number string, stage enums.RequestStage, created time.Time) *models.Request {
	t.Helper()

	request := &models.Request{
		ID:            uuid.New(),
		RequestNumber: number,
		ItemName:      "Laser Printer",
		Quantity:      2,
		Department:    "Finance",
		InitiatorID:   uuid.New(),
		Justification: "current unit failed and repairs exceed replacement cost",
		Priority:      enums.PriorityMedium,
		Status:        enums.RequestStatusPending,
		CurrentStage:  stage,
		Version:       1,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, db.Create(request).Error)
	return request
}

func TestRepositoryGetByID(t *testing.T) {
	db := setupRequestsTestDB(t)
	repo := NewRepository(db)

	created := createRequest(t, db, "REQ-2024-0001", enums.StageChecker, time.Now().UTC())
	document := &models.RequestDocument{
		ID:         uuid.New(),
		RequestID:  created.ID,
		FileName:   "quote.pdf",
		UploadedBy: created.InitiatorID,
	}
	require.NoError(t, db.Create(document).Error)

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "REQ-2024-0001", got.RequestNumber)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "quote.pdf", got.Documents[0].FileName)

	_, err = repo.GetByID(context.Background(), uuid.New())
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestRepositoryListByStage_pagination(t *testing.T) {
	db := setupRequestsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	first := createRequest(t, db, "REQ-2024-0001", enums.StageChecker, now.Add(-2*time.Hour))
	second := createRequest(t, db, "REQ-2024-0002", enums.StageChecker, now.Add(-time.Hour))
	third := createRequest(t, db, "REQ-2024-0003", enums.StageChecker, now)
	createRequest(t, db, "REQ-2024-0004", enums.StageReviewer, now)

	page, next, err := repo.ListByStage(context.Background(), enums.StageChecker, 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, first.ID, page[0].ID)
	assert.Equal(t, second.ID, page[1].ID)
	require.NotNil(t, next)

	rest, last, err := repo.ListByStage(context.Background(), enums.StageChecker, 2, next)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, third.ID, rest[0].ID)
	assert.Nil(t, last)
}

func TestRepositoryListByStage_cursorRoundTrip(t *testing.T) {
	db := setupRequestsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	createRequest(t, db, "REQ-2024-0001", enums.StageChecker, now.Add(-time.Hour))
	second := createRequest(t, db, "REQ-2024-0002", enums.StageChecker, now)

	_, next, err := repo.ListByStage(context.Background(), enums.StageChecker, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, next)

	decoded, err := pagination.ParseCursor(pagination.EncodeCursor(*next))
	require.NoError(t, err)

	page, _, err := repo.ListByStage(context.Background(), enums.StageChecker, 1, decoded)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)
}

func TestRepositoryUpdateState(t *testing.T) {
	db := setupRequestsTestDB(t)
	repo := NewRepository(db)

	created := createRequest(t, db, "REQ-2024-0001", enums.StageChecker, time.Now().UTC())

	update := StateUpdate{
		Status:       enums.RequestStatusChecked,
		CurrentStage: enums.StageReviewer,
		Revision:     0,
	}
	require.NoError(t, repo.UpdateState(context.Background(), created.ID, 1, update))

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusChecked, got.Status)
	assert.Equal(t, enums.StageReviewer, got.CurrentStage)
	assert.Equal(t, 2, got.Version)

	// A stale version leaves the row untouched.
	err = repo.UpdateState(context.Background(), created.ID, 1, update)
	assert.True(t, errors.HasCode(err, errors.CodeConcurrentMod))
}
