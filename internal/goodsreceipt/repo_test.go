package goodsreceipt

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
)

func setupReceiptTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	vouchers := `
CREATE TABLE IF NOT EXISTS store_receive_vouchers (
  id TEXT PRIMARY KEY,
  srv_number TEXT NOT NULL UNIQUE,
  svc_id TEXT NOT NULL UNIQUE,
  received_by_user_id TEXT NOT NULL,
  receive_date DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(vouchers).Error)
	return db
}

func newVoucher(number string, svcID uuid.UUID) *models.StoreReceiveVoucher {
	return &models.StoreReceiveVoucher{
		ID:               uuid.New(),
		SrvNumber:        number,
		SVCID:            svcID,
		ReceivedByUserID: uuid.New(),
		ReceiveDate:      time.Now().UTC(),
		Status:           enums.SRVStatusPending,
		Version:          1,
	}
}

func TestRepositoryCreateSRV_duplicateCertificate(t *testing.T) {
	db := setupReceiptTestDB(t)
	repo := NewRepository(db)
	svcID := uuid.New()

	require.NoError(t, repo.CreateSRV(context.Background(), newVoucher("SRV-2024-0001", svcID)))

	// A second voucher for the same certificate trips the unique index
	// and comes back as a workflow error, not a raw driver error.
	err := repo.CreateSRV(context.Background(), newVoucher("SRV-2024-0002", svcID))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodePrecursorNotReady), "got %v", err)

	// A different certificate is unaffected.
	require.NoError(t, repo.CreateSRV(context.Background(), newVoucher("SRV-2024-0003", uuid.New())))
}
