package purchaseorders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  po_number TEXT NOT NULL UNIQUE,
  request_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  total_amount TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'DRAFT',
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	activeIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_purchase_orders_active_request
  ON purchase_orders (request_id)
  WHERE status <> 'CANCELLED';`
	items := `
CREATE TABLE IF NOT EXISTS purchase_order_items (
  id TEXT PRIMARY KEY,
  purchase_order_id TEXT NOT NULL,
  item_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  position INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(activeIndex).Error)
	require.NoError(t, db.Exec(items).Error)
	return db
}

func newOrder(number string, requestID uuid.UUID, status enums.PurchaseOrderStatus) *models.PurchaseOrder {
	return &models.PurchaseOrder{
		ID:          uuid.New(),
		PoNumber:    number,
		RequestID:   requestID,
		VendorID:    uuid.New(),
		TotalAmount: decimal.NewFromInt(1500),
		Status:      status,
		Version:     1,
	}
}

func TestRepositoryCreate_duplicateActiveOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	requestID := uuid.New()

	require.NoError(t, repo.Create(context.Background(), newOrder("PO-2024-0001", requestID, enums.PurchaseOrderStatusDraft)))

	// A second active order for the same request trips the partial
	// unique index and comes back as the duplicate workflow error.
	err := repo.Create(context.Background(), newOrder("PO-2024-0002", requestID, enums.PurchaseOrderStatusDraft))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeDuplicatePO), "got %v", err)
}

func TestRepositoryCreate_cancelledOrderDoesNotBlock(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	requestID := uuid.New()

	require.NoError(t, repo.Create(context.Background(), newOrder("PO-2024-0001", requestID, enums.PurchaseOrderStatusCancelled)))
	require.NoError(t, repo.Create(context.Background(), newOrder("PO-2024-0002", requestID, enums.PurchaseOrderStatusDraft)))

	active, err := repo.GetActiveByRequestID(context.Background(), requestID)
	require.NoError(t, err)
	assert.Equal(t, "PO-2024-0002", active.PoNumber)
}
