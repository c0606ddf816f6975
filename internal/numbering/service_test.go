package numbering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		docType DocType
		year    int
		value   int64
		want    string
	}{
		{DocTypeRequest, 2024, 1, "REQ-2024-0001"},
		{DocTypeRequest, 2024, 42, "REQ-2024-0042"},
		{DocTypeRequest, 2025, 12345, "REQ-2025-12345"},
		{DocTypePO, 2024, 7, "PO-2024-7"},
		{DocTypeSVC, 2024, 3, "SVC-2024-3"},
		{DocTypeSRV, 2026, 110, "SRV-2026-110"},
	}
	for _, tc := range tests {
		if got := Format(tc.docType, tc.year, tc.value); got != tc.want {
			t.Errorf("Format(%s, %d, %d) = %q, want %q", tc.docType, tc.year, tc.value, got, tc.want)
		}
	}
}

func setupSequencesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sequences := `
CREATE TABLE IF NOT EXISTS document_sequences (
  doc_type TEXT NOT NULL,
  year INTEGER NOT NULL,
  last_value INTEGER NOT NULL,
  PRIMARY KEY (doc_type, year)
);`
	require.NoError(t, db.Exec(sequences).Error)
	return db
}

func TestNextAllocatesMonotonically(t *testing.T) {
	db := setupSequencesTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Next(ctx, nil, DocTypeRequest, 2024)
	require.NoError(t, err)
	assert.Equal(t, "REQ-2024-0001", first)

	second, err := svc.Next(ctx, nil, DocTypeRequest, 2024)
	require.NoError(t, err)
	assert.Equal(t, "REQ-2024-0002", second)

	// Each series counts on its own.
	po, err := svc.Next(ctx, nil, DocTypePO, 2024)
	require.NoError(t, err)
	assert.Equal(t, "PO-2024-1", po)

	// A new year restarts the series without touching the old one.
	nextYear, err := svc.Next(ctx, nil, DocTypeRequest, 2025)
	require.NoError(t, err)
	assert.Equal(t, "REQ-2025-0001", nextYear)

	third, err := svc.Next(ctx, nil, DocTypeRequest, 2024)
	require.NoError(t, err)
	assert.Equal(t, "REQ-2024-0003", third)
}

func TestNextUsesCallerTransaction(t *testing.T) {
	db := setupSequencesTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	// An allocation inside a rolled-back transaction leaves no trace.
	tx := db.Begin()
	require.NoError(t, tx.Error)
	number, err := svc.Next(ctx, tx, DocTypeSVC, 2024)
	require.NoError(t, err)
	assert.Equal(t, "SVC-2024-1", number)
	require.NoError(t, tx.Rollback().Error)

	again, err := svc.Next(ctx, nil, DocTypeSVC, 2024)
	require.NoError(t, err)
	assert.Equal(t, "SVC-2024-1", again)
}
