package numbering

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/pkg/errors"
)

// DocType identifies a numbered document series.
type DocType string

const (
	DocTypeRequest DocType = "REQ"
	DocTypePO      DocType = "PO"
	DocTypeSVC     DocType = "SVC"
	DocTypeSRV     DocType = "SRV"
)

// Service hands out gap-tolerant sequential document numbers. Each
// series resets at the start of a calendar year.
type Service interface {
	Next(ctx context.Context, tx *gorm.DB, docType DocType, year int) (string, error)
}

type service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService wires a numbering service against the provided database.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("numbering database required")
	}
	return &service{db: db, now: time.Now}, nil
}

// Next allocates the next number in the series inside the caller's
// transaction. The row lock taken by the upsert serializes concurrent
// allocations, so two documents never share a number.
func (s *service) Next(ctx context.Context, tx *gorm.DB, docType DocType, year int) (string, error) {
	if year == 0 {
		year = s.now().Year()
	}
	conn := s.db
	if tx != nil {
		conn = tx
	}

	var lastValue int64
	err := conn.WithContext(ctx).Raw(`
		INSERT INTO document_sequences (doc_type, year, last_value)
		VALUES (?, ?, 1)
		ON CONFLICT (doc_type, year)
		DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`,
		string(docType), year,
	).Scan(&lastValue).Error
	if err != nil {
		return "", errors.Wrap(errors.CodeDependency, err, "allocate document number")
	}
	return Format(docType, year, lastValue), nil
}

// Format renders a document number for its series. Requests pad to four
// digits; the receipt and ordering series carry the raw counter.
func Format(docType DocType, year int, value int64) string {
	if docType == DocTypeRequest {
		return fmt.Sprintf("%s-%d-%04d", docType, year, value)
	}
	return fmt.Sprintf("%s-%d-%d", docType, year, value)
}
