package models

// DocumentSequence backs the per-year monotonic counters used for request,
// purchase-order, SVC and SRV numbers. Rows are bumped with an upsert inside
// the creating transaction so numbers are gapless per committed document type.
type DocumentSequence struct {
	DocType   string `gorm:"column:doc_type;primaryKey"`
	Year      int    `gorm:"column:year;primaryKey"`
	LastValue int64  `gorm:"column:last_value;not null"`
}
