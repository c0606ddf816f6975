package enums

import "fmt"

// ReplenishmentStatus is the overall state of a stock replenishment. It is
// never set directly: it derives from the two approval gates plus the
// procurement-completion timestamp.
type ReplenishmentStatus string

const (
	ReplenishmentStatusPending       ReplenishmentStatus = "pending"
	ReplenishmentStatusApproved      ReplenishmentStatus = "approved"
	ReplenishmentStatusInProcurement ReplenishmentStatus = "in_procurement"
	ReplenishmentStatusCompleted     ReplenishmentStatus = "completed"
	ReplenishmentStatusRejected      ReplenishmentStatus = "rejected"
)

var validReplenishmentStatuses = []ReplenishmentStatus{
	ReplenishmentStatusPending,
	ReplenishmentStatusApproved,
	ReplenishmentStatusInProcurement,
	ReplenishmentStatusCompleted,
	ReplenishmentStatusRejected,
}

// String implements fmt.Stringer.
func (r ReplenishmentStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReplenishmentStatus.
func (r ReplenishmentStatus) IsValid() bool {
	for _, candidate := range validReplenishmentStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReplenishmentStatus converts raw input into a ReplenishmentStatus.
func ParseReplenishmentStatus(value string) (ReplenishmentStatus, error) {
	for _, candidate := range validReplenishmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid replenishment status %q", value)
}
