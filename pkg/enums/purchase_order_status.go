package enums

import "fmt"

// PurchaseOrderStatus tracks the lifecycle of an issued purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusSent      PurchaseOrderStatus = "SENT"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "CONFIRMED"
	PurchaseOrderStatusDelivered PurchaseOrderStatus = "DELIVERED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft,
	PurchaseOrderStatusSent,
	PurchaseOrderStatusConfirmed,
	PurchaseOrderStatusDelivered,
	PurchaseOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (p PurchaseOrderStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (p PurchaseOrderStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the purchase order can no longer change state.
func (p PurchaseOrderStatus) IsTerminal() bool {
	return p == PurchaseOrderStatusDelivered || p == PurchaseOrderStatusCancelled
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range validPurchaseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
