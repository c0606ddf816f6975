package enums

import "fmt"

// EntityType names the workflow entities tracked by the audit ledger.
type EntityType string

const (
	EntityTypeRequest       EntityType = "request"
	EntityTypeReplenishment EntityType = "stock_replenishment"
	EntityTypeSVC           EntityType = "store_verification_certificate"
	EntityTypeSRV           EntityType = "store_receive_voucher"
	EntityTypePurchaseOrder EntityType = "purchase_order"
	EntityTypePayment       EntityType = "payment"
)

var validEntityTypes = []EntityType{
	EntityTypeRequest,
	EntityTypeReplenishment,
	EntityTypeSVC,
	EntityTypeSRV,
	EntityTypePurchaseOrder,
	EntityTypePayment,
}

// String implements fmt.Stringer.
func (e EntityType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntityType.
func (e EntityType) IsValid() bool {
	for _, candidate := range validEntityTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntityType converts raw input into an EntityType.
func ParseEntityType(value string) (EntityType, error) {
	for _, candidate := range validEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity type %q", value)
}
