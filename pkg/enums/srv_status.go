package enums

import "fmt"

// SRVStatus is the state of a store receive voucher.
type SRVStatus string

const (
	SRVStatusPending   SRVStatus = "pending"
	SRVStatusCompleted SRVStatus = "completed"
)

var validSRVStatuses = []SRVStatus{
	SRVStatusPending,
	SRVStatusCompleted,
}

// String implements fmt.Stringer.
func (s SRVStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SRVStatus.
func (s SRVStatus) IsValid() bool {
	for _, candidate := range validSRVStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSRVStatus converts raw input into an SRVStatus.
func ParseSRVStatus(value string) (SRVStatus, error) {
	for _, candidate := range validSRVStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid srv status %q", value)
}
