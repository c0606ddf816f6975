package enums

import "fmt"

// SVCStatus is the state of a store verification certificate.
// Once resolved to verified or rejected the certificate is immutable.
type SVCStatus string

const (
	SVCStatusPending  SVCStatus = "pending"
	SVCStatusVerified SVCStatus = "verified"
	SVCStatusRejected SVCStatus = "rejected"
)

var validSVCStatuses = []SVCStatus{
	SVCStatusPending,
	SVCStatusVerified,
	SVCStatusRejected,
}

// String implements fmt.Stringer.
func (s SVCStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SVCStatus.
func (s SVCStatus) IsValid() bool {
	for _, candidate := range validSVCStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsResolved reports whether the certificate has been verified or rejected.
func (s SVCStatus) IsResolved() bool {
	return s == SVCStatusVerified || s == SVCStatusRejected
}

// ParseSVCStatus converts raw input into an SVCStatus.
func ParseSVCStatus(value string) (SVCStatus, error) {
	for _, candidate := range validSVCStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid svc status %q", value)
}
