package enums

import "fmt"

// RequestStatus tracks the lifecycle of a procurement request.
type RequestStatus string

const (
	RequestStatusPending        RequestStatus = "PENDING"
	RequestStatusChecked        RequestStatus = "CHECKED"
	RequestStatusReviewed       RequestStatus = "REVIEWED"
	RequestStatusApproved       RequestStatus = "APPROVED"
	RequestStatusInProcurement  RequestStatus = "IN_PROCUREMENT"
	RequestStatusProcured       RequestStatus = "PROCURED"
	RequestStatusPaymentPending RequestStatus = "PAYMENT_PENDING"
	RequestStatusPaid           RequestStatus = "PAID"
	RequestStatusRejected       RequestStatus = "REJECTED"
	RequestStatusReturned       RequestStatus = "RETURNED"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusChecked,
	RequestStatusReviewed,
	RequestStatusApproved,
	RequestStatusInProcurement,
	RequestStatusProcured,
	RequestStatusPaymentPending,
	RequestStatusPaid,
	RequestStatusRejected,
	RequestStatusReturned,
}

// RequestStatusProgression is the forward path a request follows when every
// stage approves; non-terminal histories are always a subsequence of it.
var RequestStatusProgression = []RequestStatus{
	RequestStatusPending,
	RequestStatusChecked,
	RequestStatusReviewed,
	RequestStatusApproved,
	RequestStatusInProcurement,
	RequestStatusProcured,
	RequestStatusPaymentPending,
	RequestStatusPaid,
}

// String implements fmt.Stringer.
func (r RequestStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RequestStatus.
func (r RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (r RequestStatus) IsTerminal() bool {
	return r == RequestStatusRejected || r == RequestStatusPaid
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
