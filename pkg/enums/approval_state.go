package enums

import "fmt"

// ApprovalState is the value of a single sign-off gate on a replenishment.
type ApprovalState string

const (
	ApprovalStatePending  ApprovalState = "pending"
	ApprovalStateApproved ApprovalState = "approved"
	ApprovalStateRejected ApprovalState = "rejected"
)

var validApprovalStates = []ApprovalState{
	ApprovalStatePending,
	ApprovalStateApproved,
	ApprovalStateRejected,
}

// String implements fmt.Stringer.
func (a ApprovalState) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ApprovalState.
func (a ApprovalState) IsValid() bool {
	for _, candidate := range validApprovalStates {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsResolved reports whether the gate has left pending.
func (a ApprovalState) IsResolved() bool {
	return a == ApprovalStateApproved || a == ApprovalStateRejected
}

// ParseApprovalState converts raw input into an ApprovalState.
func ParseApprovalState(value string) (ApprovalState, error) {
	for _, candidate := range validApprovalStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval state %q", value)
}
