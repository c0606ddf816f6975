package enums

import "fmt"

// Decision is the action an approver takes on a request stage.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
	DecisionReturn  Decision = "RETURN"
)

var validDecisions = []Decision{
	DecisionApprove,
	DecisionReject,
	DecisionReturn,
}

// String implements fmt.Stringer.
func (d Decision) String() string {
	return string(d)
}

// IsValid reports whether the value is a known Decision.
func (d Decision) IsValid() bool {
	for _, candidate := range validDecisions {
		if candidate == d {
			return true
		}
	}
	return false
}

// RequiresComments reports whether the decision must carry a reason.
// Rejecting or returning a request always requires one; approving never does.
func (d Decision) RequiresComments() bool {
	return d == DecisionReject || d == DecisionReturn
}

// ParseDecision converts raw input into a Decision.
func ParseDecision(value string) (Decision, error) {
	for _, candidate := range validDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid decision %q", value)
}
