package enums

import "fmt"

// Priority is the urgency assigned to a procurement request.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

var validPriorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
}

// String implements fmt.Stringer.
func (p Priority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Priority.
func (p Priority) IsValid() bool {
	for _, candidate := range validPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriority converts raw input into a Priority.
func ParsePriority(value string) (Priority, error) {
	for _, candidate := range validPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q", value)
}
