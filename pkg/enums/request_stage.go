package enums

import "fmt"

// RequestStage names the approval stage a request currently waits on.
// StageNone marks requests past the approval ladder (or terminal ones).
type RequestStage string

const (
	StageChecker  RequestStage = "CHECKER"
	StageReviewer RequestStage = "REVIEWER"
	StageApprover RequestStage = "APPROVER"
	StageNone     RequestStage = ""
)

var validRequestStages = []RequestStage{
	StageChecker,
	StageReviewer,
	StageApprover,
}

// String implements fmt.Stringer.
func (s RequestStage) String() string {
	return string(s)
}

// IsValid reports whether the value is an actionable approval stage.
func (s RequestStage) IsValid() bool {
	for _, candidate := range validRequestStages {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRequestStage converts raw input into a RequestStage.
func ParseRequestStage(value string) (RequestStage, error) {
	for _, candidate := range validRequestStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request stage %q", value)
}
