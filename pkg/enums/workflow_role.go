package enums

import "fmt"

// WorkflowRole names a capability an actor may hold in the approval workflow.
type WorkflowRole string

const (
	RoleChecker            WorkflowRole = "checker"
	RoleReviewer           WorkflowRole = "reviewer"
	RoleApprover           WorkflowRole = "approver"
	RoleDirectorGSD        WorkflowRole = "director_gsd"
	RoleDG                 WorkflowRole = "dg"
	RoleProcurementOfficer WorkflowRole = "procurement_officer"
	RoleFinance            WorkflowRole = "finance"
	RoleStoreKeeper        WorkflowRole = "store_keeper"
)

var validWorkflowRoles = []WorkflowRole{
	RoleChecker,
	RoleReviewer,
	RoleApprover,
	RoleDirectorGSD,
	RoleDG,
	RoleProcurementOfficer,
	RoleFinance,
	RoleStoreKeeper,
}

// String implements fmt.Stringer.
func (r WorkflowRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known WorkflowRole.
func (r WorkflowRole) IsValid() bool {
	for _, candidate := range validWorkflowRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseWorkflowRole converts raw input into a WorkflowRole.
func ParseWorkflowRole(value string) (WorkflowRole, error) {
	for _, candidate := range validWorkflowRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid workflow role %q", value)
}
