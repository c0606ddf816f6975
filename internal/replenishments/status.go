package replenishments

import (
	"time"

	"github.com/procureflow/procureflow-backend/pkg/enums"
)

// DeriveStatus computes the overall replenishment status from its two
// approval gates. The stored column is only a projection of this
// function; it is re-derived and compared on every mutation so an
// impossible combination can never persist.
func DeriveStatus(gsd, dg enums.ApprovalState, completedAt *time.Time) enums.ReplenishmentStatus {
	if gsd == enums.ApprovalStateRejected || dg == enums.ApprovalStateRejected {
		return enums.ReplenishmentStatusRejected
	}
	if gsd == enums.ApprovalStateApproved && dg == enums.ApprovalStateApproved {
		if completedAt != nil {
			return enums.ReplenishmentStatusCompleted
		}
		return enums.ReplenishmentStatusInProcurement
	}
	if gsd == enums.ApprovalStateApproved {
		return enums.ReplenishmentStatusApproved
	}
	return enums.ReplenishmentStatusPending
}
