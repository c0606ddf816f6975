package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/api/middleware"
	"github.com/procureflow/procureflow-backend/api/responses"
	"github.com/procureflow/procureflow-backend/api/validators"
	replsvc "github.com/procureflow/procureflow-backend/internal/replenishments"
	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	pkgerrors "github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/logger"
)

// ReplenishmentCreate files a stock replenishment for a store.
func ReplenishmentCreate(svc replsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "replenishment service unavailable"))
			return
		}

		var payload createReplenishmentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Create(r.Context(), replsvc.CreateInput{
			StoreID:           payload.StoreID,
			ItemName:          payload.ItemName,
			Quantity:          payload.Quantity,
			InitiatedByUserID: middleware.ActorIDFromContext(r.Context()),
			Justification:     payload.Justification,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newReplenishmentResponse(record))
	}
}

// ReplenishmentDecide records one of the two directorate gate approvals.
func ReplenishmentDecide(svc replsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "replenishment service unavailable"))
			return
		}

		replenishmentID, err := validators.ParsePathUUID(r, "replenishmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload decideReplenishmentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseWorkflowRole(payload.ApprovalType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid approval type"))
			return
		}
		decision, err := enums.ParseApprovalState(payload.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}

		record, err := svc.Approve(r.Context(), replsvc.ApproveInput{
			ReplenishmentID: replenishmentID,
			ActorID:         middleware.ActorIDFromContext(r.Context()),
			ApprovalType:    role,
			Decision:        decision,
			Comments:        payload.Comments,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReplenishmentResponse(record))
	}
}

// ReplenishmentComplete marks the procurement done and stock received.
func ReplenishmentComplete(svc replsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "replenishment service unavailable"))
			return
		}

		replenishmentID, err := validators.ParsePathUUID(r, "replenishmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Complete(r.Context(), replenishmentID, middleware.ActorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReplenishmentResponse(record))
	}
}

func ReplenishmentGet(svc replsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "replenishment service unavailable"))
			return
		}

		replenishmentID, err := validators.ParsePathUUID(r, "replenishmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), replenishmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReplenishmentResponse(record))
	}
}

func ReplenishmentList(svc replsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "replenishment service unavailable"))
			return
		}

		status, err := enums.ParseReplenishmentStatus(validators.ParseQueryString(r, "status", enums.ReplenishmentStatusPending.String()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		records, err := svc.ListByStatus(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]replenishmentResponse, len(records))
		for i := range records {
			out[i] = newReplenishmentResponse(&records[i])
		}
		responses.WriteSuccess(w, out)
	}
}

type createReplenishmentPayload struct {
	StoreID       uuid.UUID `json:"store_id" validate:"required"`
	ItemName      string    `json:"item_name" validate:"required,min=3"`
	Quantity      int       `json:"quantity" validate:"required,min=1"`
	Justification string    `json:"justification"`
}

type decideReplenishmentPayload struct {
	ApprovalType string `json:"approval_type" validate:"required"`
	Decision     string `json:"decision" validate:"required"`
	Comments     string `json:"comments"`
}

type replenishmentResponse struct {
	ID                  uuid.UUID  `json:"id"`
	ItemName            string     `json:"item_name"`
	QuantityRequested   int        `json:"quantity_requested"`
	StoreID             uuid.UUID  `json:"store_id"`
	InitiatedByUserID   uuid.UUID  `json:"initiated_by_user_id"`
	Justification       string     `json:"justification,omitempty"`
	DirectorGsdApproval string     `json:"director_gsd_approval"`
	DgApproval          string     `json:"dg_approval"`
	Status              string     `json:"status"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	Version             int        `json:"version"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func newReplenishmentResponse(record *models.StockReplenishment) replenishmentResponse {
	return replenishmentResponse{
		ID:                  record.ID,
		ItemName:            record.ItemName,
		QuantityRequested:   record.QuantityRequested,
		StoreID:             record.StoreID,
		InitiatedByUserID:   record.InitiatedByUserID,
		Justification:       record.Justification,
		DirectorGsdApproval: record.DirectorGsdApproval.String(),
		DgApproval:          record.DgApproval.String(),
		Status:              record.Status.String(),
		CompletedAt:         record.CompletedAt,
		Version:             record.Version,
		CreatedAt:           record.CreatedAt,
		UpdatedAt:           record.UpdatedAt,
	}
}
