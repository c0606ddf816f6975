package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/api/middleware"
	"github.com/procureflow/procureflow-backend/api/responses"
	"github.com/procureflow/procureflow-backend/api/validators"
	requestsvc "github.com/procureflow/procureflow-backend/internal/requests"
	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	pkgerrors "github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/logger"
)

// RequestSubmit files a new procurement request on behalf of the actor.
func RequestSubmit(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		var payload submitRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		priority := enums.PriorityMedium
		if payload.Priority != "" {
			parsed, err := enums.ParsePriority(payload.Priority)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
				return
			}
			priority = parsed
		}

		record, err := svc.Submit(r.Context(), requestsvc.SubmitInput{
			ItemName:      payload.ItemName,
			Quantity:      payload.Quantity,
			Department:    payload.Department,
			InitiatorID:   middleware.ActorIDFromContext(r.Context()),
			Purpose:       payload.Purpose,
			Justification: payload.Justification,
			Priority:      priority,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newRequestResponse(record))
	}
}

// RequestDecide records one approval-chain decision on a request.
func RequestDecide(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		requestID, err := validators.ParsePathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload decideRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseWorkflowRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}
		decision, err := enums.ParseDecision(payload.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}

		record, err := svc.Act(r.Context(), requestsvc.ActInput{
			RequestID:  requestID,
			ActorID:    middleware.ActorIDFromContext(r.Context()),
			ActingRole: role,
			Decision:   decision,
			Comments:   payload.Comments,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestResponse(record))
	}
}

// RequestResubmit puts a returned request back at the head of the chain.
func RequestResubmit(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		requestID, err := validators.ParsePathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Resubmit(r.Context(), requestID, middleware.ActorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestResponse(record))
	}
}

func RequestGet(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		requestID, err := validators.ParsePathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestResponse(record))
	}
}

// RequestList returns the requests sitting at a given approval stage.
func RequestList(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		stage, err := enums.ParseRequestStage(validators.ParseQueryString(r, "stage", enums.StageChecker.String()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stage"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListByStage(r.Context(), requestsvc.ListParams{
			Stage:  stage,
			Limit:  limit,
			Cursor: validators.ParseQueryString(r, "cursor", ""),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := requestListResponse{
			Items:  make([]requestResponse, len(page.Items)),
			Cursor: page.Cursor,
		}
		for i := range page.Items {
			out.Items[i] = newRequestResponse(&page.Items[i])
		}
		responses.WriteSuccess(w, out)
	}
}

type submitRequestPayload struct {
	ItemName      string `json:"item_name" validate:"required,min=3"`
	Quantity      int    `json:"quantity" validate:"required,min=1"`
	Department    string `json:"department" validate:"required"`
	Purpose       string `json:"purpose"`
	Justification string `json:"justification" validate:"required,min=20"`
	Priority      string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
}

type decideRequestPayload struct {
	Role     string `json:"role" validate:"required"`
	Decision string `json:"decision" validate:"required"`
	Comments string `json:"comments"`
}

type requestListResponse struct {
	Items  []requestResponse `json:"items"`
	Cursor string            `json:"cursor,omitempty"`
}

type requestResponse struct {
	ID            uuid.UUID `json:"id"`
	RequestNumber string    `json:"request_number"`
	ItemName      string    `json:"item_name"`
	Quantity      int       `json:"quantity"`
	Department    string    `json:"department"`
	InitiatorID   uuid.UUID `json:"initiator_id"`
	Purpose       string    `json:"purpose,omitempty"`
	Justification string    `json:"justification"`
	Priority      string    `json:"priority"`
	Status        string    `json:"status"`
	CurrentStage  string    `json:"current_stage,omitempty"`
	Revision      int       `json:"revision"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newRequestResponse(record *models.Request) requestResponse {
	return requestResponse{
		ID:            record.ID,
		RequestNumber: record.RequestNumber,
		ItemName:      record.ItemName,
		Quantity:      record.Quantity,
		Department:    record.Department,
		InitiatorID:   record.InitiatorID,
		Purpose:       record.Purpose,
		Justification: record.Justification,
		Priority:      record.Priority.String(),
		Status:        record.Status.String(),
		CurrentStage:  record.CurrentStage.String(),
		Revision:      record.Revision,
		Version:       record.Version,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}
