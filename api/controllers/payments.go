package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/api/middleware"
	"github.com/procureflow/procureflow-backend/api/responses"
	"github.com/procureflow/procureflow-backend/api/validators"
	paysvc "github.com/procureflow/procureflow-backend/internal/payments"
	"github.com/procureflow/procureflow-backend/pkg/db/models"
	pkgerrors "github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/logger"
)

// PaymentRecord settles the payment for a request. The amount comes from
// the purchase order.
func PaymentRecord(svc paysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload recordPaymentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Record(r.Context(), paysvc.RecordInput{
			RequestID: payload.RequestID,
			ActorID:   middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPaymentResponse(record))
	}
}

func PaymentGetByRequest(svc paysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		requestID, err := validators.ParsePathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetByRequest(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentResponse(record))
	}
}

type recordPaymentPayload struct {
	RequestID uuid.UUID `json:"request_id" validate:"required"`
}

type paymentResponse struct {
	ID               uuid.UUID `json:"id"`
	RequestID        uuid.UUID `json:"request_id"`
	PurchaseOrderID  uuid.UUID `json:"purchase_order_id"`
	Amount           string    `json:"amount"`
	Status           string    `json:"status"`
	RecordedByUserID uuid.UUID `json:"recorded_by_user_id"`
	CreatedAt        time.Time `json:"created_at"`
}

func newPaymentResponse(record *models.Payment) paymentResponse {
	return paymentResponse{
		ID:               record.ID,
		RequestID:        record.RequestID,
		PurchaseOrderID:  record.PurchaseOrderID,
		Amount:           record.Amount.StringFixed(2),
		Status:           record.Status.String(),
		RecordedByUserID: record.RecordedByUserID,
		CreatedAt:        record.CreatedAt,
	}
}
