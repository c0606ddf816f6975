package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/api/middleware"
	"github.com/procureflow/procureflow-backend/api/responses"
	"github.com/procureflow/procureflow-backend/api/validators"
	receiptsvc "github.com/procureflow/procureflow-backend/internal/goodsreceipt"
	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	pkgerrors "github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/logger"
)

// SVCCreate raises a verification certificate for delivered goods.
func SVCCreate(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "goods receipt service unavailable"))
			return
		}

		var payload createSVCPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CreateSVC(r.Context(), receiptsvc.CreateSVCInput{
			StoreID:          payload.StoreID,
			ContractorID:     payload.ContractorID,
			PurchaseOrderID:  payload.PurchaseOrderID,
			GoodsDescription: payload.GoodsDescription,
			QuantityReceived: payload.QuantityReceived,
			VerificationDate: payload.VerificationDate,
			ActorID:          middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSVCResponse(record))
	}
}

// SVCResolve settles a pending certificate as verified or rejected.
func SVCResolve(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "goods receipt service unavailable"))
			return
		}

		svcID, err := validators.ParsePathUUID(r, "svcID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload resolveSVCPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := enums.ParseSVCStatus(payload.Outcome)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid outcome"))
			return
		}

		record, err := svc.ResolveSVC(r.Context(), receiptsvc.ResolveSVCInput{
			SVCID:   svcID,
			Outcome: outcome,
			ActorID: middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSVCResponse(record))
	}
}

func SVCGet(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "goods receipt service unavailable"))
			return
		}

		svcID, err := validators.ParsePathUUID(r, "svcID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetSVC(r.Context(), svcID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSVCResponse(record))
	}
}

// SRVCreate raises a receive voucher against a verified certificate.
func SRVCreate(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "goods receipt service unavailable"))
			return
		}

		var payload createSRVPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := middleware.ActorIDFromContext(r.Context())
		record, err := svc.CreateSRV(r.Context(), receiptsvc.CreateSRVInput{
			SVCID:            payload.SVCID,
			ReceivedByUserID: actorID,
			ReceiveDate:      payload.ReceiveDate,
			ActorID:          actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSRVResponse(record))
	}
}

// SRVComplete closes the voucher and unlocks payment on the request.
func SRVComplete(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "goods receipt service unavailable"))
			return
		}

		srvID, err := validators.ParsePathUUID(r, "srvID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CompleteSRV(r.Context(), srvID, middleware.ActorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSRVResponse(record))
	}
}

func SRVGet(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "goods receipt service unavailable"))
			return
		}

		srvID, err := validators.ParsePathUUID(r, "srvID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetSRV(r.Context(), srvID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSRVResponse(record))
	}
}

// PaymentReadiness reports whether the goods-receipt chain for a request
// is complete.
func PaymentReadiness(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "goods receipt service unavailable"))
			return
		}

		requestID, err := validators.ParsePathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ready, err := svc.IsReadyForPayment(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"ready_for_payment": ready})
	}
}

type createSVCPayload struct {
	StoreID          uuid.UUID `json:"store_id" validate:"required"`
	ContractorID     uuid.UUID `json:"contractor_id" validate:"required"`
	PurchaseOrderID  uuid.UUID `json:"purchase_order_id" validate:"required"`
	GoodsDescription string    `json:"goods_description" validate:"required"`
	QuantityReceived int       `json:"quantity_received" validate:"required,min=1"`
	VerificationDate time.Time `json:"verification_date" validate:"required"`
}

type resolveSVCPayload struct {
	Outcome string `json:"outcome" validate:"required"`
}

type createSRVPayload struct {
	SVCID       uuid.UUID `json:"svc_id" validate:"required"`
	ReceiveDate time.Time `json:"receive_date" validate:"required"`
}

type svcResponse struct {
	ID                 uuid.UUID `json:"id"`
	VerificationNumber string    `json:"verification_number"`
	StoreID            uuid.UUID `json:"store_id"`
	ContractorID       uuid.UUID `json:"contractor_id"`
	PurchaseOrderID    uuid.UUID `json:"purchase_order_id"`
	GoodsDescription   string    `json:"goods_description"`
	QuantityReceived   int       `json:"quantity_received"`
	VerificationDate   time.Time `json:"verification_date"`
	Status             string    `json:"status"`
	Version            int       `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func newSVCResponse(record *models.StoreVerificationCertificate) svcResponse {
	return svcResponse{
		ID:                 record.ID,
		VerificationNumber: record.VerificationNumber,
		StoreID:            record.StoreID,
		ContractorID:       record.ContractorID,
		PurchaseOrderID:    record.PurchaseOrderID,
		GoodsDescription:   record.GoodsDescription,
		QuantityReceived:   record.QuantityReceived,
		VerificationDate:   record.VerificationDate,
		Status:             record.Status.String(),
		Version:            record.Version,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
}

type srvResponse struct {
	ID               uuid.UUID `json:"id"`
	SrvNumber        string    `json:"srv_number"`
	SVCID            uuid.UUID `json:"svc_id"`
	ReceivedByUserID uuid.UUID `json:"received_by_user_id"`
	ReceiveDate      time.Time `json:"receive_date"`
	Status           string    `json:"status"`
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newSRVResponse(record *models.StoreReceiveVoucher) srvResponse {
	return srvResponse{
		ID:               record.ID,
		SrvNumber:        record.SrvNumber,
		SVCID:            record.SVCID,
		ReceivedByUserID: record.ReceivedByUserID,
		ReceiveDate:      record.ReceiveDate,
		Status:           record.Status.String(),
		Version:          record.Version,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}
