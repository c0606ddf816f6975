package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procureflow/procureflow-backend/api/middleware"
	"github.com/procureflow/procureflow-backend/api/responses"
	"github.com/procureflow/procureflow-backend/api/validators"
	posvc "github.com/procureflow/procureflow-backend/internal/purchaseorders"
	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	pkgerrors "github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/logger"
)

// PurchaseOrderCreate issues a purchase order against an approved request.
func PurchaseOrderCreate(svc posvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		var payload createPurchaseOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]posvc.ItemInput, len(payload.Items))
		for i, item := range payload.Items {
			price, err := decimal.NewFromString(item.UnitPrice)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price"))
				return
			}
			items[i] = posvc.ItemInput{
				ItemName:  item.ItemName,
				Quantity:  item.Quantity,
				UnitPrice: price,
			}
		}

		record, err := svc.Create(r.Context(), posvc.CreateInput{
			RequestID: payload.RequestID,
			VendorID:  payload.VendorID,
			ActorID:   middleware.ActorIDFromContext(r.Context()),
			Items:     items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPurchaseOrderResponse(record))
	}
}

// PurchaseOrderUpdateStatus moves an order through its lifecycle.
func PurchaseOrderUpdateStatus(svc posvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		purchaseOrderID, err := validators.ParsePathUUID(r, "purchaseOrderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePurchaseOrderStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParsePurchaseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		record, err := svc.UpdateStatus(r.Context(), posvc.UpdateStatusInput{
			PurchaseOrderID: purchaseOrderID,
			ActorID:         middleware.ActorIDFromContext(r.Context()),
			Status:          status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPurchaseOrderResponse(record))
	}
}

func PurchaseOrderGet(svc posvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		purchaseOrderID, err := validators.ParsePathUUID(r, "purchaseOrderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), purchaseOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPurchaseOrderResponse(record))
	}
}

// PurchaseOrderListByRequest returns every order issued for a request,
// cancelled ones included.
func PurchaseOrderListByRequest(svc posvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		requestID, err := validators.ParsePathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListByRequest(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]purchaseOrderResponse, len(records))
		for i := range records {
			out[i] = newPurchaseOrderResponse(&records[i])
		}
		responses.WriteSuccess(w, out)
	}
}

type createPurchaseOrderPayload struct {
	RequestID uuid.UUID                  `json:"request_id" validate:"required"`
	VendorID  uuid.UUID                  `json:"vendor_id" validate:"required"`
	Items     []purchaseOrderItemPayload `json:"items" validate:"required,min=1,dive"`
}

type purchaseOrderItemPayload struct {
	ItemName  string `json:"item_name" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	UnitPrice string `json:"unit_price" validate:"required"`
}

type updatePurchaseOrderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

type purchaseOrderResponse struct {
	ID          uuid.UUID                   `json:"id"`
	PoNumber    string                      `json:"po_number"`
	RequestID   uuid.UUID                   `json:"request_id"`
	VendorID    uuid.UUID                   `json:"vendor_id"`
	TotalAmount string                      `json:"total_amount"`
	Status      string                      `json:"status"`
	Items       []purchaseOrderItemResponse `json:"items,omitempty"`
	Version     int                         `json:"version"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

type purchaseOrderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ItemName  string    `json:"item_name"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Position  int       `json:"position"`
}

func newPurchaseOrderResponse(record *models.PurchaseOrder) purchaseOrderResponse {
	items := make([]purchaseOrderItemResponse, len(record.Items))
	for i, item := range record.Items {
		items[i] = purchaseOrderItemResponse{
			ID:        item.ID,
			ItemName:  item.ItemName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Position:  item.Position,
		}
	}
	return purchaseOrderResponse{
		ID:          record.ID,
		PoNumber:    record.PoNumber,
		RequestID:   record.RequestID,
		VendorID:    record.VendorID,
		TotalAmount: record.TotalAmount.StringFixed(2),
		Status:      record.Status.String(),
		Items:       items,
		Version:     record.Version,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}
