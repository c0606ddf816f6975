package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/api/responses"
	"github.com/procureflow/procureflow-backend/api/validators"
	auditsvc "github.com/procureflow/procureflow-backend/internal/audit"
	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	pkgerrors "github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/logger"
	"github.com/procureflow/procureflow-backend/pkg/pagination"
)

// AuditHistory returns one page of the trail for an entity, oldest first.
// The entity type is taken from the entity_type query parameter.
func AuditHistory(svc auditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityType, err := enums.ParseEntityType(validators.ParseQueryString(r, "entity_type", ""))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entity type"))
			return
		}
		writeHistory(svc, logg, "entityID", entityType)(w, r)
	}
}

// AuditHistoryFor serves a trail endpoint scoped to one entity type, with
// the id read from the named path parameter.
func AuditHistoryFor(svc auditsvc.Service, logg *logger.Logger, param string, entityType enums.EntityType) http.HandlerFunc {
	return writeHistory(svc, logg, param, entityType)
}

func writeHistory(svc auditsvc.Service, logg *logger.Logger, param string, entityType enums.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		entityID, err := validators.ParsePathUUID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.History(r.Context(), entityType, entityID, pagination.Params{
			Limit:  limit,
			Cursor: validators.ParseQueryString(r, "cursor", ""),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := auditHistoryResponse{
			Items:  make([]auditEntryResponse, len(page.Items)),
			Cursor: page.NextCursor,
		}
		for i := range page.Items {
			out.Items[i] = newAuditEntryResponse(&page.Items[i])
		}
		responses.WriteSuccess(w, out)
	}
}

type auditHistoryResponse struct {
	Items  []auditEntryResponse `json:"items"`
	Cursor string               `json:"cursor,omitempty"`
}

type auditEntryResponse struct {
	ID            uuid.UUID `json:"id"`
	EntityType    string    `json:"entity_type"`
	EntityID      uuid.UUID `json:"entity_id"`
	FromState     string    `json:"from_state,omitempty"`
	ToState       string    `json:"to_state"`
	ActorUserID   uuid.UUID `json:"actor_user_id"`
	Role          string    `json:"role,omitempty"`
	Comments      string    `json:"comments,omitempty"`
	EntityVersion int       `json:"entity_version"`
	CreatedAt     time.Time `json:"created_at"`
}

func newAuditEntryResponse(entry *models.AuditEntry) auditEntryResponse {
	return auditEntryResponse{
		ID:            entry.ID,
		EntityType:    entry.EntityType.String(),
		EntityID:      entry.EntityID,
		FromState:     entry.FromState,
		ToState:       entry.ToState,
		ActorUserID:   entry.ActorUserID,
		Role:          entry.Role.String(),
		Comments:      entry.Comments,
		EntityVersion: entry.EntityVersion,
		CreatedAt:     entry.CreatedAt,
	}
}
