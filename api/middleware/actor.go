package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow-backend/api/responses"
	pkgerrors "github.com/procureflow/procureflow-backend/pkg/errors"
	"github.com/procureflow/procureflow-backend/pkg/logger"
)

const actorIDHeader = "X-Actor-Id"

// Actor resolves the acting user from the X-Actor-Id header. Identity is
// established upstream (gateway SSO); this service only needs the user id
// to evaluate role assignments.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(actorIDHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			actorID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Actor-Id must be a valid uuid"))
				return
			}

			ctx := WithActorID(r.Context(), actorID)
			if logg != nil {
				ctx = logg.WithActorID(ctx, actorID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActor rejects requests that did not carry an actor identity.
func RequireActor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ActorIDFromContext(r.Context()) == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "X-Actor-Id header required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
