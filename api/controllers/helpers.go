package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pricepilot/pricepilot-backend/api/middleware"
	"github.com/pricepilot/pricepilot-backend/api/responses"
	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
)

const maxListLimit = 500

func requireActor(r *http.Request) (identity.Actor, error) {
	actor := middleware.ActorFromContext(r.Context())
	if actor.IsZero() {
		return identity.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return actor, nil
}

type toggleFunc func(ctx context.Context, actor identity.Actor, id string) (record.Record, *storage.WriteResult, error)

func toggleHandler(logg *logger.Logger, param string, toggle toggleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, write, err := toggle(r.Context(), actor, chi.URLParam(r, param))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteReceipt(w, http.StatusOK, write, rec)
	}
}
