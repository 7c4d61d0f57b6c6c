package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pricepilot/pricepilot-backend/api/responses"
	"github.com/pricepilot/pricepilot-backend/api/validators"
	listsvc "github.com/pricepilot/pricepilot-backend/internal/lists"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
)

func ShoppingListList(svc listsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.List(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}

func ShoppingListGet(svc listsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, err := svc.Get(r.Context(), actor, chi.URLParam(r, "listId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rec)
	}
}

type createListRequest struct {
	Name       string              `json:"name" validate:"required"`
	Budget     *decimal.Decimal    `json:"budget,omitempty"`
	Items      []listsvc.ItemInput `json:"items,omitempty"`
	IsActive   bool                `json:"is_active"`
	IsFastList bool                `json:"is_fast_list"`
}

func ShoppingListCreate(svc listsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createListRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, write, err := svc.Create(r.Context(), actor, listsvc.CreateInput{
			Name:       payload.Name,
			Budget:     payload.Budget,
			Items:      payload.Items,
			IsActive:   payload.IsActive,
			IsFastList: payload.IsFastList,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteReceipt(w, http.StatusCreated, write, rec)
	}
}

type updateListRequest struct {
	Name     *string              `json:"name,omitempty"`
	Budget   *decimal.Decimal     `json:"budget,omitempty"`
	Items    *[]listsvc.ItemInput `json:"items,omitempty"`
	IsActive *bool                `json:"is_active,omitempty"`
}

func ShoppingListUpdate(svc listsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateListRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, write, err := svc.Update(r.Context(), actor, chi.URLParam(r, "listId"), listsvc.UpdateInput{
			Name:     payload.Name,
			Budget:   payload.Budget,
			Items:    payload.Items,
			IsActive: payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteReceipt(w, http.StatusOK, write, rec)
	}
}

func ShoppingListDelete(svc listsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		write, err := svc.Delete(r.Context(), actor, chi.URLParam(r, "listId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteReceipt(w, http.StatusOK, write, map[string]string{"status": "deleted"})
	}
}

// ShoppingListFast returns the caller's fast list, creating it on first use.
func ShoppingListFast(svc listsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, write, err := svc.FastList(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteReceipt(w, http.StatusOK, write, rec)
	}
}
