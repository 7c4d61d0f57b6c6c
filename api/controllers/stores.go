package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pricepilot/pricepilot-backend/api/responses"
	"github.com/pricepilot/pricepilot-backend/api/validators"
	storesvc "github.com/pricepilot/pricepilot-backend/internal/stores"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
)

func StoreList(svc storesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.List(r.Context(), storesvc.ListInput{
			Sort:  strings.TrimSpace(r.URL.Query().Get("sort")),
			Limit: limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}

func StoreGet(svc storesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(r.Context(), chi.URLParam(r, "storeId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rec)
	}
}

type createStoreRequest struct {
	Name        string   `json:"name" validate:"required"`
	Address     string   `json:"address"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// StoreCreate registers a store. A case-insensitive name match or a store
// within 100m produces a duplicate advisory in the payload; the create is
// never blocked.
func StoreCreate(svc storesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createStoreRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), actor, storesvc.CreateInput{
			Name:        payload.Name,
			Address:     payload.Address,
			Type:        payload.Type,
			Description: payload.Description,
			Latitude:    payload.Latitude,
			Longitude:   payload.Longitude,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteReceipt(w, http.StatusCreated, result.Write, result)
	}
}

type updateStoreRequest struct {
	Name        *string  `json:"name,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Type        *string  `json:"type,omitempty"`
	Description *string  `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

func StoreUpdate(svc storesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStoreRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, write, err := svc.Update(r.Context(), actor, chi.URLParam(r, "storeId"), storesvc.UpdateInput{
			Name:        payload.Name,
			Address:     payload.Address,
			Type:        payload.Type,
			Description: payload.Description,
			Latitude:    payload.Latitude,
			Longitude:   payload.Longitude,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteReceipt(w, http.StatusOK, write, rec)
	}
}

func StoreDelete(svc storesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		write, err := svc.Delete(r.Context(), chi.URLParam(r, "storeId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteReceipt(w, http.StatusOK, write, map[string]string{"status": "deleted"})
	}
}

func StoreToggleLike(svc storesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return toggleHandler(logg, "storeId", svc.ToggleLike)
}

func StoreToggleDislike(svc storesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return toggleHandler(logg, "storeId", svc.ToggleDislike)
}
