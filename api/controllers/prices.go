package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pricepilot/pricepilot-backend/api/responses"
	"github.com/pricepilot/pricepilot-backend/api/validators"
	pricesvc "github.com/pricepilot/pricepilot-backend/internal/prices"
	"github.com/pricepilot/pricepilot-backend/pkg/geo"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
)

func PriceEntryList(svc pricesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.List(r.Context(), pricesvc.ListInput{
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

func PriceEntryGet(svc pricesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(r.Context(), chi.URLParam(r, "priceEntryId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rec)
	}
}

type createPriceEntryRequest struct {
	Price        decimal.Decimal `json:"price" validate:"required"`
	Quantity     int             `json:"quantity" validate:"required,min=1"`
	ProductID    string          `json:"product_id" validate:"required"`
	StoreID      string          `json:"store_id"`
	StoreName    string          `json:"store_name"`
	StoreAddress string          `json:"store_address"`
	StoreType    string          `json:"store_type"`
	Latitude     *float64        `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64        `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	DateRecorded string          `json:"date_recorded"`
	Notes        string          `json:"notes"`
}

func PriceEntryCreate(svc pricesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createPriceEntryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, write, err := svc.Create(r.Context(), actor, pricesvc.CreateInput{
			Price:        payload.Price,
			Quantity:     payload.Quantity,
			ProductID:    payload.ProductID,
			StoreID:      payload.StoreID,
			StoreName:    payload.StoreName,
			StoreAddress: payload.StoreAddress,
			StoreType:    payload.StoreType,
			Latitude:     payload.Latitude,
			Longitude:    payload.Longitude,
			DateRecorded: payload.DateRecorded,
			Notes:        payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteReceipt(w, http.StatusCreated, write, rec)
	}
}

type updatePriceEntryRequest struct {
	Price        *decimal.Decimal `json:"price,omitempty"`
	Quantity     *int             `json:"quantity,omitempty" validate:"omitempty,min=1"`
	StoreID      *string          `json:"store_id,omitempty"`
	StoreName    *string          `json:"store_name,omitempty"`
	StoreAddress *string          `json:"store_address,omitempty"`
	StoreType    *string          `json:"store_type,omitempty"`
	Latitude     *float64         `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64         `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	DateRecorded *string          `json:"date_recorded,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
}

func PriceEntryUpdate(svc pricesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePriceEntryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, write, err := svc.Update(r.Context(), actor, chi.URLParam(r, "priceEntryId"), pricesvc.UpdateInput{
			Price:        payload.Price,
			Quantity:     payload.Quantity,
			StoreID:      payload.StoreID,
			StoreName:    payload.StoreName,
			StoreAddress: payload.StoreAddress,
			StoreType:    payload.StoreType,
			Latitude:     payload.Latitude,
			Longitude:    payload.Longitude,
			DateRecorded: payload.DateRecorded,
			Notes:        payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteReceipt(w, http.StatusOK, write, rec)
	}
}

func PriceEntryDelete(svc pricesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		write, err := svc.Delete(r.Context(), chi.URLParam(r, "priceEntryId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteReceipt(w, http.StatusOK, write, map[string]string{"status": "deleted"})
	}
}

func PriceEntryToggleLike(svc pricesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return toggleHandler(logg, "priceEntryId", svc.ToggleLike)
}

func PriceEntryToggleDislike(svc pricesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return toggleHandler(logg, "priceEntryId", svc.ToggleDislike)
}

// ProductPriceComparison aggregates every observation for one product with
// min/max/average and per-entry percentage against the average. Optional
// lat/lon query parameters add the distance from the caller to each located
// store.
func ProductPriceComparison(svc pricesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, err := validators.ParseQueryFloat(r, "lat")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lon, err := validators.ParseQueryFloat(r, "lon")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var from *geo.Point
		if lat != nil && lon != nil {
			from = &geo.Point{Latitude: *lat, Longitude: *lon}
		}

		result, err := svc.Comparison(r.Context(), chi.URLParam(r, "productId"), from)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
