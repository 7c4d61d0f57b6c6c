package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pricepilot/pricepilot-backend/api/responses"
	"github.com/pricepilot/pricepilot-backend/api/validators"
	productsvc "github.com/pricepilot/pricepilot-backend/internal/products"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
)

func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.List(r.Context(), productsvc.ListInput{
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

func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rec)
	}
}

type createProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Barcode     string `json:"barcode"`
}

func ProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, write, err := svc.Create(r.Context(), actor, productsvc.CreateInput{
			Name:        payload.Name,
			Brand:       payload.Brand,
			Category:    payload.Category,
			Description: payload.Description,
			ImageURL:    payload.ImageURL,
			Barcode:     payload.Barcode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteReceipt(w, http.StatusCreated, write, rec)
	}
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Brand       *string `json:"brand,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	Barcode     *string `json:"barcode,omitempty"`
}

func ProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, write, err := svc.Update(r.Context(), actor, chi.URLParam(r, "productId"), productsvc.UpdateInput{
			Name:        payload.Name,
			Brand:       payload.Brand,
			Category:    payload.Category,
			Description: payload.Description,
			ImageURL:    payload.ImageURL,
			Barcode:     payload.Barcode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteReceipt(w, http.StatusOK, write, rec)
	}
}

func ProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		write, err := svc.Delete(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteReceipt(w, http.StatusOK, write, map[string]string{"status": "deleted"})
	}
}

func ProductToggleLike(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return toggleHandler(logg, "productId", svc.ToggleLike)
}

func ProductToggleDislike(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return toggleHandler(logg, "productId", svc.ToggleDislike)
}

// ProductBarcodeLookup resolves a scanned barcode to a registered product, or
// to a creation suggestion from the external product database.
func ProductBarcodeLookup(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.LookupBarcode(r.Context(), chi.URLParam(r, "barcode"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
