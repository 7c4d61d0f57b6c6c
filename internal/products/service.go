package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/pricepilot/pricepilot-backend/internal/entity"
	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	"github.com/pricepilot/pricepilot-backend/pkg/openfoodfacts"
)

// Service exposes product catalog operations.
type Service interface {
	List(ctx context.Context, input ListInput) ([]record.Record, error)
	Get(ctx context.Context, id string) (record.Record, error)
	Create(ctx context.Context, actor identity.Actor, input CreateInput) (record.Record, *storage.WriteResult, error)
	Update(ctx context.Context, actor identity.Actor, id string, input UpdateInput) (record.Record, *storage.WriteResult, error)
	Delete(ctx context.Context, id string) (*storage.WriteResult, error)
	ToggleLike(ctx context.Context, actor identity.Actor, id string) (record.Record, *storage.WriteResult, error)
	ToggleDislike(ctx context.Context, actor identity.Actor, id string) (record.Record, *storage.WriteResult, error)
	LookupBarcode(ctx context.Context, barcode string) (*BarcodeLookupResult, error)
}

// ListInput shapes a product listing.
type ListInput struct {
	Sort  string
	Limit int
}

// CreateInput holds the validated payload to register a product.
type CreateInput struct {
	Name        string
	Brand       string
	Category    string
	Description string
	ImageURL    string
	Barcode     string
}

// UpdateInput holds optional mutation values for a product.
type UpdateInput struct {
	Name        *string
	Brand       *string
	Category    *string
	Description *string
	ImageURL    *string
	Barcode     *string
}

// BarcodeLookupResult reports a barcode scan: either a registered product or
// a creation suggestion mapped from the external product database.
type BarcodeLookupResult struct {
	Found      bool                   `json:"found"`
	Product    record.Record          `json:"product,omitempty"`
	Suggestion *openfoodfacts.Product `json:"suggestion,omitempty"`
}

type lookupClient interface {
	Lookup(ctx context.Context, barcode string) (*openfoodfacts.Product, error)
}

type service struct {
	records *entity.Client
	lookup  lookupClient
}

// NewService constructs a product service instance.
func NewService(records *entity.Client, lookup lookupClient) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("product entity client required")
	}
	if lookup == nil {
		return nil, fmt.Errorf("barcode lookup client required")
	}
	return &service{records: records, lookup: lookup}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]record.Record, error) {
	return s.records.List(ctx, entity.ListOptions{Sort: input.Sort, Limit: input.Limit})
}

func (s *service) Get(ctx context.Context, id string) (record.Record, error) {
	return s.records.Get(ctx, id)
}

func (s *service) Create(ctx context.Context, actor identity.Actor, input CreateInput) (record.Record, *storage.WriteResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	category, err := normalizeCategory(input.Category)
	if err != nil {
		return nil, nil, err
	}

	payload := record.Record{
		"name":        input.Name,
		"brand":       strings.TrimSpace(input.Brand),
		"category":    category,
		"description": input.Description,
		"image_url":   strings.TrimSpace(input.ImageURL),
		"barcode":     strings.TrimSpace(input.Barcode),
	}
	return s.records.Create(ctx, payload, actor)
}

func (s *service) Update(ctx context.Context, actor identity.Actor, id string, input UpdateInput) (record.Record, *storage.WriteResult, error) {
	partial := record.Record{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		partial["name"] = name
	}
	if input.Brand != nil {
		partial["brand"] = strings.TrimSpace(*input.Brand)
	}
	if input.Category != nil {
		category, err := normalizeCategory(*input.Category)
		if err != nil {
			return nil, nil, err
		}
		partial["category"] = category
	}
	if input.Description != nil {
		partial["description"] = *input.Description
	}
	if input.ImageURL != nil {
		partial["image_url"] = strings.TrimSpace(*input.ImageURL)
	}
	if input.Barcode != nil {
		partial["barcode"] = strings.TrimSpace(*input.Barcode)
	}
	return s.records.Update(ctx, id, partial, actor)
}

func (s *service) Delete(ctx context.Context, id string) (*storage.WriteResult, error) {
	return s.records.Delete(ctx, id)
}

func (s *service) ToggleLike(ctx context.Context, actor identity.Actor, id string) (record.Record, *storage.WriteResult, error) {
	return s.records.ToggleLike(ctx, id, actor)
}

func (s *service) ToggleDislike(ctx context.Context, actor identity.Actor, id string) (record.Record, *storage.WriteResult, error) {
	return s.records.ToggleDislike(ctx, id, actor)
}

// LookupBarcode answers a scan: a registered product wins, otherwise the
// external database is consulted for a creation suggestion.
func (s *service) LookupBarcode(ctx context.Context, barcode string) (*BarcodeLookupResult, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	matched, err := s.records.Filter(ctx, map[string]any{"barcode": barcode})
	if err != nil {
		return nil, err
	}
	if len(matched) > 0 {
		return &BarcodeLookupResult{Found: true, Product: matched[0]}, nil
	}

	suggestion, err := s.lookup.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}
	return &BarcodeLookupResult{Found: false, Suggestion: suggestion}, nil
}

func normalizeCategory(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return string(enums.ProductCategoryOther), nil
	}
	category, err := enums.ParseProductCategory(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product category")
	}
	return string(category), nil
}
