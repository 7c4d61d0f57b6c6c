package price

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pricepilot/pricepilot-backend/internal/entity"
	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	"github.com/pricepilot/pricepilot-backend/pkg/geo"
)

// Service exposes community price entry operations.
type Service interface {
	List(ctx context.Context, input ListInput) ([]record.Record, error)
	Get(ctx context.Context, id string) (record.Record, error)
	Create(ctx context.Context, actor identity.Actor, input CreateInput) (record.Record, *storage.WriteResult, error)
	Update(ctx context.Context, actor identity.Actor, id string, input UpdateInput) (record.Record, *storage.WriteResult, error)
	Delete(ctx context.Context, id string) (*storage.WriteResult, error)
	ToggleLike(ctx context.Context, actor identity.Actor, id string) (record.Record, *storage.WriteResult, error)
	ToggleDislike(ctx context.Context, actor identity.Actor, id string) (record.Record, *storage.WriteResult, error)
	Comparison(ctx context.Context, productID string, from *geo.Point) (*ComparisonResult, error)
}

// ListInput shapes a price entry listing.
type ListInput struct {
	Sort  string
	Limit int
}

// CreateInput holds the validated payload to log an observed price.
type CreateInput struct {
	Price        decimal.Decimal
	Quantity     int
	ProductID    string
	StoreID      string
	StoreName    string
	StoreAddress string
	StoreType    string
	Latitude     *float64
	Longitude    *float64
	DateRecorded string
	Notes        string
}

// UpdateInput holds optional mutation values for a price entry.
type UpdateInput struct {
	Price        *decimal.Decimal
	Quantity     *int
	StoreID      *string
	StoreName    *string
	StoreAddress *string
	StoreType    *string
	Latitude     *float64
	Longitude    *float64
	DateRecorded *string
	Notes        *string
}

// ComparisonEntry is one price observation annotated with its position
// relative to the average and, when caller coordinates are known, the
// distance to the store.
type ComparisonEntry struct {
	Record       record.Record   `json:"record"`
	PctVsAverage decimal.Decimal `json:"pct_vs_average"`
	DistanceKm   *float64        `json:"distance_km,omitempty"`
}

// ComparisonResult aggregates every observation for one product.
type ComparisonResult struct {
	ProductID string            `json:"product_id"`
	Entries   []ComparisonEntry `json:"entries"`
	Min       decimal.Decimal   `json:"min"`
	Max       decimal.Decimal   `json:"max"`
	Average   decimal.Decimal   `json:"average"`
}

type service struct {
	records *entity.Client
}

// NewService constructs a price entry service instance.
func NewService(records *entity.Client) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("price entry entity client required")
	}
	return &service{records: records}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]record.Record, error) {
	return s.records.List(ctx, entity.ListOptions{Sort: input.Sort, Limit: input.Limit})
}

func (s *service) Get(ctx context.Context, id string) (record.Record, error) {
	return s.records.Get(ctx, id)
}

func (s *service) Create(ctx context.Context, actor identity.Actor, input CreateInput) (record.Record, *storage.WriteResult, error) {
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if input.Price.IsNegative() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Quantity < 1 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	storeType, err := normalizeStoreType(input.StoreType)
	if err != nil {
		return nil, nil, err
	}

	payload := record.Record{
		"price":         input.Price.InexactFloat64(),
		"quantity":      input.Quantity,
		"product_id":    strings.TrimSpace(input.ProductID),
		"store_id":      strings.TrimSpace(input.StoreID),
		"store_name":    strings.TrimSpace(input.StoreName),
		"store_address": input.StoreAddress,
		"store_type":    storeType,
		"date_recorded": input.DateRecorded,
		"notes":         input.Notes,
	}
	if input.Latitude != nil {
		payload["latitude"] = *input.Latitude
	}
	if input.Longitude != nil {
		payload["longitude"] = *input.Longitude
	}
	return s.records.Create(ctx, payload, actor)
}

func (s *service) Update(ctx context.Context, actor identity.Actor, id string, input UpdateInput) (record.Record, *storage.WriteResult, error) {
	partial := record.Record{}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		partial["price"] = input.Price.InexactFloat64()
	}
	if input.Quantity != nil {
		if *input.Quantity < 1 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		partial["quantity"] = *input.Quantity
	}
	if input.StoreID != nil {
		partial["store_id"] = strings.TrimSpace(*input.StoreID)
	}
	if input.StoreName != nil {
		partial["store_name"] = strings.TrimSpace(*input.StoreName)
	}
	if input.StoreAddress != nil {
		partial["store_address"] = *input.StoreAddress
	}
	if input.StoreType != nil {
		storeType, err := normalizeStoreType(*input.StoreType)
		if err != nil {
			return nil, nil, err
		}
		partial["store_type"] = storeType
	}
	if input.Latitude != nil {
		partial["latitude"] = *input.Latitude
	}
	if input.Longitude != nil {
		partial["longitude"] = *input.Longitude
	}
	if input.DateRecorded != nil {
		partial["date_recorded"] = *input.DateRecorded
	}
	if input.Notes != nil {
		partial["notes"] = *input.Notes
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

// Comparison aggregates every observation for a product: min, max, average
// and each entry's percentage above or below the average.
func (s *service) Comparison(ctx context.Context, productID string, from *geo.Point) (*ComparisonResult, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}

	matched, err := s.records.Filter(ctx, map[string]any{"product_id": productID})
	if err != nil {
		return nil, err
	}
	result := &ComparisonResult{ProductID: productID, Entries: []ComparisonEntry{}}
	if len(matched) == 0 {
		return result, nil
	}

	prices := make([]decimal.Decimal, len(matched))
	sum := decimal.Zero
	for i, rec := range matched {
		prices[i] = priceOf(rec)
		sum = sum.Add(prices[i])
	}
	result.Min = prices[0]
	result.Max = prices[0]
	for _, p := range prices[1:] {
		if p.LessThan(result.Min) {
			result.Min = p
		}
		if p.GreaterThan(result.Max) {
			result.Max = p
		}
	}
	result.Average = sum.Div(decimal.NewFromInt(int64(len(prices)))).Round(2)

	for i, rec := range matched {
		entry := ComparisonEntry{Record: rec, PctVsAverage: pctVsAverage(prices[i], result.Average)}
		if from != nil {
			if point, ok := storeLocation(rec); ok {
				km := geo.DistanceKm(*from, point)
				entry.DistanceKm = &km
			}
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func priceOf(rec record.Record) decimal.Decimal {
	switch v := rec["price"].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func pctVsAverage(price, average decimal.Decimal) decimal.Decimal {
	if average.IsZero() {
		return decimal.Zero
	}
	return price.Sub(average).Div(average).Mul(decimal.NewFromInt(100)).Round(1)
}

func storeLocation(rec record.Record) (geo.Point, bool) {
	lat, latOK := rec["latitude"].(float64)
	lon, lonOK := rec["longitude"].(float64)
	if !latOK || !lonOK {
		return geo.Point{}, false
	}
	return geo.Point{Latitude: lat, Longitude: lon}, true
}

func normalizeStoreType(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return string(enums.StoreTypeOther), nil
	}
	storeType, err := enums.ParseStoreType(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store type")
	}
	return string(storeType), nil
}
