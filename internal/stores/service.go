package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/pricepilot/pricepilot-backend/internal/entity"
	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	"github.com/pricepilot/pricepilot-backend/pkg/geo"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
)

// duplicateRadiusMeters bounds the proximity advisory on store creation.
const duplicateRadiusMeters = 100

// Service exposes store directory operations.
type Service interface {
	List(ctx context.Context, input ListInput) ([]record.Record, error)
	Get(ctx context.Context, id string) (record.Record, error)
	Create(ctx context.Context, actor identity.Actor, input CreateInput) (*CreateResult, error)
	Update(ctx context.Context, actor identity.Actor, id string, input UpdateInput) (record.Record, *storage.WriteResult, error)
	Delete(ctx context.Context, id string) (*storage.WriteResult, error)
	ToggleLike(ctx context.Context, actor identity.Actor, id string) (record.Record, *storage.WriteResult, error)
	ToggleDislike(ctx context.Context, actor identity.Actor, id string) (record.Record, *storage.WriteResult, error)
}

// ListInput shapes a store listing.
type ListInput struct {
	Sort  string
	Limit int
}

// CreateInput holds the validated payload to register a store.
type CreateInput struct {
	Name        string
	Address     string
	Type        string
	Description string
	Latitude    *float64
	Longitude   *float64
}

// UpdateInput holds optional mutation values for a store.
type UpdateInput struct {
	Name        *string
	Address     *string
	Type        *string
	Description *string
	Latitude    *float64
	Longitude   *float64
}

// CreateResult carries the stored record plus an advisory when an existing
// store looks like the same place. The create is never blocked.
type CreateResult struct {
	Record              record.Record        `json:"record"`
	Write               *storage.WriteResult `json:"-"`
	PossibleDuplicateID string               `json:"possible_duplicate_id,omitempty"`
}

type service struct {
	records *entity.Client
	prices  *entity.Client
	log     *logger.Logger
}

// NewService constructs a store service instance. The price entry client
// powers the referential repair pass on rename.
func NewService(records, prices *entity.Client, logg *logger.Logger) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("store entity client required")
	}
	if prices == nil {
		return nil, fmt.Errorf("price entry entity client required")
	}
	return &service{records: records, prices: prices, log: logg}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]record.Record, error) {
	return s.records.List(ctx, entity.ListOptions{Sort: input.Sort, Limit: input.Limit})
}

func (s *service) Get(ctx context.Context, id string) (record.Record, error) {
	return s.records.Get(ctx, id)
}

func (s *service) Create(ctx context.Context, actor identity.Actor, input CreateInput) (*CreateResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	storeType, err := normalizeType(input.Type)
	if err != nil {
		return nil, err
	}

	duplicateID, err := s.findPossibleDuplicate(ctx, input)
	if err != nil {
		return nil, err
	}

	payload := record.Record{
		"name":        input.Name,
		"address":     input.Address,
		"type":        storeType,
		"description": input.Description,
	}
	if input.Latitude != nil {
		payload["latitude"] = *input.Latitude
	}
	if input.Longitude != nil {
		payload["longitude"] = *input.Longitude
	}

	created, write, err := s.records.Create(ctx, payload, actor)
	if err != nil {
		return nil, err
	}
	return &CreateResult{Record: created, Write: write, PossibleDuplicateID: duplicateID}, nil
}

// Update merges the partial payload. When the name changes, every price
// entry whose denormalized store_name matched the old name case-insensitively
// is rewritten to the new name and this store's id.
func (s *service) Update(ctx context.Context, actor identity.Actor, id string, input UpdateInput) (record.Record, *storage.WriteResult, error) {
	previous, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	oldName := previous.String("name")

	partial := record.Record{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "store name cannot be empty")
		}
		partial["name"] = name
	}
	if input.Address != nil {
		partial["address"] = *input.Address
	}
	if input.Type != nil {
		storeType, err := normalizeType(*input.Type)
		if err != nil {
			return nil, nil, err
		}
		partial["type"] = storeType
	}
	if input.Description != nil {
		partial["description"] = *input.Description
	}
	if input.Latitude != nil {
		partial["latitude"] = *input.Latitude
	}
	if input.Longitude != nil {
		partial["longitude"] = *input.Longitude
	}

	updated, write, err := s.records.Update(ctx, id, partial, actor)
	if err != nil {
		return nil, nil, err
	}

	newName := updated.String("name")
	if input.Name != nil && newName != oldName {
		if err := s.repairPriceEntries(ctx, actor, id, oldName, newName); err != nil {
			return nil, nil, err
		}
	}
	return updated, write, nil
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

// repairPriceEntries rewrites the denormalized store name on every matching
// price entry. The match is case-insensitive on the old name; entries naming
// other stores are untouched.
func (s *service) repairPriceEntries(ctx context.Context, actor identity.Actor, storeID, oldName, newName string) error {
	entries, err := s.prices.List(ctx, entity.ListOptions{})
	if err != nil {
		return err
	}
	repaired := 0
	var errs []error
	for _, entry := range entries {
		if !strings.EqualFold(entry.String("store_name"), oldName) {
			continue
		}
		partial := record.Record{"store_name": newName, "store_id": storeID}
		if _, _, err := s.prices.Update(ctx, entry.ID(), partial, actor); err != nil {
			// keep repairing the rest; report every failure at once
			errs = append(errs, err)
			continue
		}
		repaired++
	}
	if combined := multierr.Combine(errs...); combined != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "repair price entries after store rename")
	}
	if s.log != nil && repaired > 0 {
		ctx = s.log.WithFields(ctx, map[string]any{
			"store_id": storeID,
			"old_name": oldName,
			"new_name": newName,
			"repaired": repaired,
		})
		s.log.Info(ctx, "store rename repaired price entries")
	}
	return nil
}

// findPossibleDuplicate flags an existing store with the same name
// case-insensitively, or with coordinates within the advisory radius.
func (s *service) findPossibleDuplicate(ctx context.Context, input CreateInput) (string, error) {
	existing, err := s.records.List(ctx, entity.ListOptions{})
	if err != nil {
		return "", err
	}
	for _, rec := range existing {
		if strings.EqualFold(rec.String("name"), input.Name) {
			return rec.ID(), nil
		}
		if input.Latitude == nil || input.Longitude == nil {
			continue
		}
		lat, latOK := rec["latitude"].(float64)
		lon, lonOK := rec["longitude"].(float64)
		if !latOK || !lonOK {
			continue
		}
		here := geo.Point{Latitude: *input.Latitude, Longitude: *input.Longitude}
		there := geo.Point{Latitude: lat, Longitude: lon}
		if geo.WithinMeters(here, there, duplicateRadiusMeters) {
			return rec.ID(), nil
		}
	}
	return "", nil
}

func normalizeType(raw string) (string, error) {
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
