package list

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pricepilot/pricepilot-backend/internal/entity"
	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
)

// fastListName labels the singleton ad-hoc scanning list.
const fastListName = "Fast List"

// Service exposes the owner-scoped shopping list operations. Every call
// operates on the acting user's lists only.
type Service interface {
	List(ctx context.Context, actor identity.Actor) ([]record.Record, error)
	Get(ctx context.Context, actor identity.Actor, id string) (record.Record, error)
	Create(ctx context.Context, actor identity.Actor, input CreateInput) (record.Record, *storage.WriteResult, error)
	Update(ctx context.Context, actor identity.Actor, id string, input UpdateInput) (record.Record, *storage.WriteResult, error)
	Delete(ctx context.Context, actor identity.Actor, id string) (*storage.WriteResult, error)
	FastList(ctx context.Context, actor identity.Actor) (record.Record, *storage.WriteResult, error)
}

// ItemInput is one list entry. Regular lists reference a product; the fast
// list variant carries a scanned barcode with an observed price instead.
type ItemInput struct {
	ProductID       string           `json:"product_id,omitempty"`
	DesiredQuantity int              `json:"desired_quantity,omitempty"`
	Checked         bool             `json:"checked"`
	Barcode         string           `json:"barcode,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Quantity        int              `json:"quantity,omitempty"`
	ProductName     string           `json:"product_name,omitempty"`
}

// CreateInput holds the validated payload to create a shopping list.
type CreateInput struct {
	Name       string
	Budget     *decimal.Decimal
	Items      []ItemInput
	IsActive   bool
	IsFastList bool
}

// UpdateInput holds optional mutation values for a shopping list.
type UpdateInput struct {
	Name     *string
	Budget   *decimal.Decimal
	Items    *[]ItemInput
	IsActive *bool
}

type service struct {
	records *entity.Client
}

// NewService constructs a shopping list service instance.
func NewService(records *entity.Client) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("shopping list entity client required")
	}
	return &service{records: records}, nil
}

func (s *service) List(ctx context.Context, actor identity.Actor) ([]record.Record, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "shopping lists require an authenticated user")
	}
	return s.records.List(ctx, entity.ListOptions{Owner: actor.ID, Sort: "-updated_date"})
}

func (s *service) Get(ctx context.Context, actor identity.Actor, id string) (record.Record, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.String(record.FieldCreatedBy) != actor.ID {
		return nil, storage.NotFound(s.records.Entity(), id)
	}
	return rec, nil
}

func (s *service) Create(ctx context.Context, actor identity.Actor, input CreateInput) (record.Record, *storage.WriteResult, error) {
	if actor.IsZero() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "shopping lists require an authenticated user")
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "list name is required")
	}
	if input.Budget != nil && input.Budget.IsNegative() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "budget cannot be negative")
	}

	if input.IsFastList {
		if existing, err := s.findFastList(ctx, actor); err != nil {
			return nil, nil, err
		} else if existing != nil {
			return existing, storage.Durable(), nil
		}
	}

	payload := record.Record{
		"name":         input.Name,
		"user_id":      actor.ID,
		"items":        itemsPayload(input.Items),
		"is_active":    input.IsActive,
		"is_fast_list": input.IsFastList,
	}
	if input.Budget != nil {
		payload["budget"] = input.Budget.InexactFloat64()
	}

	created, write, err := s.records.Create(ctx, payload, actor)
	if err != nil {
		return nil, nil, err
	}
	if input.IsActive {
		if err := s.demoteOtherActive(ctx, actor, created.ID()); err != nil {
			return nil, nil, err
		}
	}
	return created, write, nil
}

func (s *service) Update(ctx context.Context, actor identity.Actor, id string, input UpdateInput) (record.Record, *storage.WriteResult, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, nil, err
	}

	partial := record.Record{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "list name cannot be empty")
		}
		partial["name"] = name
	}
	if input.Budget != nil {
		if input.Budget.IsNegative() {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "budget cannot be negative")
		}
		partial["budget"] = input.Budget.InexactFloat64()
	}
	if input.Items != nil {
		partial["items"] = itemsPayload(*input.Items)
	}
	if input.IsActive != nil {
		partial["is_active"] = *input.IsActive
	}

	updated, write, err := s.records.Update(ctx, id, partial, actor)
	if err != nil {
		return nil, nil, err
	}
	if input.IsActive != nil && *input.IsActive {
		if err := s.demoteOtherActive(ctx, actor, id); err != nil {
			return nil, nil, err
		}
	}
	return updated, write, nil
}

func (s *service) Delete(ctx context.Context, actor identity.Actor, id string) (*storage.WriteResult, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.records.Delete(ctx, id)
}

// FastList returns the user's singleton fast list, creating it on first use.
func (s *service) FastList(ctx context.Context, actor identity.Actor) (record.Record, *storage.WriteResult, error) {
	if actor.IsZero() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "shopping lists require an authenticated user")
	}
	existing, err := s.findFastList(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return existing, storage.Durable(), nil
	}
	return s.Create(ctx, actor, CreateInput{Name: fastListName, IsFastList: true})
}

func (s *service) findFastList(ctx context.Context, actor identity.Actor) (record.Record, error) {
	lists, err := s.records.List(ctx, entity.ListOptions{Owner: actor.ID})
	if err != nil {
		return nil, err
	}
	for _, rec := range lists {
		if isTrue(rec["is_fast_list"]) {
			return rec, nil
		}
	}
	return nil, nil
}

// demoteOtherActive keeps at most one active list per user by flipping every
// other active list off.
func (s *service) demoteOtherActive(ctx context.Context, actor identity.Actor, keepID string) error {
	lists, err := s.records.List(ctx, entity.ListOptions{Owner: actor.ID})
	if err != nil {
		return err
	}
	for _, rec := range lists {
		if rec.ID() == keepID || !isTrue(rec["is_active"]) {
			continue
		}
		if _, _, err := s.records.Update(ctx, rec.ID(), record.Record{"is_active": false}, actor); err != nil {
			return err
		}
	}
	return nil
}

func itemsPayload(items []ItemInput) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		entry := map[string]any{"checked": item.Checked}
		if item.ProductID != "" {
			entry["product_id"] = item.ProductID
			entry["desired_quantity"] = item.DesiredQuantity
		}
		if item.Barcode != "" {
			entry["barcode"] = item.Barcode
			entry["quantity"] = item.Quantity
			entry["product_name"] = item.ProductName
			if item.Price != nil {
				entry["price"] = item.Price.InexactFloat64()
			}
		}
		out = append(out, entry)
	}
	return out
}

func isTrue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
