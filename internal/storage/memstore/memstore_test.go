package memstore

import (
	"context"
	"testing"

	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
)

func TestInsertGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	rec := record.Record{record.FieldID: "p1", "name": "Milk"}

	result, err := s.Insert(ctx, enums.EntityProduct, rec)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if result.Durability != enums.DurabilityDurable {
		t.Fatalf("unexpected durability %s", result.Durability)
	}

	got, err := s.Get(ctx, enums.EntityProduct, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["name"] != "Milk" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	s := New()
	_, err := s.Get(context.Background(), enums.EntityProduct, "nope")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.Insert(ctx, enums.EntityStore, record.Record{record.FieldID: id}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	records, err := s.List(ctx, enums.EntityStore)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 || records[0].ID() != "a" || records[2].ID() != "c" {
		t.Fatalf("unexpected order: %+v", records)
	}
}

func TestMutateAppliesChange(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Insert(ctx, enums.EntityProduct, record.Record{record.FieldID: "p1", "name": "Milk"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, result, err := s.Mutate(ctx, enums.EntityProduct, "p1", func(rec record.Record) (record.Record, error) {
		rec["name"] = "Whole Milk"
		return rec, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if updated["name"] != "Whole Milk" || result.Durability != enums.DurabilityDurable {
		t.Fatalf("unexpected result %+v %+v", updated, result)
	}

	got, _ := s.Get(ctx, enums.EntityProduct, "p1")
	if got["name"] != "Whole Milk" {
		t.Fatalf("mutation not persisted: %+v", got)
	}
}

func TestMutateMissingIsNotFound(t *testing.T) {
	s := New()
	_, _, err := s.Mutate(context.Background(), enums.EntityProduct, "nope", func(rec record.Record) (record.Record, error) {
		return rec, nil
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteRemovesFromList(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Insert(ctx, enums.EntityProduct, record.Record{record.FieldID: "p1"})
	_, _ = s.Insert(ctx, enums.EntityProduct, record.Record{record.FieldID: "p2"})

	if _, err := s.Delete(ctx, enums.EntityProduct, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, enums.EntityProduct, "p1"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	records, _ := s.List(ctx, enums.EntityProduct)
	if len(records) != 1 || records[0].ID() != "p2" {
		t.Fatalf("unexpected records after delete: %+v", records)
	}
}

func TestDeleteAbsentIsAccepted(t *testing.T) {
	s := New()
	result, err := s.Delete(context.Background(), enums.EntityProduct, "nope")
	if err != nil || result.Durability != enums.DurabilityDurable {
		t.Fatalf("unexpected result %+v %v", result, err)
	}
}

var _ storage.Backend = (*Store)(nil)
