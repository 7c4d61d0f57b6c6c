package history

import (
	"testing"
	"time"

	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/record"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestCreateEntry(t *testing.T) {
	actor := identity.New("u1", "Ada")
	data := record.Record{
		"name":               "Milk",
		"price":              3.5,
		record.FieldID:       "r1",
		record.FieldLikes:    []any{"u2"},
		record.FieldCreatedBy: "u1",
	}

	entry := CreateEntry(actor, data, testNow)

	if entry.Action != ActionCreate || entry.By != "u1" || entry.ByName != "Ada" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Date != "2026-03-01T10:00:00Z" {
		t.Fatalf("unexpected date %q", entry.Date)
	}
	if entry.Data["name"] != "Milk" || entry.Data["price"] != 3.5 {
		t.Fatalf("snapshot missing data fields: %+v", entry.Data)
	}
	if _, ok := entry.Data[record.FieldID]; ok {
		t.Fatal("snapshot carried envelope fields")
	}
}

func TestDiffReportsChangedFields(t *testing.T) {
	stored := record.Record{"name": "Milk", "brand": "Acme", "price": 3.5}
	partial := record.Record{"name": "Whole Milk", "brand": "Acme", "notes": "on sale"}

	changes := Diff(stored, partial)

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %v", changes)
	}
	if c := changes["name"]; c.Before != "Milk" || c.After != "Whole Milk" {
		t.Fatalf("unexpected name change %+v", c)
	}
	if c := changes["notes"]; c.Before != nil || c.After != "on sale" {
		t.Fatalf("unexpected notes change %+v", c)
	}
}

func TestDiffEmptyWhenNothingChanged(t *testing.T) {
	stored := record.Record{"name": "Milk", "items": []any{map[string]any{"product_id": "p1"}}}
	partial := record.Record{"name": "Milk", "items": []any{map[string]any{"product_id": "p1"}}}
	if changes := Diff(stored, partial); changes != nil {
		t.Fatalf("expected nil changes, got %v", changes)
	}
}

func TestDiffIgnoresEnvelopeFields(t *testing.T) {
	stored := record.Record{"name": "Milk"}
	partial := record.Record{
		record.FieldUpdatedDate: "2030-01-01T00:00:00Z",
		record.FieldEditHistory: []any{"forged"},
	}
	if changes := Diff(stored, partial); changes != nil {
		t.Fatalf("expected nil changes, got %v", changes)
	}
}

func TestUpdateEntry(t *testing.T) {
	entry := UpdateEntry(identity.FromID("u1"), map[string]Change{
		"price": {Before: 3.5, After: 2.99},
	}, testNow)
	if entry.Action != ActionUpdate || len(entry.Changes) != 1 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Changes["price"].After != 2.99 {
		t.Fatalf("unexpected change %+v", entry.Changes["price"])
	}
}
