package record

import (
	"testing"
	"time"

	"github.com/pricepilot/pricepilot-backend/internal/identity"
)

func TestStampCreate(t *testing.T) {
	rec := Record{"name": "Milk"}
	actor := identity.New("u1", "Ada")
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rec.StampCreate(actor, now)

	if rec.ID() == "" {
		t.Fatal("expected id to be assigned")
	}
	if rec.String(FieldCreatedDate) != rec.String(FieldUpdatedDate) {
		t.Fatalf("created_date %q != updated_date %q", rec.String(FieldCreatedDate), rec.String(FieldUpdatedDate))
	}
	if rec.String(FieldCreatedBy) != "u1" || rec.String(FieldCreatedByName) != "Ada" {
		t.Fatalf("authorship not stamped: %+v", rec)
	}
	if likes, ok := rec[FieldLikes].([]any); !ok || len(likes) != 0 {
		t.Fatalf("expected empty likes, got %v", rec[FieldLikes])
	}
}

func TestStampCreateAnonymousActor(t *testing.T) {
	rec := Record{"name": "Milk"}
	rec.StampCreate(identity.Actor{}, time.Now())
	if rec[FieldCreatedBy] != nil {
		t.Fatalf("expected nil created_by for anonymous actor, got %v", rec[FieldCreatedBy])
	}
}

func TestMergeSkipsEnvelopeFields(t *testing.T) {
	rec := Record{"name": "Milk", FieldID: "r1", FieldCreatedBy: "u1"}
	rec.Merge(Record{
		"name":         "Whole Milk",
		"brand":        "Acme",
		FieldID:        "forged",
		FieldCreatedBy: "intruder",
		FieldLikes:     []any{"intruder"},
	})

	if rec["name"] != "Whole Milk" || rec["brand"] != "Acme" {
		t.Fatalf("merge did not apply data fields: %+v", rec)
	}
	if rec.ID() != "r1" || rec.String(FieldCreatedBy) != "u1" {
		t.Fatalf("merge let envelope fields through: %+v", rec)
	}
	if _, ok := rec[FieldLikes]; ok {
		t.Fatal("merge let likes through")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	rec := Record{"items": []any{map[string]any{"product_id": "p1"}}}
	clone := rec.Clone()
	clone["items"].([]any)[0].(map[string]any)["product_id"] = "p2"
	if rec["items"].([]any)[0].(map[string]any)["product_id"] != "p1" {
		t.Fatal("clone aliased nested state")
	}
}

func TestAppendHistory(t *testing.T) {
	rec := Record{}
	entry := struct {
		Action string `json:"action"`
	}{Action: "create"}
	if err := rec.AppendHistory(entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	if rec.HistoryLen() != 1 {
		t.Fatalf("expected 1 entry, got %d", rec.HistoryLen())
	}
	stored := rec[FieldEditHistory].([]any)[0].(map[string]any)
	if stored["action"] != "create" {
		t.Fatalf("entry not stored in JSON shape: %v", stored)
	}
}

func TestEqualValue(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal strings", "a", "a", true},
		{"different strings", "a", "b", false},
		{"int vs float same serialization", 3, 3.0, true},
		{"nested maps", map[string]any{"x": 1}, map[string]any{"x": 1}, true},
		{"nil vs empty", nil, "", false},
	}
	for _, tc := range cases {
		if got := EqualValue(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s: EqualValue = %v, want %v", tc.name, got, tc.want)
		}
	}
}
