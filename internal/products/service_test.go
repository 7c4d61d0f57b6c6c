package product

import (
	"context"
	"testing"

	"github.com/pricepilot/pricepilot-backend/internal/entity"
	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/storage/memstore"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	"github.com/pricepilot/pricepilot-backend/pkg/openfoodfacts"
)

var alice = identity.New("u-alice", "Alice")

type stubLookup struct {
	product *openfoodfacts.Product
	err     error
	calls   int
}

func (s *stubLookup) Lookup(ctx context.Context, barcode string) (*openfoodfacts.Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func newTestService(t *testing.T, lookup *stubLookup) Service {
	t.Helper()
	if lookup == nil {
		lookup = &stubLookup{err: openfoodfacts.ErrNotFound}
	}
	records := entity.NewClient(enums.EntityProduct, memstore.New(), nil)
	svc, err := NewService(records, lookup)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateRequiresName(t *testing.T) {
	svc := newTestService(t, nil)
	_, _, err := svc.Create(context.Background(), alice, CreateInput{Name: "  "})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc := newTestService(t, nil)
	_, _, err := svc.Create(context.Background(), alice, CreateInput{Name: "Milk", Category: "weapons"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDefaultsCategory(t *testing.T) {
	svc := newTestService(t, nil)
	created, _, err := svc.Create(context.Background(), alice, CreateInput{Name: "Milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created["category"] != string(enums.ProductCategoryOther) {
		t.Fatalf("unexpected category %v", created["category"])
	}
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	created, _, _ := svc.Create(ctx, alice, CreateInput{Name: "Milk", Brand: "Acme"})

	brand := "BigDairy"
	updated, _, err := svc.Update(ctx, alice, created.ID(), UpdateInput{Brand: &brand})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated["brand"] != "BigDairy" || updated["name"] != "Milk" {
		t.Fatalf("unexpected record %+v", updated)
	}
}

func TestLookupBarcodePrefersRegisteredProduct(t *testing.T) {
	lookup := &stubLookup{product: &openfoodfacts.Product{Name: "Remote"}}
	svc := newTestService(t, lookup)
	ctx := context.Background()
	created, _, _ := svc.Create(ctx, alice, CreateInput{Name: "Milk", Barcode: "123"})

	result, err := svc.LookupBarcode(ctx, "123")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !result.Found || result.Product.ID() != created.ID() {
		t.Fatalf("unexpected result %+v", result)
	}
	if lookup.calls != 0 {
		t.Fatal("external lookup consulted despite local match")
	}
}

func TestLookupBarcodeFallsThroughToExternal(t *testing.T) {
	lookup := &stubLookup{product: &openfoodfacts.Product{Barcode: "456", Name: "Oat Drink"}}
	svc := newTestService(t, lookup)

	result, err := svc.LookupBarcode(context.Background(), "456")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if result.Found || result.Suggestion == nil || result.Suggestion.Name != "Oat Drink" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestLookupBarcodeUnknownSurfacesNotFound(t *testing.T) {
	svc := newTestService(t, &stubLookup{err: openfoodfacts.ErrNotFound})
	_, err := svc.LookupBarcode(context.Background(), "000")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
