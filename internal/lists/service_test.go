package list

import (
	"context"
	"testing"

	"github.com/pricepilot/pricepilot-backend/internal/entity"
	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/storage/memstore"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
)

var (
	alice = identity.New("u-alice", "Alice")
	bob   = identity.New("u-bob", "Bob")
)

func newTestService(t *testing.T) Service {
	t.Helper()
	records := entity.NewClient(enums.EntityShoppingList, memstore.New(), nil)
	svc, err := NewService(records)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestOwnerIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, alice, CreateInput{Name: "groceries"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("owner cannot see own list: %v", mine)
	}

	others, err := svc.List(ctx, bob)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(others) != 0 {
		t.Fatalf("foreign user sees private lists: %v", others)
	}

	if _, err := svc.Get(ctx, bob, created.ID()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign get, got %v", err)
	}
	if _, err := svc.Delete(ctx, bob, created.ID()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign delete, got %v", err)
	}
}

func TestCreateActiveDemotesOthers(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, _, err := svc.Create(ctx, alice, CreateInput{Name: "week one", IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, _, err := svc.Create(ctx, alice, CreateInput{Name: "week two", IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	lists, _ := svc.List(ctx, alice)
	active := 0
	for _, rec := range lists {
		if rec["is_active"] == true {
			active++
			if rec.ID() != second.ID() {
				t.Fatalf("wrong list active: %+v", rec)
			}
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active list, got %d", active)
	}
	_ = first
}

func TestUpdateActivateDemotesOthers(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, _, _ := svc.Create(ctx, alice, CreateInput{Name: "a", IsActive: true})
	second, _, _ := svc.Create(ctx, alice, CreateInput{Name: "b"})

	activate := true
	if _, _, err := svc.Update(ctx, alice, second.ID(), UpdateInput{IsActive: &activate}); err != nil {
		t.Fatalf("update: %v", err)
	}

	refreshed, _ := svc.Get(ctx, alice, first.ID())
	if refreshed["is_active"] == true {
		t.Fatalf("previous active list not demoted: %+v", refreshed)
	}
}

func TestFastListIsSingleton(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, _, err := svc.FastList(ctx, alice)
	if err != nil {
		t.Fatalf("fast list: %v", err)
	}
	if first["is_fast_list"] != true {
		t.Fatalf("fast list not flagged: %+v", first)
	}

	second, _, err := svc.FastList(ctx, alice)
	if err != nil {
		t.Fatalf("fast list: %v", err)
	}
	if second.ID() != first.ID() {
		t.Fatalf("fast list duplicated: %s vs %s", first.ID(), second.ID())
	}

	created, _, err := svc.Create(ctx, alice, CreateInput{Name: "another", IsFastList: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID() != first.ID() {
		t.Fatalf("explicit fast list create bypassed the singleton: %s", created.ID())
	}

	other, _, err := svc.FastList(ctx, bob)
	if err != nil {
		t.Fatalf("fast list: %v", err)
	}
	if other.ID() == first.ID() {
		t.Fatal("fast list shared across users")
	}
}

func TestItemsPayloadVariants(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, alice, CreateInput{
		Name: "mixed",
		Items: []ItemInput{
			{ProductID: "p1", DesiredQuantity: 2},
			{Barcode: "123", Quantity: 1, ProductName: "Scanned"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	items := created["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("unexpected items %+v", items)
	}
	first := items[0].(map[string]any)
	if first["product_id"] != "p1" {
		t.Fatalf("unexpected first item %+v", first)
	}
	second := items[1].(map[string]any)
	if second["barcode"] != "123" || second["product_name"] != "Scanned" {
		t.Fatalf("unexpected second item %+v", second)
	}
}

func TestListRequiresActor(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.List(context.Background(), identity.Actor{}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
