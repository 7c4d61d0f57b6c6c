package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pricepilot/pricepilot-backend/pkg/config"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(config.LookupConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
}

func TestLookupSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/product/737628064502.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"status": 1,
			"product": {
				"product_name": "Rice Noodles",
				"brands": "Thai Kitchen",
				"categories_tags": ["en:frozen-foods"],
				"image_url": "https://img.example/rice.jpg"
			}
		}`))
	})

	product, err := client.Lookup(context.Background(), "737628064502")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if product.Name != "Rice Noodles" || product.Brand != "Thai Kitchen" {
		t.Fatalf("unexpected product %+v", product)
	}
	if product.Category != enums.ProductCategoryFrozen {
		t.Fatalf("expected frozen category, got %s", product.Category)
	}
	if product.Barcode != "737628064502" {
		t.Fatalf("expected barcode echoed, got %s", product.Barcode)
	}
}

func TestLookupUnknownBarcode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 0}`))
	})

	_, err := client.Lookup(context.Background(), "000")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLookupServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Lookup(context.Background(), "123")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestLookupRequiresBarcode(t *testing.T) {
	client := New(config.LookupConfig{BaseURL: "http://localhost", Timeout: time.Second})
	_, err := client.Lookup(context.Background(), "  ")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMapCategory(t *testing.T) {
	cases := map[string]enums.ProductCategory{
		"en:beverages":   enums.ProductCategoryBeverages,
		"en:dairy-milks": enums.ProductCategoryDairy,
		"en:snacks":      enums.ProductCategorySnacks,
		"en:meats":       enums.ProductCategoryMeat,
		"en:breads":      enums.ProductCategoryFood,
	}
	for tag, want := range cases {
		if got := mapCategory(tag); got != want {
			t.Fatalf("tag %s: expected %s got %s", tag, want, got)
		}
	}
}
