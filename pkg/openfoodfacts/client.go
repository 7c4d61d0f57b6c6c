package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pricepilot/pricepilot-backend/pkg/config"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
)

// Client looks up products in the Open Food Facts database by barcode. It is
// consulted only when no local Product record matches a scanned code.
type Client struct {
	baseURL string
	http    *http.Client
}

// Product is the subset of the lookup response mapped into a product
// creation payload.
type Product struct {
	Barcode  string                `json:"barcode"`
	Name     string                `json:"name"`
	Brand    string                `json:"brand"`
	Category enums.ProductCategory `json:"category"`
	ImageURL string                `json:"image_url"`
}

// ErrNotFound is returned when the barcode is unknown to the remote database.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "barcode not found in product database")

// New builds a lookup client with the configured base URL and timeout.
func New(cfg config.LookupConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type lookupResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName    string   `json:"product_name"`
		Brands         string   `json:"brands"`
		CategoriesTags []string `json:"categories_tags"`
		ImageURL       string   `json:"image_url"`
	} `json:"product"`
}

// Lookup fetches barcode data from the remote product database.
func (c *Client) Lookup(ctx context.Context, barcode string) (*Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	url := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build lookup request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product database unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("product database returned status %d", resp.StatusCode))
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode lookup response")
	}
	if payload.Status != 1 || payload.Product.ProductName == "" {
		return nil, ErrNotFound
	}

	category := enums.ProductCategoryOther
	if len(payload.Product.CategoriesTags) > 0 {
		category = mapCategory(payload.Product.CategoriesTags[0])
	}

	return &Product{
		Barcode:  barcode,
		Name:     payload.Product.ProductName,
		Brand:    payload.Product.Brands,
		Category: category,
		ImageURL: payload.Product.ImageURL,
	}, nil
}

// mapCategory folds the remote taxonomy tag into the local category enum.
func mapCategory(tag string) enums.ProductCategory {
	c := strings.ToLower(tag)
	switch {
	case strings.Contains(c, "beverage"):
		return enums.ProductCategoryBeverages
	case strings.Contains(c, "dairy"):
		return enums.ProductCategoryDairy
	case strings.Contains(c, "snack"):
		return enums.ProductCategorySnacks
	case strings.Contains(c, "frozen"):
		return enums.ProductCategoryFrozen
	case strings.Contains(c, "meat"):
		return enums.ProductCategoryMeat
	}
	return enums.ProductCategoryFood
}
