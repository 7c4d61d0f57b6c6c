package enums

import "fmt"

// ProductCategory classifies a grocery product.
type ProductCategory string

const (
	ProductCategoryFood         ProductCategory = "food"
	ProductCategoryBeverages    ProductCategory = "beverages"
	ProductCategoryHousehold    ProductCategory = "household"
	ProductCategoryPersonalCare ProductCategory = "personal_care"
	ProductCategoryBaby         ProductCategory = "baby"
	ProductCategoryPet          ProductCategory = "pet"
	ProductCategoryHealth       ProductCategory = "health"
	ProductCategoryFrozen       ProductCategory = "frozen"
	ProductCategoryDairy        ProductCategory = "dairy"
	ProductCategoryProduce      ProductCategory = "produce"
	ProductCategoryMeat         ProductCategory = "meat"
	ProductCategoryBakery       ProductCategory = "bakery"
	ProductCategorySnacks       ProductCategory = "snacks"
	ProductCategoryOther        ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryFood,
	ProductCategoryBeverages,
	ProductCategoryHousehold,
	ProductCategoryPersonalCare,
	ProductCategoryBaby,
	ProductCategoryPet,
	ProductCategoryHealth,
	ProductCategoryFrozen,
	ProductCategoryDairy,
	ProductCategoryProduce,
	ProductCategoryMeat,
	ProductCategoryBakery,
	ProductCategorySnacks,
	ProductCategoryOther,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
