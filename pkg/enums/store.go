package enums

import "fmt"

// StoreType classifies where a price was observed.
type StoreType string

const (
	StoreTypeSupermarket StoreType = "supermarket"
	StoreTypeWarehouse   StoreType = "warehouse"
	StoreTypeLocalMarket StoreType = "local_market"
	StoreTypeConvenience StoreType = "convenience"
	StoreTypePharmacy    StoreType = "pharmacy"
	StoreTypeOnline      StoreType = "online"
	StoreTypeOther       StoreType = "other"
)

var validStoreTypes = []StoreType{
	StoreTypeSupermarket,
	StoreTypeWarehouse,
	StoreTypeLocalMarket,
	StoreTypeConvenience,
	StoreTypePharmacy,
	StoreTypeOnline,
	StoreTypeOther,
}

// String implements fmt.Stringer.
func (s StoreType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StoreType.
func (s StoreType) IsValid() bool {
	for _, candidate := range validStoreTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStoreType converts raw input into a StoreType.
func ParseStoreType(value string) (StoreType, error) {
	for _, candidate := range validStoreTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid store type %q", value)
}
