package enums

import "fmt"

// Entity identifies one of the persisted collections.
type Entity string

const (
	EntityProduct      Entity = "Product"
	EntityPriceEntry   Entity = "PriceEntry"
	EntityStore        Entity = "Store"
	EntityShoppingList Entity = "ShoppingList"
	EntityUser         Entity = "User"
)

var validEntities = []Entity{
	EntityProduct,
	EntityPriceEntry,
	EntityStore,
	EntityShoppingList,
	EntityUser,
}

// Entities returns every known collection in a stable order.
func Entities() []Entity {
	out := make([]Entity, len(validEntities))
	copy(out, validEntities)
	return out
}

// String implements fmt.Stringer.
func (e Entity) String() string {
	return string(e)
}

// IsValid reports whether the value is a known Entity.
func (e Entity) IsValid() bool {
	for _, candidate := range validEntities {
		if candidate == e {
			return true
		}
	}
	return false
}

// IsPrivate reports whether records of this collection are visible only to
// their owning user.
func (e Entity) IsPrivate() bool {
	return e == EntityShoppingList
}

// ParseEntity converts raw input into an Entity.
func ParseEntity(value string) (Entity, error) {
	for _, candidate := range validEntities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity %q", value)
}
