package entity

import (
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
)

// Clients bundles one client per collection, all backed by the same store.
type Clients struct {
	Products *Client
	Prices   *Client
	Stores   *Client
	Lists    *Client
	Users    *Client
}

func NewClients(backend storage.Backend, logg *logger.Logger) *Clients {
	return &Clients{
		Products: NewClient(enums.EntityProduct, backend, logg),
		Prices:   NewClient(enums.EntityPriceEntry, backend, logg),
		Stores:   NewClient(enums.EntityStore, backend, logg),
		Lists:    NewClient(enums.EntityShoppingList, backend, logg),
		Users:    NewClient(enums.EntityUser, backend, logg),
	}
}
