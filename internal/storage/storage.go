// Package storage defines the pluggable persistence contract behind the
// entity client. Three strategies implement it: a Postgres document store, a
// git-repository JSON store with a cache fallback, and an in-memory store
// for tests and local development.
package storage

import (
	"context"
	"fmt"

	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
)

// WriteResult reports where a mutation landed. Callers surface Durability to
// the end user so a local-only write is never mistaken for a shared one.
type WriteResult struct {
	Durability enums.Durability
}

// Durable reports a write accepted by the authoritative store.
func Durable() *WriteResult {
	return &WriteResult{Durability: enums.DurabilityDurable}
}

// LocalOnly reports a write that reached only the local cache.
func LocalOnly() *WriteResult {
	return &WriteResult{Durability: enums.DurabilityLocalOnly}
}

// MutateFunc transforms the current stored state of one record. It runs
// under whatever isolation the backend provides: a row lock on the document
// store, a compare-and-swap on the git store.
type MutateFunc func(rec record.Record) (record.Record, error)

// Backend is one persistence strategy, uniform across the five collections.
type Backend interface {
	Name() string
	List(ctx context.Context, entity enums.Entity) ([]record.Record, error)
	Get(ctx context.Context, entity enums.Entity, id string) (record.Record, error)
	Insert(ctx context.Context, entity enums.Entity, rec record.Record) (*WriteResult, error)
	Mutate(ctx context.Context, entity enums.Entity, id string, fn MutateFunc) (record.Record, *WriteResult, error)
	Delete(ctx context.Context, entity enums.Entity, id string) (*WriteResult, error)
	Ping(ctx context.Context) error
}

// NotFound builds the canonical missing-record error.
func NotFound(entity enums.Entity, id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s %s not found", entity, id))
}
