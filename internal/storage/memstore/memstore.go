// Package memstore keeps collections in process memory. It backs tests and
// local development where neither Postgres nor a git repository is wired.
package memstore

import (
	"context"
	"sync"

	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
)

type collection struct {
	order   []string
	records map[string]record.Record
}

// Store is an in-memory storage backend. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[enums.Entity]*collection
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[enums.Entity]*collection)}
}

// Name identifies the backend in logs and metrics.
func (s *Store) Name() string {
	return "memory"
}

func (s *Store) collectionFor(entity enums.Entity) *collection {
	col, ok := s.collections[entity]
	if !ok {
		col = &collection{records: make(map[string]record.Record)}
		s.collections[entity] = col
	}
	return col
}

// List returns every record of the collection in insertion order.
func (s *Store) List(ctx context.Context, entity enums.Entity) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[entity]
	if !ok {
		return []record.Record{}, nil
	}
	out := make([]record.Record, 0, len(col.order))
	for _, id := range col.order {
		out = append(out, col.records[id].Clone())
	}
	return out, nil
}

// Get returns one record by id.
func (s *Store) Get(ctx context.Context, entity enums.Entity, id string) (record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[entity]
	if !ok {
		return nil, storage.NotFound(entity, id)
	}
	rec, ok := col.records[id]
	if !ok {
		return nil, storage.NotFound(entity, id)
	}
	return rec.Clone(), nil
}

// Insert stores a new record.
func (s *Store) Insert(ctx context.Context, entity enums.Entity, rec record.Record) (*storage.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collectionFor(entity)
	id := rec.ID()
	if _, exists := col.records[id]; !exists {
		col.order = append(col.order, id)
	}
	col.records[id] = rec.Clone()
	return storage.Durable(), nil
}

// Mutate applies fn to the stored record under the store lock.
func (s *Store) Mutate(ctx context.Context, entity enums.Entity, id string, fn storage.MutateFunc) (record.Record, *storage.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[entity]
	if !ok {
		return nil, nil, storage.NotFound(entity, id)
	}
	rec, ok := col.records[id]
	if !ok {
		return nil, nil, storage.NotFound(entity, id)
	}
	updated, err := fn(rec.Clone())
	if err != nil {
		return nil, nil, err
	}
	col.records[id] = updated.Clone()
	return updated, storage.Durable(), nil
}

// Delete removes a record. Deleting an absent id is accepted.
func (s *Store) Delete(ctx context.Context, entity enums.Entity, id string) (*storage.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[entity]
	if !ok {
		return storage.Durable(), nil
	}
	if _, exists := col.records[id]; exists {
		delete(col.records, id)
		for i, existing := range col.order {
			if existing == id {
				col.order = append(col.order[:i], col.order[i+1:]...)
				break
			}
		}
	}
	return storage.Durable(), nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}
