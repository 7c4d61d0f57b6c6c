// Package docstore persists each record as a JSONB document row in
// Postgres. Mutations run inside row-locked transactions so concurrent vote
// toggles and updates on the same record cannot lose each other's writes.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	dbpkg "github.com/pricepilot/pricepilot-backend/pkg/db"
	"github.com/pricepilot/pricepilot-backend/pkg/db/models"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	"github.com/pricepilot/pricepilot-backend/pkg/metrics"
)

const backendName = "docstore"

// Store is the Postgres-backed storage strategy.
type Store struct {
	db      *gorm.DB
	metrics *metrics.StorageMetrics
}

// New builds a document store on top of a GORM connection.
func New(db *gorm.DB, m *metrics.StorageMetrics) *Store {
	return &Store{db: db, metrics: m}
}

// Name identifies the backend in logs and metrics.
func (s *Store) Name() string {
	return backendName
}

// List returns every record of the collection, oldest first.
func (s *Store) List(ctx context.Context, entity enums.Entity) ([]record.Record, error) {
	defer s.observe("list")()

	var docs []models.Document
	err := s.db.WithContext(ctx).
		Where("collection = ?", entity.String()).
		Order("created_at, record_id").
		Find(&docs).Error
	if err != nil {
		s.metrics.IncFailure(backendName, "list")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}

	out := make([]record.Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := decode(doc)
		if err != nil {
			s.metrics.IncFailure(backendName, "list")
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns one record by id.
func (s *Store) Get(ctx context.Context, entity enums.Entity, id string) (record.Record, error) {
	defer s.observe("get")()

	var doc models.Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND record_id = ?", entity.String(), id).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.NotFound(entity, id)
	}
	if err != nil {
		s.metrics.IncFailure(backendName, "get")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get document")
	}
	return decode(doc)
}

// Insert stores a new record.
func (s *Store) Insert(ctx context.Context, entity enums.Entity, rec record.Record) (*storage.WriteResult, error) {
	defer s.observe("insert")()

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode document")
	}
	doc := models.Document{
		Collection: entity.String(),
		RecordID:   rec.ID(),
		Data:       raw,
	}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		s.metrics.IncFailure(backendName, "insert")
		if dbpkg.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("%s %s already exists", entity, rec.ID()))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert document")
	}
	return storage.Durable(), nil
}

// Mutate applies fn to the stored record inside a transaction holding a row
// lock, then writes the result back.
func (s *Store) Mutate(ctx context.Context, entity enums.Entity, id string, fn storage.MutateFunc) (record.Record, *storage.WriteResult, error) {
	defer s.observe("mutate")()

	var updated record.Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("collection = ? AND record_id = ?", entity.String(), id)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var doc models.Document
		if err := query.First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.NotFound(entity, id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock document")
		}

		rec, err := decode(doc)
		if err != nil {
			return err
		}
		next, err := fn(rec)
		if err != nil {
			return err
		}

		raw, err := json.Marshal(next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode document")
		}
		if err := tx.Model(&models.Document{}).
			Where("collection = ? AND record_id = ?", entity.String(), id).
			Update("data", raw).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update document")
		}
		updated = next
		return nil
	})
	if err != nil {
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.metrics.IncFailure(backendName, "mutate")
		}
		return nil, nil, err
	}
	return updated, storage.Durable(), nil
}

// Delete removes a record. Deleting an absent id is accepted.
func (s *Store) Delete(ctx context.Context, entity enums.Entity, id string) (*storage.WriteResult, error) {
	defer s.observe("delete")()

	err := s.db.WithContext(ctx).
		Where("collection = ? AND record_id = ?", entity.String(), id).
		Delete(&models.Document{}).Error
	if err != nil {
		s.metrics.IncFailure(backendName, "delete")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete document")
	}
	return storage.Durable(), nil
}

// Ping verifies the datasource is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) observe(op string) func() {
	start := time.Now()
	return func() {
		s.metrics.ObserveOp(backendName, op, time.Since(start))
	}
}

// decode surfaces malformed stored JSON instead of resetting the record.
func decode(doc models.Document) (record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal(doc.Data, &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("stored document %s/%s is malformed", doc.Collection, doc.RecordID))
	}
	return rec, nil
}
