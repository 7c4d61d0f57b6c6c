// Package entity exposes the uniform persistence façade over one collection:
// list, filter, get, create, update, delete and the two vote toggles, the
// same surface regardless of backend or collection.
package entity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pricepilot/pricepilot-backend/internal/history"
	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	"github.com/pricepilot/pricepilot-backend/internal/voting"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
)

// Client operates one collection on top of a storage backend.
type Client struct {
	entity  enums.Entity
	backend storage.Backend
	log     *logger.Logger
	now     func() time.Time
}

// NewClient builds a client for one collection.
func NewClient(entity enums.Entity, backend storage.Backend, logg *logger.Logger) *Client {
	return &Client{
		entity:  entity,
		backend: backend,
		log:     logg,
		now:     time.Now,
	}
}

// Entity returns the collection this client operates on.
func (c *Client) Entity() enums.Entity {
	return c.entity
}

// ListOptions shape a List call. Sort names a field, with a leading '-' for
// descending order. Owner scopes private collections to one user.
type ListOptions struct {
	Sort  string
	Limit int
	Owner string
}

// List returns records of the collection. Private collections require an
// owner and return only that owner's records.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]record.Record, error) {
	records, err := c.backend.List(ctx, c.entity)
	if err != nil {
		return nil, err
	}

	if c.entity.IsPrivate() {
		if opts.Owner == "" {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("%s records require an owner scope", c.entity))
		}
		scoped := make([]record.Record, 0, len(records))
		for _, rec := range records {
			if rec.String(record.FieldCreatedBy) == opts.Owner {
				scoped = append(scoped, rec)
			}
		}
		records = scoped
	}

	if opts.Sort != "" {
		sortRecords(records, opts.Sort)
	}
	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}
	return records, nil
}

// Filter returns records where every predicate key equality-matches the
// corresponding field under string coercion.
func (c *Client) Filter(ctx context.Context, predicate map[string]any) ([]record.Record, error) {
	records, err := c.backend.List(ctx, c.entity)
	if err != nil {
		return nil, err
	}

	out := make([]record.Record, 0, len(records))
	for _, rec := range records {
		if matches(rec, predicate) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Get returns one record by id.
func (c *Client) Get(ctx context.Context, id string) (record.Record, error) {
	return c.backend.Get(ctx, c.entity, id)
}

// Create stamps the envelope, seeds the audit trail with a create entry and
// persists the record.
func (c *Client) Create(ctx context.Context, data record.Record, actor identity.Actor) (record.Record, *storage.WriteResult, error) {
	now := c.now()
	rec := record.Record{}
	rec.Merge(data)
	rec.StampCreate(actor, now)
	if err := rec.AppendHistory(history.CreateEntry(actor, data, now)); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record create history")
	}

	result, err := c.backend.Insert(ctx, c.entity, rec)
	if err != nil {
		return nil, nil, err
	}
	c.logWrite(ctx, "record created", rec.ID(), result)
	return rec, result, nil
}

var errNoChange = errors.New("no field changed")

// Update merges the partial payload into the stored record. When at least
// one field differs, one update entry describing every changed field is
// appended and the update metadata is stamped; otherwise the call is a no-op
// returning the current record.
func (c *Client) Update(ctx context.Context, id string, partial record.Record, actor identity.Actor) (record.Record, *storage.WriteResult, error) {
	now := c.now()
	var current record.Record
	updated, result, err := c.backend.Mutate(ctx, c.entity, id, func(stored record.Record) (record.Record, error) {
		changes := history.Diff(stored, partial)
		if changes == nil {
			current = stored
			return nil, errNoChange
		}
		stored.Merge(partial)
		if err := stored.AppendHistory(history.UpdateEntry(actor, changes, now)); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record update history")
		}
		stored.StampUpdate(actor, now)
		return stored, nil
	})
	if errors.Is(err, errNoChange) {
		return current, storage.Durable(), nil
	}
	if err != nil {
		return nil, nil, err
	}
	c.logWrite(ctx, "record updated", id, result)
	return updated, result, nil
}

// Delete removes the record. Success reports acceptance by the backend, not
// whether the id existed.
func (c *Client) Delete(ctx context.Context, id string) (*storage.WriteResult, error) {
	result, err := c.backend.Delete(ctx, c.entity, id)
	if err != nil {
		return nil, err
	}
	c.logWrite(ctx, "record deleted", id, result)
	return result, nil
}

// ToggleLike flips the actor's like on the record, displacing any dislike.
func (c *Client) ToggleLike(ctx context.Context, id string, actor identity.Actor) (record.Record, *storage.WriteResult, error) {
	return c.toggle(ctx, id, actor, enums.VoteLike)
}

// ToggleDislike flips the actor's dislike on the record, displacing any like.
func (c *Client) ToggleDislike(ctx context.Context, id string, actor identity.Actor) (record.Record, *storage.WriteResult, error) {
	return c.toggle(ctx, id, actor, enums.VoteDislike)
}

func (c *Client) toggle(ctx context.Context, id string, actor identity.Actor, vote enums.Vote) (record.Record, *storage.WriteResult, error) {
	if actor.IsZero() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "voting requires an authenticated actor")
	}
	updated, result, err := c.backend.Mutate(ctx, c.entity, id, func(stored record.Record) (record.Record, error) {
		ledger := voting.FromRecord(stored)
		ledger.Toggle(actor.ID, vote)
		ledger.Apply(stored)
		return stored, nil
	})
	if err != nil {
		return nil, nil, err
	}
	c.logWrite(ctx, "vote toggled", id, result)
	return updated, result, nil
}

func (c *Client) logWrite(ctx context.Context, msg, id string, result *storage.WriteResult) {
	if c.log == nil {
		return
	}
	ctx = c.log.WithEntity(ctx, c.entity.String())
	ctx = c.log.WithBackend(ctx, c.backend.Name())
	ctx = c.log.WithField(ctx, "record_id", id)
	if result != nil && result.Durability == enums.DurabilityLocalOnly {
		ctx = c.log.WithField(ctx, "durability", result.Durability.String())
		c.log.Warn(ctx, msg+" (local only)")
		return
	}
	c.log.Debug(ctx, msg)
}

func matches(rec record.Record, predicate map[string]any) bool {
	for field, want := range predicate {
		if rec.String(field) != stringify(want) {
			return false
		}
	}
	return true
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// sortRecords orders by the named field, leading '-' for descending.
// Missing or incomparable values compare equal; ties keep their order.
func sortRecords(records []record.Record, field string) {
	descending := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")

	sort.SliceStable(records, func(i, j int) bool {
		cmp := compareValues(records[i][field], records[j][field])
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compareValues(a, b any) int {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
