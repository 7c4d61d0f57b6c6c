// Package history produces the append-only audit trail carried on every
// record. Entries are immutable once appended and never truncated.
package history

import (
	"time"

	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/record"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

// Change is one field-level before/after pair inside an update entry.
type Change struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// Entry is one audit record. Create entries carry the full initial payload in
// Data; update entries carry per-field Changes.
type Entry struct {
	Action  string            `json:"action"`
	Date    string            `json:"date"`
	By      string            `json:"by,omitempty"`
	ByName  string            `json:"by_name,omitempty"`
	Data    record.Record     `json:"data,omitempty"`
	Changes map[string]Change `json:"changes,omitempty"`
}

// CreateEntry synthesizes the audit record for a freshly created payload.
// Envelope bookkeeping fields are excluded so the snapshot holds only the
// caller-supplied data.
func CreateEntry(actor identity.Actor, data record.Record, now time.Time) Entry {
	snapshot := make(record.Record, len(data))
	for k, v := range data {
		if isEnvelopeField(k) {
			continue
		}
		snapshot[k] = v
	}
	return Entry{
		Action: ActionCreate,
		Date:   now.UTC().Format(time.RFC3339),
		By:     actor.ID,
		ByName: actor.DisplayName,
		Data:   snapshot,
	}
}

// UpdateEntry synthesizes the audit record for one update holding every
// changed field.
func UpdateEntry(actor identity.Actor, changes map[string]Change, now time.Time) Entry {
	return Entry{
		Action:  ActionUpdate,
		Date:    now.UTC().Format(time.RFC3339),
		By:      actor.ID,
		ByName:  actor.DisplayName,
		Changes: changes,
	}
}

// Diff reports the fields of partial whose deep-serialized value differs from
// the stored record. Envelope bookkeeping fields never diff.
func Diff(stored, partial record.Record) map[string]Change {
	changes := make(map[string]Change)
	for field, after := range partial {
		if isEnvelopeField(field) {
			continue
		}
		before, existed := stored[field]
		if existed && record.EqualValue(before, after) {
			continue
		}
		if !existed && after == nil {
			continue
		}
		changes[field] = Change{Before: before, After: after}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

func isEnvelopeField(field string) bool {
	switch field {
	case record.FieldID, record.FieldCreatedDate, record.FieldUpdatedDate,
		record.FieldCreatedBy, record.FieldCreatedByName,
		record.FieldUpdatedBy, record.FieldUpdatedByName,
		record.FieldLikes, record.FieldDislikes, record.FieldEditHistory:
		return true
	}
	return false
}
