package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pricepilot/pricepilot-backend/internal/identity"
)

// Envelope field names shared by every collection.
const (
	FieldID            = "id"
	FieldCreatedDate   = "created_date"
	FieldUpdatedDate   = "updated_date"
	FieldCreatedBy     = "created_by"
	FieldCreatedByName = "created_by_name"
	FieldUpdatedBy     = "updated_by"
	FieldUpdatedByName = "updated_by_name"
	FieldLikes         = "likes"
	FieldDislikes      = "dislikes"
	FieldEditHistory   = "edit_history"
)

// Record is one stored document: the shared envelope plus entity-specific
// fields, kept schemaless so all five collections flow through one path.
type Record map[string]any

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// ID returns the record identifier, or "" when unset.
func (r Record) ID() string {
	return r.String(FieldID)
}

// String returns the named field coerced to a string. Missing and nil fields
// return "".
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Clone deep-copies the record through a JSON round trip so callers can
// mutate the copy without aliasing stored state.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		out := make(Record, len(r))
		for k, v := range r {
			out[k] = v
		}
		return out
	}
	var out Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return r
	}
	return out
}

// StampCreate assigns the identifier, timestamps and authorship metadata for
// a freshly created record.
func (r Record) StampCreate(actor identity.Actor, now time.Time) {
	ts := now.UTC().Format(time.RFC3339)
	r[FieldID] = NewID()
	r[FieldCreatedDate] = ts
	r[FieldUpdatedDate] = ts
	r[FieldCreatedBy] = nullableID(actor)
	r[FieldCreatedByName] = actor.DisplayName
	r[FieldUpdatedBy] = nullableID(actor)
	r[FieldUpdatedByName] = actor.DisplayName
	if _, ok := r[FieldLikes]; !ok {
		r[FieldLikes] = []any{}
	}
	if _, ok := r[FieldDislikes]; !ok {
		r[FieldDislikes] = []any{}
	}
	if _, ok := r[FieldEditHistory]; !ok {
		r[FieldEditHistory] = []any{}
	}
}

// StampUpdate refreshes the update timestamp and authorship metadata.
func (r Record) StampUpdate(actor identity.Actor, now time.Time) {
	r[FieldUpdatedDate] = now.UTC().Format(time.RFC3339)
	r[FieldUpdatedBy] = nullableID(actor)
	r[FieldUpdatedByName] = actor.DisplayName
}

func nullableID(actor identity.Actor) any {
	if actor.IsZero() {
		return nil
	}
	return actor.ID
}

// Merge copies every field of partial into the record, overwriting existing
// values. Envelope bookkeeping fields are skipped so callers cannot forge
// timestamps, authorship, votes or history through an update payload.
func (r Record) Merge(partial Record) {
	for k, v := range partial {
		switch k {
		case FieldID, FieldCreatedDate, FieldUpdatedDate,
			FieldCreatedBy, FieldCreatedByName, FieldUpdatedBy, FieldUpdatedByName,
			FieldLikes, FieldDislikes, FieldEditHistory:
			continue
		}
		r[k] = v
	}
}

// AppendHistory appends one audit entry, converting it to its JSON shape so
// stored history reads back identically regardless of backend.
func (r Record) AppendHistory(entry any) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode history entry: %w", err)
	}
	existing, _ := r[FieldEditHistory].([]any)
	r[FieldEditHistory] = append(existing, decoded)
	return nil
}

// HistoryLen returns the number of audit entries on the record.
func (r Record) HistoryLen() int {
	entries, _ := r[FieldEditHistory].([]any)
	return len(entries)
}

// EqualValue reports whether two field values have identical deep-serialized
// representations. Semantically equal values serialized differently compare
// unequal, which is acceptable for diffing purposes.
func EqualValue(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ra) == string(rb)
}
