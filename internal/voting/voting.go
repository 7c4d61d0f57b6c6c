// Package voting maintains the like/dislike ledger carried on every record.
// Internally one map from actor id to vote keeps membership mutually
// exclusive by construction; on the wire the ledger remains the two ordered
// likes/dislikes arrays.
package voting

import (
	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
)

// Ledger holds every actor's current stance on one record, preserving first
// vote order so the serialized arrays stay stable across toggles by others.
type Ledger struct {
	order []string
	votes map[string]enums.Vote
}

// FromRecord reads the likes/dislikes arrays off a record. An actor
// appearing in both arrays resolves to the like, matching the structural
// mutual exclusion the ledger enforces on write.
func FromRecord(rec record.Record) *Ledger {
	l := &Ledger{votes: make(map[string]enums.Vote)}
	for _, id := range stringSlice(rec[record.FieldLikes]) {
		l.set(id, enums.VoteLike)
	}
	for _, id := range stringSlice(rec[record.FieldDislikes]) {
		if _, taken := l.votes[id]; !taken {
			l.set(id, enums.VoteDislike)
		}
	}
	return l
}

// Toggle flips the actor's membership for the given vote: a matching current
// vote is withdrawn, any other state becomes the given vote. The opposite
// vote is displaced implicitly.
func (l *Ledger) Toggle(actorID string, vote enums.Vote) {
	if actorID == "" {
		return
	}
	if current, ok := l.votes[actorID]; ok && current == vote {
		l.remove(actorID)
		return
	}
	l.set(actorID, vote)
}

// Vote returns the actor's current stance, if any.
func (l *Ledger) Vote(actorID string) (enums.Vote, bool) {
	v, ok := l.votes[actorID]
	return v, ok
}

// Likes returns the actor ids currently voting like, in first-vote order.
func (l *Ledger) Likes() []string {
	return l.collect(enums.VoteLike)
}

// Dislikes returns the actor ids currently voting dislike, in first-vote order.
func (l *Ledger) Dislikes() []string {
	return l.collect(enums.VoteDislike)
}

// Apply writes the ledger back onto the record as the two wire arrays.
func (l *Ledger) Apply(rec record.Record) {
	rec[record.FieldLikes] = toAny(l.Likes())
	rec[record.FieldDislikes] = toAny(l.Dislikes())
}

func (l *Ledger) set(actorID string, vote enums.Vote) {
	if _, ok := l.votes[actorID]; !ok {
		l.order = append(l.order, actorID)
	}
	l.votes[actorID] = vote
}

func (l *Ledger) remove(actorID string) {
	delete(l.votes, actorID)
	for i, id := range l.order {
		if id == actorID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}

func (l *Ledger) collect(vote enums.Vote) []string {
	out := []string{}
	for _, id := range l.order {
		if l.votes[id] == vote {
			out = append(out, id)
		}
	}
	return out
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
