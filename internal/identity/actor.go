package identity

import "strings"

// Actor is the normalized author of a mutating operation. Callers resolve it
// once at the API boundary; storage and history logic never see raw claim or
// string shapes.
type Actor struct {
	ID          string
	DisplayName string
}

// FromID builds an Actor from a bare identifier with no display name.
func FromID(id string) Actor {
	return Actor{ID: strings.TrimSpace(id)}
}

// New builds an Actor from an identifier and display name.
func New(id, displayName string) Actor {
	return Actor{ID: strings.TrimSpace(id), DisplayName: strings.TrimSpace(displayName)}
}

// IsZero reports whether no identity was resolved.
func (a Actor) IsZero() bool {
	return a.ID == ""
}
