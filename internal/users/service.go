package user

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pricepilot/pricepilot-backend/internal/entity"
	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{2,29}$`)

// Service exposes the community member directory and profile operations.
type Service interface {
	List(ctx context.Context) ([]record.Record, error)
	Me(ctx context.Context, actor identity.Actor) (record.Record, error)
	UpdateMe(ctx context.Context, actor identity.Actor, input UpdateInput) (record.Record, *storage.WriteResult, error)
	SetUsername(ctx context.Context, actor identity.Actor, username string) (record.Record, *storage.WriteResult, error)
}

// UpdateInput holds optional profile mutation values.
type UpdateInput struct {
	FullName *string
	Picture  *string
}

type service struct {
	records *entity.Client
}

// NewService constructs a user service instance.
func NewService(records *entity.Client) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("user entity client required")
	}
	return &service{records: records}, nil
}

// List returns every member with credential material stripped.
func (s *service) List(ctx context.Context) ([]record.Record, error) {
	records, err := s.records.List(ctx, entity.ListOptions{Sort: "full_name"})
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, len(records))
	for i, rec := range records {
		out[i] = Sanitize(rec)
	}
	return out, nil
}

func (s *service) Me(ctx context.Context, actor identity.Actor) (record.Record, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rec, err := s.records.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return Sanitize(rec), nil
}

func (s *service) UpdateMe(ctx context.Context, actor identity.Actor, input UpdateInput) (record.Record, *storage.WriteResult, error) {
	if actor.IsZero() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	partial := record.Record{}
	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "full name cannot be empty")
		}
		partial["full_name"] = name
	}
	if input.Picture != nil {
		partial["picture"] = strings.TrimSpace(*input.Picture)
	}
	updated, write, err := s.records.Update(ctx, actor.ID, partial, actor)
	if err != nil {
		return nil, nil, err
	}
	return Sanitize(updated), write, nil
}

// SetUsername claims a username, enforcing uniqueness across all members.
func (s *service) SetUsername(ctx context.Context, actor identity.Actor, username string) (record.Record, *storage.WriteResult, error) {
	if actor.IsZero() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(username) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation,
			"username must be 3-30 characters: lowercase letters, digits, '_', '.' or '-'")
	}

	taken, err := s.records.Filter(ctx, map[string]any{"username": username})
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range taken {
		if rec.ID() != actor.ID {
			return nil, nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("username %q is already taken", username))
		}
	}

	updated, write, err := s.records.Update(ctx, actor.ID, record.Record{"username": username}, actor)
	if err != nil {
		return nil, nil, err
	}
	return Sanitize(updated), write, nil
}

// Sanitize strips credential material from a user record before it leaves
// the service layer.
func Sanitize(rec record.Record) record.Record {
	if rec == nil {
		return nil
	}
	out := rec.Clone()
	delete(out, "password_hash")
	return out
}
