package middleware

import (
	"context"

	"github.com/pricepilot/pricepilot-backend/internal/identity"
)

type contextKey string

const (
	ctxActor    contextKey = "actor"
	ctxAccessID contextKey = "access_id"
)

// ActorFromContext returns the authenticated actor, or the zero actor when
// the request carried no credentials.
func ActorFromContext(ctx context.Context) identity.Actor {
	if ctx == nil {
		return identity.Actor{}
	}
	if v, ok := ctx.Value(ctxActor).(identity.Actor); ok {
		return v
	}
	return identity.Actor{}
}

// AccessIDFromContext returns the session identifier bound to the request's
// access token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, actor identity.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}
