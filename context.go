package turnengine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const (
	eventIDKey    ctxKey = "eventID"
	eventTypeKey  ctxKey = "eventType"
	occurredAtKey ctxKey = "occurredAt"
)

// WithEvent adds the identity of the dispatched event to the context,
// for handlers and decorators that want to log or trace it.
func WithEvent(ctx context.Context, event Event) context.Context {
	ctx = context.WithValue(ctx, eventIDKey, event.EventID)
	ctx = context.WithValue(ctx, eventTypeKey, event.Type)
	ctx = context.WithValue(ctx, occurredAtKey, event.OccurredAt)
	return ctx
}

// EventIDFromContext returns the dispatched event's id or uuid.Nil if
// not present.
func EventIDFromContext(ctx context.Context) uuid.UUID {
	if v := ctx.Value(eventIDKey); v != nil {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// EventTypeFromContext returns the dispatched event's type or "" if
// not present.
func EventTypeFromContext(ctx context.Context) EventType {
	if v := ctx.Value(eventTypeKey); v != nil {
		if t, ok := v.(EventType); ok {
			return t
		}
	}
	return ""
}

// OccurredAtFromContext returns the dispatched event's timestamp or
// the zero time if not present.
func OccurredAtFromContext(ctx context.Context) time.Time {
	if v := ctx.Value(occurredAtKey); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}
