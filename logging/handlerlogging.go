package logging

import (
	"context"
	"log/slog"

	"github.com/terraskye/turnengine"
)

// WithHandlerLogging wraps an event handler with structured logging of
// the dispatched event's identity and outcome.
func WithHandlerLogging(logger *slog.Logger, next turnengine.HandlerFunc) turnengine.HandlerFunc {
	return func(ctx context.Context, event turnengine.Event) error {
		l := logger.With(
			"event-id", turnengine.EventIDFromContext(ctx).String(),
			"event-type", string(event.Type),
		)

		l.DebugContext(ctx, "event processing started")

		err := next(ctx, event)

		if err != nil {
			l.ErrorContext(ctx, "error processing event", "error", err)
		} else {
			l.DebugContext(ctx, "event processed successfully")
		}

		return err
	}
}
