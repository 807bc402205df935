package turnengine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MiddlewareFunc adapts a function to the Middleware interface.
type MiddlewareFunc func(next DispatchFunc) DispatchFunc

// Wrap invokes the underlying function.
func (f MiddlewareFunc) Wrap(next DispatchFunc) DispatchFunc {
	return f(next)
}

// LoggingMiddleware logs every dispatched event and its report.
type LoggingMiddleware struct {
	Logger *slog.Logger
}

// NewLoggingMiddleware creates a LoggingMiddleware. A nil logger falls
// back to slog.Default.
func NewLoggingMiddleware(logger *slog.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingMiddleware{Logger: logger}
}

func (m *LoggingMiddleware) Wrap(next DispatchFunc) DispatchFunc {
	return func(ctx context.Context, event Event) *DispatchReport {
		m.Logger.Info("event",
			"event_type", string(event.Type),
			"event_id", event.EventID.String(),
		)
		report := next(ctx, event)
		if report.HandlersFailed > 0 {
			m.Logger.Warn("event handlers failed",
				"event_type", string(event.Type),
				"failed", report.HandlersFailed,
			)
		}
		return report
	}
}

// TimingMiddleware measures handler processing time per event type.
type TimingMiddleware struct {
	mu      sync.Mutex
	samples map[EventType][]time.Duration
}

// NewTimingMiddleware creates a TimingMiddleware.
func NewTimingMiddleware() *TimingMiddleware {
	return &TimingMiddleware{samples: make(map[EventType][]time.Duration)}
}

func (m *TimingMiddleware) Wrap(next DispatchFunc) DispatchFunc {
	return func(ctx context.Context, event Event) *DispatchReport {
		start := time.Now()
		report := next(ctx, event)
		elapsed := time.Since(start)

		m.mu.Lock()
		m.samples[event.Type] = append(m.samples[event.Type], elapsed)
		m.mu.Unlock()

		return report
	}
}

// AverageTime returns the mean dispatch duration observed for an event
// type, and false when no samples exist.
func (m *TimingMiddleware) AverageTime(eventType EventType) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	samples := m.samples[eventType]
	if len(samples) == 0 {
		return 0, false
	}
	var total time.Duration
	for _, s := range samples {
		total += s
	}
	return total / time.Duration(len(samples)), true
}

// FilterMiddleware applies a global predicate to every dispatch.
// Vetoed events are still recorded in the event history, but no
// handler runs and the report is marked Filtered.
type FilterMiddleware struct {
	Allow Filter
}

// NewFilterMiddleware creates a FilterMiddleware.
func NewFilterMiddleware(allow Filter) *FilterMiddleware {
	return &FilterMiddleware{Allow: allow}
}

func (m *FilterMiddleware) Wrap(next DispatchFunc) DispatchFunc {
	return func(ctx context.Context, event Event) *DispatchReport {
		if m.Allow != nil && !m.Allow(event) {
			return &DispatchReport{EventID: event.EventID, Filtered: true}
		}
		return next(ctx, event)
	}
}
