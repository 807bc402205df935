package turnengine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultEventHistoryCap is the default size of the dispatcher's
// bounded event history.
const DefaultEventHistoryCap = 1000

// Priority orders handler invocation. Handlers for an event type are
// always invoked in descending priority order; registration order is
// the tie-break among equal priorities.
type Priority int

const (
	PriorityLow      Priority = 1
	PriorityNormal   Priority = 2
	PriorityHigh     Priority = 3
	PriorityCritical Priority = 4
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// HandlerFunc processes a dispatched event. Handlers are awaited
// sequentially, never fanned out, so side effects of a higher-priority
// handler are visible to lower-priority ones.
type HandlerFunc func(ctx context.Context, event Event) error

// Filter decides per event whether a handler should run.
type Filter func(event Event) bool

// subscription is one registered handler with its metadata.
type subscription struct {
	id       string
	name     string
	priority Priority
	filter   Filter
	async    bool
	fn       HandlerFunc
}

// SubscribeOption configures a handler registration.
type SubscribeOption func(*subscription)

// WithPriority sets the handler priority tier. Default is PriorityNormal.
func WithPriority(p Priority) SubscribeOption {
	return func(s *subscription) { s.priority = p }
}

// WithFilter attaches a predicate; the handler is skipped when the
// predicate returns false for an event.
func WithFilter(f Filter) SubscribeOption {
	return func(s *subscription) { s.filter = f }
}

// WithHandlerName sets a debug name used in reports and handler ids.
func WithHandlerName(name string) SubscribeOption {
	return func(s *subscription) { s.name = name }
}

// HandlerFailure records one failed handler inside a dispatch.
type HandlerFailure struct {
	Handler string
	Err     error
}

// DispatchReport summarizes a single dispatch: how many handlers ran,
// how many failed, and the per-handler failures. Handler failures are
// isolated; they never abort sibling handlers or propagate to the
// caller of Dispatch.
type DispatchReport struct {
	EventID        uuid.UUID
	HandlersCalled int
	HandlersFailed int
	Failures       []HandlerFailure
	Filtered       bool
	Elapsed        time.Duration
}

// DispatchFunc is the dispatch stage a Middleware wraps.
type DispatchFunc func(ctx context.Context, event Event) *DispatchReport

// Middleware wraps dispatch with cross-cutting behavior such as
// logging, timing or global filtering. Middlewares are applied in
// registration order: the first registered is the outermost.
type Middleware interface {
	Wrap(next DispatchFunc) DispatchFunc
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithEventHistoryCap caps the bounded event history. Values below 1
// fall back to DefaultEventHistoryCap.
func WithEventHistoryCap(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxHistory = n
		}
	}
}

// WithDispatcherLogger sets the structured logger used for dispatch
// diagnostics.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// Dispatcher is a pub/sub registry keyed by event type. It delivers
// events to priority-ordered handlers, applies per-handler filters and
// a middleware chain, and retains a bounded event history.
//
// Construct one per session and pass it by reference; there is no
// ambient global instance.
type Dispatcher struct {
	mu         sync.RWMutex
	handlers   map[EventType][]*subscription
	middleware []Middleware
	history    []Event
	maxHistory int
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handlers:   make(map[EventType][]*subscription),
		maxHistory: DefaultEventHistoryCap,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe registers a synchronous handler called inline during
// dispatch. It returns a handler id usable with Unsubscribe.
func (d *Dispatcher) Subscribe(eventType EventType, fn func(event Event) error, opts ...SubscribeOption) string {
	return d.subscribe(eventType, func(_ context.Context, event Event) error {
		return fn(event)
	}, false, opts)
}

// SubscribeContext registers a context-aware handler. It is awaited
// like any other handler; the context carries cancellation and the
// dispatched event's metadata (see WithEvent).
func (d *Dispatcher) SubscribeContext(eventType EventType, fn HandlerFunc, opts ...SubscribeOption) string {
	return d.subscribe(eventType, fn, true, opts)
}

func (d *Dispatcher) subscribe(eventType EventType, fn HandlerFunc, async bool, opts []SubscribeOption) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	sub := &subscription{
		priority: PriorityNormal,
		async:    async,
		fn:       fn,
	}
	for _, opt := range opts {
		opt(sub)
	}
	if sub.name == "" {
		sub.name = fmt.Sprintf("handler-%d", len(d.handlers[eventType]))
	}
	sub.id = fmt.Sprintf("%s/%s", eventType, sub.name)

	d.handlers[eventType] = append(d.handlers[eventType], sub)

	// Stable sort keeps registration order among equal priorities.
	sort.SliceStable(d.handlers[eventType], func(i, j int) bool {
		return d.handlers[eventType][i].priority > d.handlers[eventType][j].priority
	})

	d.logger.Debug("handler subscribed",
		"event_type", string(eventType),
		"handler", sub.id,
		"priority", sub.priority.String(),
	)
	return sub.id
}

// Unsubscribe removes a handler by id. It reports whether a handler
// was removed.
func (d *Dispatcher) Unsubscribe(eventType EventType, handlerID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.handlers[eventType]
	for i, sub := range subs {
		if sub.id == handlerID {
			d.handlers[eventType] = append(subs[:i], subs[i+1:]...)
			d.logger.Debug("handler unsubscribed", "handler", handlerID)
			return true
		}
	}
	return false
}

// UnsubscribeAll removes every handler for an event type.
func (d *Dispatcher) UnsubscribeAll(eventType EventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, eventType)
}

// Use appends a middleware to the dispatch chain.
func (d *Dispatcher) Use(m Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middleware = append(d.middleware, m)
}

// Dispatch records the event into the bounded history and delivers it
// to all matching handlers in strict priority order, one at a time.
// Handler errors and panics are captured in the report and never stop
// subsequent handlers: a broken notification must not block
// persistence, nor vice versa.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) *DispatchReport {
	d.recordHistory(event)

	d.mu.RLock()
	chain := DispatchFunc(d.invoke)
	for i := len(d.middleware) - 1; i >= 0; i-- {
		chain = d.middleware[i].Wrap(chain)
	}
	d.mu.RUnlock()

	report := chain(ctx, event)

	d.logger.Debug("event dispatched",
		"event_type", string(event.Type),
		"event_id", event.EventID.String(),
		"handlers_called", report.HandlersCalled,
		"handlers_failed", report.HandlersFailed,
	)
	return report
}

// invoke is the innermost dispatch stage: it runs the matching
// handlers sequentially in priority order.
func (d *Dispatcher) invoke(ctx context.Context, event Event) *DispatchReport {
	start := now()
	report := &DispatchReport{EventID: event.EventID}

	d.mu.RLock()
	subs := make([]*subscription, len(d.handlers[event.Type]))
	copy(subs, d.handlers[event.Type])
	d.mu.RUnlock()

	ctx = WithEvent(ctx, event)

	for _, sub := range subs {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}

		if err := d.callHandler(ctx, sub, event); err != nil {
			report.HandlersFailed++
			report.Failures = append(report.Failures, HandlerFailure{Handler: sub.name, Err: err})
			d.logger.Error("event handler failed",
				"event_type", string(event.Type),
				"handler", sub.name,
				"error", err,
			)
			continue
		}
		report.HandlersCalled++
	}

	report.Elapsed = now().Sub(start)
	return report
}

func (d *Dispatcher) callHandler(ctx context.Context, sub *subscription, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler %s: %v", sub.name, r)
		}
	}()
	return sub.fn(ctx, event)
}

// EventHistory returns a defensive copy of the retained event history
// in chronological order, oldest first. A non-empty eventType filters
// by type; a positive limit keeps only the most recent entries (still
// returned oldest first).
func (d *Dispatcher) EventHistory(eventType EventType, limit int) []Event {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Event
	for _, ev := range d.history {
		if eventType != "" && ev.Type != eventType {
			continue
		}
		out = append(out, ev)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// ClearEventHistory discards the retained event history.
func (d *Dispatcher) ClearEventHistory() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = nil
}

// HandlerInfo describes one registered handler, for debugging.
type HandlerInfo struct {
	Name      string
	Priority  Priority
	Async     bool
	HasFilter bool
}

// Handlers returns the registered handlers per event type, in
// invocation order.
func (d *Dispatcher) Handlers() map[EventType][]HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[EventType][]HandlerInfo, len(d.handlers))
	for eventType, subs := range d.handlers {
		infos := make([]HandlerInfo, 0, len(subs))
		for _, sub := range subs {
			infos = append(infos, HandlerInfo{
				Name:      sub.name,
				Priority:  sub.priority,
				Async:     sub.async,
				HasFilter: sub.filter != nil,
			})
		}
		out[eventType] = infos
	}
	return out
}

func (d *Dispatcher) recordHistory(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = append(d.history, event)
	if len(d.history) > d.maxHistory {
		d.history = d.history[len(d.history)-d.maxHistory:]
	}
}
