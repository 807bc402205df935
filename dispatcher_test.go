package turnengine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func appendName(trace *[]string, name string) func(event Event) error {
	return func(Event) error {
		*trace = append(*trace, name)
		return nil
	}
}

type traceMiddleware struct {
	name  string
	trace *[]string
}

func (m *traceMiddleware) Wrap(next DispatchFunc) DispatchFunc {
	return func(ctx context.Context, event Event) *DispatchReport {
		*m.trace = append(*m.trace, m.name+" before")
		report := next(ctx, event)
		*m.trace = append(*m.trace, m.name+" after")
		return report
	}
}

func TestDispatchPriorityOrder(t *testing.T) {
	dispatcher := NewDispatcher()
	var trace []string

	dispatcher.Subscribe(EventMoveMade, appendName(&trace, "C"), WithPriority(PriorityLow))
	dispatcher.Subscribe(EventMoveMade, appendName(&trace, "A"), WithPriority(PriorityCritical))
	dispatcher.Subscribe(EventMoveMade, appendName(&trace, "B"), WithPriority(PriorityNormal))

	dispatcher.Dispatch(context.Background(), NewEvent(EventMoveMade, nil))

	if strings.Join(trace, ",") != "A,B,C" {
		t.Fatalf("expected priority order A,B,C, got %v", trace)
	}
}

func TestDispatchRegistrationOrderBreaksTies(t *testing.T) {
	dispatcher := NewDispatcher()
	var trace []string

	for _, name := range []string{"first", "second", "third"} {
		dispatcher.Subscribe(EventMoveMade, appendName(&trace, name))
	}

	dispatcher.Dispatch(context.Background(), NewEvent(EventMoveMade, nil))

	if strings.Join(trace, ",") != "first,second,third" {
		t.Fatalf("expected registration order among equal priorities, got %v", trace)
	}
}

func TestDispatchReportCounts(t *testing.T) {
	dispatcher := NewDispatcher()
	var trace []string

	dispatcher.Subscribe(EventMoveMade, appendName(&trace, "H1"), WithPriority(PriorityHigh))
	dispatcher.Subscribe(EventMoveMade, appendName(&trace, "H2"), WithPriority(PriorityLow))

	event := NewEvent(EventMoveMade, nil)
	report := dispatcher.Dispatch(context.Background(), event)

	if strings.Join(trace, ",") != "H1,H2" {
		t.Fatalf("expected call order H1,H2, got %v", trace)
	}
	if report.HandlersCalled != 2 || report.HandlersFailed != 0 {
		t.Fatalf("unexpected counts: called=%d failed=%d", report.HandlersCalled, report.HandlersFailed)
	}
	if report.EventID != event.EventID {
		t.Fatalf("report must carry the event id")
	}
}

func TestDispatchIsolatesHandlerFailures(t *testing.T) {
	dispatcher := NewDispatcher()
	var trace []string

	dispatcher.Subscribe(EventMoveMade, appendName(&trace, "ok-1"),
		WithPriority(PriorityHigh), WithHandlerName("ok-1"))
	dispatcher.Subscribe(EventMoveMade, func(Event) error {
		trace = append(trace, "broken")
		return errors.New("notification backend down")
	}, WithPriority(PriorityHigh), WithHandlerName("broken"))
	dispatcher.Subscribe(EventMoveMade, func(Event) error {
		trace = append(trace, "panicky")
		panic("nil board")
	}, WithHandlerName("panicky"))
	dispatcher.Subscribe(EventMoveMade, appendName(&trace, "ok-2"),
		WithPriority(PriorityLow), WithHandlerName("ok-2"))

	report := dispatcher.Dispatch(context.Background(), NewEvent(EventMoveMade, nil))

	if strings.Join(trace, ",") != "ok-1,broken,panicky,ok-2" {
		t.Fatalf("failures must not stop later handlers, got %v", trace)
	}
	if report.HandlersCalled != 2 || report.HandlersFailed != 2 {
		t.Fatalf("unexpected counts: called=%d failed=%d", report.HandlersCalled, report.HandlersFailed)
	}
	if len(report.Failures) != 2 {
		t.Fatalf("expected 2 recorded failures, got %d", len(report.Failures))
	}
	if report.Failures[0].Handler != "broken" || report.Failures[1].Handler != "panicky" {
		t.Fatalf("unexpected failure handlers: %+v", report.Failures)
	}
	if !strings.Contains(report.Failures[1].Err.Error(), "panic in handler") {
		t.Fatalf("expected recovered panic in error, got %v", report.Failures[1].Err)
	}
}

func TestSubscribeWithFilter(t *testing.T) {
	dispatcher := NewDispatcher()
	var seen []string

	dispatcher.Subscribe(EventMoveMade, func(event Event) error {
		seen = append(seen, event.Data["player"].(string))
		return nil
	}, WithFilter(func(event Event) bool {
		return event.Data["player"] == "white"
	}))

	dispatcher.Dispatch(context.Background(), NewEvent(EventMoveMade, map[string]any{"player": "white"}))
	report := dispatcher.Dispatch(context.Background(), NewEvent(EventMoveMade, map[string]any{"player": "black"}))

	if strings.Join(seen, ",") != "white" {
		t.Fatalf("filter must skip non-matching events, saw %v", seen)
	}
	if report.HandlersCalled != 0 {
		t.Fatalf("skipped handler must not be counted, called=%d", report.HandlersCalled)
	}
}

func TestUnsubscribe(t *testing.T) {
	dispatcher := NewDispatcher()
	var calls int

	id := dispatcher.Subscribe(EventMoveMade, func(Event) error {
		calls++
		return nil
	}, WithHandlerName("audit"))

	if id != "move.made/audit" {
		t.Fatalf("unexpected handler id: %q", id)
	}
	if !dispatcher.Unsubscribe(EventMoveMade, id) {
		t.Fatalf("expected unsubscribe to succeed")
	}
	if dispatcher.Unsubscribe(EventMoveMade, id) {
		t.Fatalf("second unsubscribe must report false")
	}

	dispatcher.Dispatch(context.Background(), NewEvent(EventMoveMade, nil))
	if calls != 0 {
		t.Fatalf("unsubscribed handler must not run")
	}
}

func TestUnsubscribeAll(t *testing.T) {
	dispatcher := NewDispatcher()
	var calls int
	fn := func(Event) error { calls++; return nil }

	dispatcher.Subscribe(EventMoveMade, fn)
	dispatcher.Subscribe(EventMoveMade, fn, WithPriority(PriorityHigh))
	dispatcher.Subscribe(EventMoveUndone, fn)

	dispatcher.UnsubscribeAll(EventMoveMade)

	dispatcher.Dispatch(context.Background(), NewEvent(EventMoveMade, nil))
	dispatcher.Dispatch(context.Background(), NewEvent(EventMoveUndone, nil))

	if calls != 1 {
		t.Fatalf("expected only the move.undone handler to run, got %d calls", calls)
	}
}

func TestEventHistory(t *testing.T) {
	dispatcher := NewDispatcher()
	ctx := context.Background()

	first := NewEvent(EventGameStarted, nil)
	dispatcher.Dispatch(ctx, first)
	dispatcher.Dispatch(ctx, NewEvent(EventMoveMade, map[string]any{"n": 1}))
	dispatcher.Dispatch(ctx, NewEvent(EventMoveMade, map[string]any{"n": 2}))

	all := dispatcher.EventHistory("", 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].EventID != first.EventID {
		t.Fatalf("history must be oldest first")
	}

	moves := dispatcher.EventHistory(EventMoveMade, 0)
	if len(moves) != 2 {
		t.Fatalf("expected 2 move events, got %d", len(moves))
	}

	limited := dispatcher.EventHistory("", 2)
	if len(limited) != 2 || limited[0].Type != EventMoveMade {
		t.Fatalf("limit must keep the most recent events, got %v", limited)
	}
}

func TestEventHistoryEvictsOldestBeyondCap(t *testing.T) {
	dispatcher := NewDispatcher(WithEventHistoryCap(2))
	ctx := context.Background()

	dispatcher.Dispatch(ctx, NewEvent(EventGameStarted, nil))
	second := NewEvent(EventMoveMade, nil)
	third := NewEvent(EventTurnChanged, nil)
	dispatcher.Dispatch(ctx, second)
	dispatcher.Dispatch(ctx, third)

	history := dispatcher.EventHistory("", 0)
	if len(history) != 2 {
		t.Fatalf("expected history capped at 2, got %d", len(history))
	}
	if history[0].EventID != second.EventID || history[1].EventID != third.EventID {
		t.Fatalf("expected oldest event evicted")
	}
}

func TestEventHistoryRecordsEventsWithoutHandlers(t *testing.T) {
	dispatcher := NewDispatcher()

	report := dispatcher.Dispatch(context.Background(), NewEvent(EventDrawDetected, nil))

	if report.HandlersCalled != 0 {
		t.Fatalf("no handlers expected, called=%d", report.HandlersCalled)
	}
	if len(dispatcher.EventHistory(EventDrawDetected, 0)) != 1 {
		t.Fatalf("unhandled events must still enter the history")
	}
}

func TestMiddlewareChainOrder(t *testing.T) {
	dispatcher := NewDispatcher()
	var trace []string

	dispatcher.Use(&traceMiddleware{name: "outer", trace: &trace})
	dispatcher.Use(&traceMiddleware{name: "inner", trace: &trace})
	dispatcher.Subscribe(EventMoveMade, appendName(&trace, "handler"))

	dispatcher.Dispatch(context.Background(), NewEvent(EventMoveMade, nil))

	want := "outer before,inner before,handler,inner after,outer after"
	if strings.Join(trace, ",") != want {
		t.Fatalf("unexpected middleware order: %v", trace)
	}
}

func TestSubscribeContextCarriesEventMetadata(t *testing.T) {
	dispatcher := NewDispatcher()
	var gotID uuid.UUID
	var gotType EventType

	dispatcher.SubscribeContext(EventMoveMade, func(ctx context.Context, event Event) error {
		gotID = EventIDFromContext(ctx)
		gotType = EventTypeFromContext(ctx)
		return nil
	})

	event := NewEvent(EventMoveMade, nil)
	dispatcher.Dispatch(context.Background(), event)

	if gotID != event.EventID || gotType != EventMoveMade {
		t.Fatalf("context must carry event metadata, got id=%s type=%s", gotID, gotType)
	}
}

func TestHandlersIntrospection(t *testing.T) {
	dispatcher := NewDispatcher()

	dispatcher.Subscribe(EventMoveMade, func(Event) error { return nil },
		WithHandlerName("ui"), WithPriority(PriorityLow))
	dispatcher.SubscribeContext(EventMoveMade, func(context.Context, Event) error { return nil },
		WithHandlerName("journal"), WithPriority(PriorityCritical),
		WithFilter(func(Event) bool { return true }))

	infos := dispatcher.Handlers()[EventMoveMade]
	if len(infos) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(infos))
	}
	// Invocation order: journal (critical) before ui (low).
	if infos[0].Name != "journal" || !infos[0].Async || !infos[0].HasFilter {
		t.Fatalf("unexpected first handler: %+v", infos[0])
	}
	if infos[1].Name != "ui" || infos[1].Async || infos[1].HasFilter {
		t.Fatalf("unexpected second handler: %+v", infos[1])
	}
}

func TestDefaultHandlerNames(t *testing.T) {
	dispatcher := NewDispatcher()

	first := dispatcher.Subscribe(EventMoveMade, func(Event) error { return nil })
	second := dispatcher.Subscribe(EventMoveMade, func(Event) error { return nil })

	if first != "move.made/handler-0" || second != "move.made/handler-1" {
		t.Fatalf("unexpected handler ids: %q, %q", first, second)
	}
}
