package turnengine

import (
	"context"
	"fmt"
)

// Query is the interface implemented by all read-side queries.
type Query interface {
	QueryName() string
}

// QueryHandler handles a specific query type T and produces a result
// of type R.
type QueryHandler[T Query, R any] interface {
	HandleQuery(ctx context.Context, qry T) (R, error)
}

// queryHandlerFunc adapts an ordinary function to QueryHandler[T,R].
type queryHandlerFunc[T Query, R any] func(ctx context.Context, qry T) (R, error)

func (f queryHandlerFunc[T, R]) HandleQuery(ctx context.Context, qry T) (R, error) {
	return f(ctx, qry)
}

// NewQueryHandlerFunc creates a QueryHandler from a function.
func NewQueryHandlerFunc[T Query, R any](fn func(ctx context.Context, qry T) (R, error)) QueryHandler[T, R] {
	return queryHandlerFunc[T, R](fn)
}

// QueryBus is a registry of query handlers keyed by query and result
// types. Handlers are executed through a typed QueryGateway.
//
// Example Usage:
//
//	bus := NewQueryBus()
//	RegisterQueryHandler(bus, NewQueryHandlerFunc(func(ctx context.Context, q GameStatusQuery) (*GameStatus, error) {
//	    ...
//	}))
//	gateway := NewQueryGateway[GameStatusQuery, *GameStatus](bus)
//	status, err := gateway.HandleQuery(ctx, GameStatusQuery{})
type QueryBus struct {
	handlers map[string]any
}

// NewQueryBus creates an empty QueryBus.
func NewQueryBus() *QueryBus {
	return &QueryBus{handlers: make(map[string]any)}
}

// RegisterQueryHandler registers a handler for a specific query and
// result type. Panics if a handler is already registered for the pair.
func RegisterQueryHandler[T Query, R any](bus *QueryBus, handler QueryHandler[T, R]) {
	key := fmt.Sprintf("%T|%T", *new(T), *new(R))
	if _, exists := bus.handlers[key]; exists {
		panic(fmt.Sprintf("handler already registered for query %s", key))
	}
	bus.handlers[key] = handler
}

// QueryGateway is a typed facade over a QueryBus for one query/result
// pair.
type QueryGateway[T Query, R any] struct {
	bus *QueryBus
}

// NewQueryGateway creates a typed gateway backed by bus.
func NewQueryGateway[T Query, R any](bus *QueryBus) QueryGateway[T, R] {
	return QueryGateway[T, R]{bus: bus}
}

// HandleQuery executes the registered handler for the query.
func (g QueryGateway[T, R]) HandleQuery(ctx context.Context, qry T) (R, error) {
	key := fmt.Sprintf("%T|%T", qry, *new(R))

	h, ok := g.bus.handlers[key]
	if !ok {
		var zero R
		return zero, fmt.Errorf("no handler registered for query %T -> %T", qry, *new(R))
	}

	handler, ok := h.(QueryHandler[T, R])
	if !ok {
		var zero R
		return zero, fmt.Errorf("handler type mismatch for query %T -> %T", qry, *new(R))
	}

	return handler.HandleQuery(ctx, qry)
}

// GameStatusQuery asks for the current status flags of a session.
type GameStatusQuery struct{}

func (GameStatusQuery) QueryName() string { return "game.status" }

// GameStatus is the read model answering a GameStatusQuery.
type GameStatus struct {
	AggregateID string
	Terminal    bool
	CanUndo     bool
	CanRedo     bool
	Moves       int
}

// CommandHistoryQuery asks for recent command descriptions, oldest
// first. A zero Limit returns the full retained history.
type CommandHistoryQuery struct {
	Limit int
}

func (CommandHistoryQuery) QueryName() string { return "command.history" }

// EventHistoryQuery asks for recent events from the dispatcher's
// bounded history, oldest first.
type EventHistoryQuery struct {
	Type  EventType
	Limit int
}

func (EventHistoryQuery) QueryName() string { return "event.history" }

// RegisterSessionQueries registers the stock read-side handlers for a
// session on the given bus.
func RegisterSessionQueries(bus *QueryBus, session *Session) {
	RegisterQueryHandler(bus, NewQueryHandlerFunc(func(ctx context.Context, qry GameStatusQuery) (*GameStatus, error) {
		return &GameStatus{
			AggregateID: session.Aggregate().AggregateID(),
			Terminal:    session.Aggregate().Terminal(),
			CanUndo:     session.Executor().CanUndo(),
			CanRedo:     session.Executor().CanRedo(),
			Moves:       len(session.Executor().History()),
		}, nil
	}))

	RegisterQueryHandler(bus, NewQueryHandlerFunc(func(ctx context.Context, qry CommandHistoryQuery) ([]string, error) {
		history := session.Executor().History()
		if qry.Limit > 0 && len(history) > qry.Limit {
			history = history[len(history)-qry.Limit:]
		}
		out := make([]string, 0, len(history))
		for _, cmd := range history {
			out = append(out, cmd.Describe())
		}
		return out, nil
	}))

	RegisterQueryHandler(bus, NewQueryHandlerFunc(func(ctx context.Context, qry EventHistoryQuery) ([]Event, error) {
		return session.Dispatcher().EventHistory(qry.Type, qry.Limit), nil
	}))
}
