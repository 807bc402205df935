package turnengine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
)

// Outcome is the uniform result bag returned by session operations.
type Outcome struct {
	Success  bool
	Message  string
	CanUndo  bool
	CanRedo  bool
	Effects  *Effects
	Data     map[string]any
	Warnings []string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithStore sets the persistence collaborator. Without a store the
// session keeps state purely in memory.
func WithStore(store Store) SessionOption {
	return func(s *Session) { s.store = store }
}

// WithLogger sets the structured logger for the session.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithExecutor replaces the session's command executor.
func WithExecutor(executor *Executor) SessionOption {
	return func(s *Session) { s.executor = executor }
}

// WithDispatcher replaces the session's event dispatcher.
func WithDispatcher(dispatcher *Dispatcher) SessionOption {
	return func(s *Session) { s.dispatcher = dispatcher }
}

// WithRetryStrategy sets the backoff strategy used for best-effort
// persistence. The factory is invoked per save so strategies are
// never reused across attempts. Default is no retries.
func WithRetryStrategy(factory func() backoff.BackOff) SessionOption {
	return func(s *Session) { s.retry = factory }
}

// Session composes the executor, dispatcher, rule oracle and store
// into the user-visible operations: make move, undo, redo. It owns the
// single mutable aggregate; all mutation flows through its executor,
// one command to completion at a time. Construct one per game session
// and inject it where needed; there is no ambient global instance.
type Session struct {
	agg        Aggregate
	oracle     RuleOracle
	executor   *Executor
	dispatcher *Dispatcher
	store      Store
	logger     *slog.Logger
	retry      func() backoff.BackOff
}

// NewSession creates a session around the given aggregate and oracle.
func NewSession(agg Aggregate, oracle RuleOracle, opts ...SessionOption) *Session {
	s := &Session{
		agg:    agg,
		oracle: oracle,
		logger: slog.Default(),
		retry:  func() backoff.BackOff { return &backoff.StopBackOff{} },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.executor == nil {
		s.executor = NewExecutor()
	}
	if s.dispatcher == nil {
		s.dispatcher = NewDispatcher(WithDispatcherLogger(s.logger))
	}
	return s
}

// Dispatcher returns the session's dispatcher, the registration point
// for observers.
func (s *Session) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Executor returns the session's command executor.
func (s *Session) Executor() *Executor {
	return s.executor
}

// Aggregate returns the session's aggregate.
func (s *Session) Aggregate() Aggregate {
	return s.agg
}

// Start announces the session to observers with a game.started event.
func (s *Session) Start(ctx context.Context) *DispatchReport {
	return s.dispatcher.Dispatch(ctx, NewEvent(EventGameStarted, map[string]any{
		"aggregate_id": s.agg.AggregateID(),
	}))
}

// MakeMove turns a move request into a validated, reversible state
// transition. On success the corresponding events are dispatched and
// the new state is persisted best-effort: a persistence failure is
// logged and surfaced as a warning, never rolled back. The in-memory
// move is the user-visible truth.
func (s *Session) MakeMove(ctx context.Context, move Move) Outcome {
	if s.agg.Terminal() {
		return s.failure("cannot make move: game has ended")
	}

	cmd := NewMoveCommand(s.agg, s.oracle, move)
	result := s.executor.Execute(ctx, cmd)
	if !result.Success {
		s.logger.Info("move rejected",
			"aggregate_id", s.agg.AggregateID(),
			"move", cmd.Describe(),
			"reason", result.Message,
		)
		return s.failure(result.Message)
	}

	s.logger.Info("move executed",
		"aggregate_id", s.agg.AggregateID(),
		"move", cmd.Describe(),
	)

	effects := cmd.Effects()
	s.dispatcher.Dispatch(ctx, NewEvent(EventMoveMade, moveEventData(s.agg.AggregateID(), move, effects)))
	s.dispatchDerived(ctx, effects)

	warnings := s.persist(ctx)

	return Outcome{
		Success:  true,
		Message:  result.Message,
		CanUndo:  s.executor.CanUndo(),
		CanRedo:  s.executor.CanRedo(),
		Effects:  effects,
		Data:     result.Data,
		Warnings: warnings,
	}
}

// Undo reverses the most recent move. When nothing can be undone it
// returns a failure outcome with a fixed message rather than an error.
func (s *Session) Undo(ctx context.Context) Outcome {
	result := s.executor.Undo(ctx)
	if result == nil {
		return s.failure("no move to undo")
	}
	if !result.Success {
		return s.failure(result.Message)
	}

	s.logger.Info("move undone", "aggregate_id", s.agg.AggregateID())

	data := resultEventData(s.agg.AggregateID(), result)
	s.dispatcher.Dispatch(ctx, NewEvent(EventMoveUndone, data))

	warnings := s.persist(ctx)

	return Outcome{
		Success:  true,
		Message:  result.Message,
		CanUndo:  s.executor.CanUndo(),
		CanRedo:  s.executor.CanRedo(),
		Data:     result.Data,
		Warnings: warnings,
	}
}

// Redo re-applies the most recently undone move. When nothing can be
// redone it returns a failure outcome with a fixed message.
func (s *Session) Redo(ctx context.Context) Outcome {
	result := s.executor.Redo(ctx)
	if result == nil {
		return s.failure("no move to redo")
	}
	if !result.Success {
		return s.failure(result.Message)
	}

	s.logger.Info("move redone", "aggregate_id", s.agg.AggregateID())

	data := resultEventData(s.agg.AggregateID(), result)
	s.dispatcher.Dispatch(ctx, NewEvent(EventMoveRedone, data))

	warnings := s.persist(ctx)

	return Outcome{
		Success:  true,
		Message:  result.Message,
		CanUndo:  s.executor.CanUndo(),
		CanRedo:  s.executor.CanRedo(),
		Data:     result.Data,
		Warnings: warnings,
	}
}

// Restore loads the last persisted state into the aggregate. The
// command history does not survive a restore; the timeline starts
// fresh.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("no store configured")
	}
	state, err := s.store.Load(ctx, s.agg.AggregateID())
	if err != nil {
		return err
	}
	if err := s.agg.Restore(state); err != nil {
		return fmt.Errorf("restore aggregate %q: %w", s.agg.AggregateID(), err)
	}
	s.executor.ClearHistory()
	return nil
}

// dispatchDerived emits the state-change events implied by the
// oracle's reported side effects.
func (s *Session) dispatchDerived(ctx context.Context, effects *Effects) {
	if effects == nil {
		return
	}

	aggID := s.agg.AggregateID()

	if effects.Check && !effects.Checkmate {
		s.dispatcher.Dispatch(ctx, NewEvent(EventCheckDetected, map[string]any{"aggregate_id": aggID}))
	}

	switch {
	case effects.Checkmate:
		s.dispatcher.Dispatch(ctx, NewEvent(EventCheckmateDetected, map[string]any{"aggregate_id": aggID}))
		s.dispatcher.Dispatch(ctx, NewEvent(EventGameEnded, map[string]any{
			"aggregate_id": aggID,
			"reason":       "checkmate",
			"winner":       effects.Winner,
		}))
	case effects.Stalemate:
		s.dispatcher.Dispatch(ctx, NewEvent(EventStalemateDetected, map[string]any{"aggregate_id": aggID}))
		s.dispatcher.Dispatch(ctx, NewEvent(EventGameEnded, map[string]any{
			"aggregate_id": aggID,
			"reason":       "stalemate",
		}))
	case effects.Draw:
		s.dispatcher.Dispatch(ctx, NewEvent(EventDrawDetected, map[string]any{"aggregate_id": aggID}))
		s.dispatcher.Dispatch(ctx, NewEvent(EventGameEnded, map[string]any{
			"aggregate_id": aggID,
			"reason":       "draw",
		}))
	default:
		s.dispatcher.Dispatch(ctx, NewEvent(EventTurnChanged, map[string]any{"aggregate_id": aggID}))
	}
}

// persist saves the aggregate state best-effort, after the in-memory
// transition and its events have both completed. Observers never see a
// saved state that does not match the last dispatched event.
func (s *Session) persist(ctx context.Context) []string {
	if s.store == nil {
		return nil
	}

	state, err := s.agg.Snapshot()
	if err != nil {
		s.logger.Warn("state snapshot failed",
			"aggregate_id", s.agg.AggregateID(),
			"error", err,
		)
		return []string{fmt.Sprintf("state not saved: %v", err)}
	}

	save := func() error {
		return s.store.Save(ctx, s.agg.AggregateID(), state)
	}
	if err := backoff.Retry(save, backoff.WithContext(s.retry(), ctx)); err != nil {
		s.logger.Warn("state save failed",
			"aggregate_id", s.agg.AggregateID(),
			"error", err,
		)
		return []string{fmt.Sprintf("state not saved: %v", err)}
	}
	return nil
}

func (s *Session) failure(message string) Outcome {
	return Outcome{
		Success: false,
		Message: message,
		CanUndo: s.executor.CanUndo(),
		CanRedo: s.executor.CanRedo(),
	}
}

func moveEventData(aggregateID string, move Move, effects *Effects) map[string]any {
	data := map[string]any{
		"aggregate_id": aggregateID,
		"from":         move.From,
		"to":           move.To,
	}
	if move.Promotion != "" {
		data["promotion"] = move.Promotion
	}
	if effects != nil {
		if effects.Notation != "" {
			data["notation"] = effects.Notation
		}
		if effects.Captured != "" {
			data["captured"] = effects.Captured
		}
		data["check"] = effects.Check
		data["checkmate"] = effects.Checkmate
	}
	return data
}

func resultEventData(aggregateID string, result *Result) map[string]any {
	data := map[string]any{"aggregate_id": aggregateID}
	for k, v := range result.Data {
		data[k] = v
	}
	return data
}
