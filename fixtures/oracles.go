package fixtures

import (
	"context"
	"fmt"
	"strconv"

	"github.com/terraskye/turnengine"
)

// StubOracle is a scripted rule oracle. It returns the configured
// ruling and effects without touching the aggregate, and records every
// applied move.
type StubOracle struct {
	Ruling    turnengine.Ruling
	RulingErr error
	Effects   turnengine.Effects
	ApplyErr  error

	Validated []turnengine.Move
	Applied   []turnengine.Move
}

// NewStubOracle creates a StubOracle that accepts every move.
func NewStubOracle() *StubOracle {
	return &StubOracle{Ruling: turnengine.Ruling{Legal: true}}
}

func (o *StubOracle) Validate(ctx context.Context, agg turnengine.Aggregate, move turnengine.Move) (turnengine.Ruling, error) {
	o.Validated = append(o.Validated, move)
	return o.Ruling, o.RulingErr
}

func (o *StubOracle) Apply(ctx context.Context, agg turnengine.Aggregate, move turnengine.Move) (turnengine.Effects, error) {
	if o.ApplyErr != nil {
		return turnengine.Effects{}, o.ApplyErr
	}
	o.Applied = append(o.Applied, move)
	return o.Effects, nil
}

// WalkOracle is the rule oracle for CounterAggregate: a move is legal
// when its To field names the next position on the line. Reaching the
// goal wins the game.
type WalkOracle struct{}

func (WalkOracle) Validate(ctx context.Context, agg turnengine.Aggregate, move turnengine.Move) (turnengine.Ruling, error) {
	counter, ok := agg.(*CounterAggregate)
	if !ok {
		return turnengine.Ruling{}, fmt.Errorf("walk oracle needs a CounterAggregate, got %T", agg)
	}

	to, err := strconv.Atoi(move.To)
	if err != nil {
		return turnengine.Ruling{Legal: false, Reason: fmt.Sprintf("destination %q is not a position", move.To)}, nil
	}
	if counter.Terminal() {
		return turnengine.Ruling{Legal: false, Reason: "game has ended"}, nil
	}
	if to != counter.Position+1 {
		return turnengine.Ruling{Legal: false, Reason: fmt.Sprintf("can only step from %d to %d", counter.Position, counter.Position+1)}, nil
	}
	return turnengine.Ruling{Legal: true}, nil
}

func (WalkOracle) Apply(ctx context.Context, agg turnengine.Aggregate, move turnengine.Move) (turnengine.Effects, error) {
	counter, ok := agg.(*CounterAggregate)
	if !ok {
		return turnengine.Effects{}, fmt.Errorf("walk oracle needs a CounterAggregate, got %T", agg)
	}

	to, err := strconv.Atoi(move.To)
	if err != nil {
		return turnengine.Effects{}, fmt.Errorf("destination %q is not a position", move.To)
	}
	counter.Position = to

	effects := turnengine.Effects{Notation: fmt.Sprintf("step %d", to)}
	if counter.Terminal() {
		effects.Checkmate = true
		effects.Winner = "walker"
	}
	return effects, nil
}
