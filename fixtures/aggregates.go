// Package fixtures provides configurable test doubles for the engine:
// a small walk-the-line game aggregate with its oracle, scripted
// commands, and misbehaving stores.
package fixtures

import (
	"encoding/json"
	"fmt"
)

// CounterAggregate is a minimal game aggregate: a token walking a line
// from position 0 to Goal, one step per move. Snapshots are JSON.
type CounterAggregate struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Goal     int    `json:"goal"`
}

// NewCounterAggregate creates an aggregate at position 0.
func NewCounterAggregate(id string, goal int) *CounterAggregate {
	return &CounterAggregate{ID: id, Goal: goal}
}

// AggregateID implements turnengine.Aggregate.
func (a *CounterAggregate) AggregateID() string {
	return a.ID
}

// Snapshot implements turnengine.Aggregate.
func (a *CounterAggregate) Snapshot() ([]byte, error) {
	return json.Marshal(a)
}

// Restore implements turnengine.Aggregate.
func (a *CounterAggregate) Restore(state []byte) error {
	var restored CounterAggregate
	if err := json.Unmarshal(state, &restored); err != nil {
		return fmt.Errorf("restore counter aggregate: %w", err)
	}
	*a = restored
	return nil
}

// Terminal implements turnengine.Aggregate.
func (a *CounterAggregate) Terminal() bool {
	return a.Position >= a.Goal
}
