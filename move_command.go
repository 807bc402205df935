package turnengine

import (
	"context"
	"fmt"
)

// MoveCommand applies a single move to an aggregate through the rule
// oracle, with snapshot-based undo. The snapshot is captured after the
// oracle confirms legality and before any mutation, so a failed
// execution never leaves the aggregate partially changed.
type MoveCommand struct {
	CommandBase

	agg    Aggregate
	oracle RuleOracle
	move   Move

	snapshot []byte
	effects  *Effects
}

// NewMoveCommand creates a command that applies move to agg via oracle.
func NewMoveCommand(agg Aggregate, oracle RuleOracle, move Move) *MoveCommand {
	return &MoveCommand{
		CommandBase: NewCommandBase(),
		agg:         agg,
		oracle:      oracle,
		move:        move,
	}
}

// Move returns the move this command applies.
func (c *MoveCommand) Move() Move {
	return c.move
}

// Effects returns the side effects reported by the oracle for the last
// successful execution, or nil if the command has not run.
func (c *MoveCommand) Effects() *Effects {
	return c.effects
}

// Execute validates the move with the oracle, snapshots the aggregate
// and applies the transition. Re-invocation (redo) repeats the whole
// sequence, so the captured snapshot always reflects the state
// immediately before this execution.
func (c *MoveCommand) Execute(ctx context.Context) Result {
	ruling, err := c.oracle.Validate(ctx, c.agg, c.move)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("move validation failed: %v", err), Err: err}
	}
	if !ruling.Legal {
		err := &IllegalMoveError{Reason: ruling.Reason}
		return Result{Success: false, Message: err.Error(), Err: err}
	}

	snapshot, err := c.agg.Snapshot()
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("snapshot failed: %v", err), Err: err}
	}

	effects, err := c.oracle.Apply(ctx, c.agg, c.move)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("move execution failed: %v", err), Err: err}
	}

	c.snapshot = snapshot
	c.effects = &effects

	return Result{
		Success: true,
		Message: fmt.Sprintf("move executed: %s", c.notation()),
		Data: map[string]any{
			"from":     c.move.From,
			"to":       c.move.To,
			"notation": c.notation(),
			"captured": effects.Captured,
		},
	}
}

// Undo restores the aggregate verbatim from the pre-execution snapshot.
func (c *MoveCommand) Undo(ctx context.Context) Result {
	if c.snapshot == nil {
		return Result{Success: false, Message: "cannot undo: no previous state stored"}
	}

	if err := c.agg.Restore(c.snapshot); err != nil {
		return Result{Success: false, Message: fmt.Sprintf("move undo failed: %v", err), Err: err}
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("move undone: %s", c.notation()),
		Data: map[string]any{
			"from":     c.move.From,
			"to":       c.move.To,
			"notation": c.notation(),
		},
	}
}

// CanUndo reports whether the command completed and holds a snapshot.
func (c *MoveCommand) CanUndo() bool {
	return c.snapshot != nil && c.Status() == StatusCompleted
}

// Describe implements the Describe method of the Command interface.
func (c *MoveCommand) Describe() string {
	return fmt.Sprintf("move %s", c.notation())
}

func (c *MoveCommand) notation() string {
	if c.effects != nil && c.effects.Notation != "" {
		return c.effects.Notation
	}
	if c.move.Promotion != "" {
		return fmt.Sprintf("%s-%s=%s", c.move.From, c.move.To, c.move.Promotion)
	}
	return fmt.Sprintf("%s-%s", c.move.From, c.move.To)
}
