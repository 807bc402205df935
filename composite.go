package turnengine

import (
	"context"
	"fmt"
)

// CompositeCommand bundles several commands into one atomic unit. If
// any sub-command fails, all previously succeeded sub-commands are
// undone in reverse order before the composite reports failure. The
// composite is undoable only if all its executed members are.
type CompositeCommand struct {
	CommandBase

	commands    []Command
	description string
	executed    []Command
}

// NewCompositeCommand creates a composite over the given commands.
func NewCompositeCommand(description string, commands ...Command) *CompositeCommand {
	return &CompositeCommand{
		CommandBase: NewCommandBase(),
		commands:    commands,
		description: description,
	}
}

// Execute runs all sub-commands in order, rolling back on the first
// failure.
func (c *CompositeCommand) Execute(ctx context.Context) Result {
	c.executed = c.executed[:0]

	for _, cmd := range c.commands {
		result := cmd.Execute(ctx)
		if !result.Success {
			step := len(c.executed) + 1
			c.rollback(ctx)
			return Result{
				Success: false,
				Message: fmt.Sprintf("composite command failed at step %d: %s", step, result.Message),
				Err:     result.Err,
			}
		}
		cmd.SetStatus(StatusCompleted)
		c.executed = append(c.executed, cmd)
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("composite command completed (%d steps)", len(c.commands)),
		Data:    map[string]any{"steps": len(c.commands)},
	}
}

// Undo reverses all executed sub-commands in reverse order.
func (c *CompositeCommand) Undo(ctx context.Context) Result {
	return c.rollback(ctx)
}

func (c *CompositeCommand) rollback(ctx context.Context) Result {
	var failed []string

	for i := len(c.executed) - 1; i >= 0; i-- {
		cmd := c.executed[i]
		if !cmd.CanUndo() {
			continue
		}
		if result := cmd.Undo(ctx); !result.Success {
			failed = append(failed, cmd.CommandID().String())
		}
	}
	c.executed = nil

	if len(failed) > 0 {
		return Result{Success: false, Message: fmt.Sprintf("some commands failed to undo: %v", failed)}
	}
	return Result{Success: true, Message: "composite command undone"}
}

// CanUndo reports whether every executed sub-command can be undone.
func (c *CompositeCommand) CanUndo() bool {
	if len(c.executed) == 0 {
		return false
	}
	for _, cmd := range c.executed {
		if !cmd.CanUndo() {
			return false
		}
	}
	return true
}

// Describe implements the Describe method of the Command interface.
func (c *CompositeCommand) Describe() string {
	return c.description
}
