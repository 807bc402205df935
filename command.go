package turnengine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var now = time.Now

// Status is the lifecycle state of a command.
type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusUndone    Status = "undone"
)

// Result describes the outcome of executing or undoing a command.
// Every public operation on the engine reports a Result rather than
// letting internal errors escape to the caller.
type Result struct {
	Success bool
	Message string
	Data    map[string]any
	Err     error
}

// Command is a reversible unit of work. A command captures whatever
// pre-execution state it needs so that Undo can restore the aggregate
// verbatim. Status transitions are driven by the Executor, not by the
// command itself.
type Command interface {
	// CommandID returns the unique identifier of the command.
	CommandID() uuid.UUID

	// CreatedAt returns the creation timestamp of the command.
	CreatedAt() time.Time

	// Status returns the current lifecycle status.
	Status() Status

	// SetStatus sets the lifecycle status. Owned by the Executor.
	SetStatus(status Status)

	// Result returns the stored execution result, or nil if the command
	// has not run yet.
	Result() *Result

	// SetResult stores the execution result. Owned by the Executor.
	SetResult(result *Result)

	// Execute performs the action exactly once and returns its outcome.
	Execute(ctx context.Context) Result

	// Undo restores the pre-execution state. Implementations must report
	// a failure Result when no snapshot was captured.
	Undo(ctx context.Context) Result

	// CanUndo reports whether the command holds a valid pre-execution
	// snapshot and completed successfully.
	CanUndo() bool

	// Describe returns a human-readable summary for logging and history UIs.
	Describe() string
}

// CommandBase carries the identity and lifecycle bookkeeping shared by
// all commands. Embed it and implement Execute, Undo, CanUndo and
// Describe.
type CommandBase struct {
	id        uuid.UUID
	createdAt time.Time
	status    Status
	result    *Result
}

// NewCommandBase creates the embeddable base for a command.
func NewCommandBase() CommandBase {
	return CommandBase{
		id:        uuid.New(),
		createdAt: now(),
		status:    StatusPending,
	}
}

// CommandID implements the CommandID method of the Command interface.
func (c *CommandBase) CommandID() uuid.UUID {
	return c.id
}

// CreatedAt implements the CreatedAt method of the Command interface.
func (c *CommandBase) CreatedAt() time.Time {
	return c.createdAt
}

// Status implements the Status method of the Command interface.
func (c *CommandBase) Status() Status {
	return c.status
}

// SetStatus implements the SetStatus method of the Command interface.
func (c *CommandBase) SetStatus(status Status) {
	c.status = status
}

// Result implements the Result method of the Command interface.
func (c *CommandBase) Result() *Result {
	return c.result
}

// SetResult implements the SetResult method of the Command interface.
func (c *CommandBase) SetResult(result *Result) {
	c.result = result
}
