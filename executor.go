package turnengine

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxHistory is the default cap on the executed-command history.
const DefaultMaxHistory = 100

// CommandValidator checks a command before execution. A non-empty
// reason list rejects the command; it is never run.
type CommandValidator interface {
	Validate(cmd Command) []string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithValidator sets a validator consulted before every execution.
func WithValidator(v CommandValidator) ExecutorOption {
	return func(e *Executor) { e.validator = v }
}

// WithMaxHistory caps the executed-command history. Values below 1
// fall back to DefaultMaxHistory.
func WithMaxHistory(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxHistory = n
		}
	}
}

// Executor runs one command at a time and maintains the undo/redo
// timeline. The history holds executed commands newest last, capped at
// maxHistory with silent FIFO eviction: only the most recent command
// is ever undone, so losing the oldest entries only shortens how far
// back undo can reach.
//
// The Executor is deliberately lock-free. There is exactly one mutable
// aggregate per session and all mutation flows through this type, one
// command to completion before the next; the single-writer property is
// structural.
type Executor struct {
	validator  CommandValidator
	history    []Command
	undoStack  []Command
	maxHistory int
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{maxHistory: DefaultMaxHistory}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute validates and runs cmd, recording it in history on success.
// A successful execution starts a new timeline: the redo stack is
// cleared before any observer can see the result. A panic inside the
// command is recovered and converted into a failure Result.
func (e *Executor) Execute(ctx context.Context, cmd Command) Result {
	if e.validator != nil {
		if reasons := e.validator.Validate(cmd); len(reasons) > 0 {
			err := &ValidationError{Reasons: reasons}
			result := Result{
				Success: false,
				Message: fmt.Sprintf("command validation failed: %s", strings.Join(reasons, "; ")),
				Err:     err,
			}
			cmd.SetResult(&result)
			return result
		}
	}

	cmd.SetStatus(StatusExecuting)

	result := e.run(ctx, cmd)
	cmd.SetResult(&result)

	if result.Success {
		cmd.SetStatus(StatusCompleted)
		e.appendHistory(cmd)
		e.undoStack = nil
	} else {
		cmd.SetStatus(StatusFailed)
	}

	return result
}

// run invokes cmd.Execute with panic recovery.
func (e *Executor) run(ctx context.Context, cmd Command) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Success: false,
				Message: fmt.Sprintf("command execution failed: %v", r),
				Err:     fmt.Errorf("panic in command %s: %v", cmd.Describe(), r),
			}
		}
	}()
	return cmd.Execute(ctx)
}

// Undo reverses the most recent command. It returns nil when the
// history is empty. When the last command cannot be undone, a failure
// Result is returned and no state is mutated. A failed undo leaves the
// history untouched.
func (e *Executor) Undo(ctx context.Context) *Result {
	if len(e.history) == 0 {
		return nil
	}

	last := e.history[len(e.history)-1]
	if !last.CanUndo() {
		return &Result{Success: false, Message: "last command cannot be undone"}
	}

	result := e.runUndo(ctx, last)
	if result.Success {
		last.SetStatus(StatusUndone)
		e.history = e.history[:len(e.history)-1]
		e.undoStack = append(e.undoStack, last)
	}
	return &result
}

func (e *Executor) runUndo(ctx context.Context, cmd Command) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Success: false,
				Message: fmt.Sprintf("undo failed: %v", r),
				Err:     fmt.Errorf("panic in undo of %s: %v", cmd.Describe(), r),
			}
		}
	}()
	return cmd.Undo(ctx)
}

// Redo re-executes the most recently undone command. It returns nil
// when the undo stack is empty. A failed redo pushes the command back
// onto the undo stack so it is never silently lost.
func (e *Executor) Redo(ctx context.Context) *Result {
	if len(e.undoStack) == 0 {
		return nil
	}

	cmd := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]

	result := e.run(ctx, cmd)
	cmd.SetResult(&result)

	if result.Success {
		cmd.SetStatus(StatusCompleted)
		e.appendHistory(cmd)
	} else {
		e.undoStack = append(e.undoStack, cmd)
	}
	return &result
}

// CanUndo reports whether the history ends with an undoable command.
func (e *Executor) CanUndo() bool {
	return len(e.history) > 0 && e.history[len(e.history)-1].CanUndo()
}

// CanRedo reports whether any undone command is available for redo.
func (e *Executor) CanRedo() bool {
	return len(e.undoStack) > 0
}

// History returns a defensive copy of the executed-command history,
// oldest first.
func (e *Executor) History() []Command {
	out := make([]Command, len(e.history))
	copy(out, e.history)
	return out
}

// UndoStack returns a defensive copy of the commands available for
// redo, next-to-redo last.
func (e *Executor) UndoStack() []Command {
	out := make([]Command, len(e.undoStack))
	copy(out, e.undoStack)
	return out
}

// ClearHistory discards both the history and the undo stack.
func (e *Executor) ClearHistory() {
	e.history = nil
	e.undoStack = nil
}

func (e *Executor) appendHistory(cmd Command) {
	e.history = append(e.history, cmd)
	if len(e.history) > e.maxHistory {
		e.history = e.history[1:]
	}
}
