package fixtures

import (
	"context"
	"fmt"

	"github.com/terraskye/turnengine"
)

// ScriptedCommand is a configurable command for exercising executors.
// It counts executions and undos and can be scripted to fail, panic
// or refuse to undo.
type ScriptedCommand struct {
	turnengine.CommandBase

	description    string
	failExecute    bool
	failUndo       bool
	notUndoable    bool
	panicOnExecute bool

	Executions int
	Undos      int
	executed   bool
}

// ScriptedCommandBuilder provides a fluent API for building scripted
// commands.
type ScriptedCommandBuilder struct {
	cmd *ScriptedCommand
}

// NewScriptedCommand creates a builder with sensible defaults: the
// command succeeds and is undoable.
func NewScriptedCommand() *ScriptedCommandBuilder {
	return &ScriptedCommandBuilder{cmd: &ScriptedCommand{
		CommandBase: turnengine.NewCommandBase(),
		description: "scripted command",
	}}
}

// WithDescription sets the command description.
func (b *ScriptedCommandBuilder) WithDescription(description string) *ScriptedCommandBuilder {
	b.cmd.description = description
	return b
}

// FailingExecute makes Execute report failure.
func (b *ScriptedCommandBuilder) FailingExecute() *ScriptedCommandBuilder {
	b.cmd.failExecute = true
	return b
}

// FailingUndo makes Undo report failure.
func (b *ScriptedCommandBuilder) FailingUndo() *ScriptedCommandBuilder {
	b.cmd.failUndo = true
	return b
}

// NotUndoable makes CanUndo report false even after execution.
func (b *ScriptedCommandBuilder) NotUndoable() *ScriptedCommandBuilder {
	b.cmd.notUndoable = true
	return b
}

// PanickingExecute makes Execute panic.
func (b *ScriptedCommandBuilder) PanickingExecute() *ScriptedCommandBuilder {
	b.cmd.panicOnExecute = true
	return b
}

// Build constructs the ScriptedCommand.
func (b *ScriptedCommandBuilder) Build() *ScriptedCommand {
	return b.cmd
}

func (c *ScriptedCommand) Execute(ctx context.Context) turnengine.Result {
	c.Executions++
	if c.panicOnExecute {
		panic("scripted panic")
	}
	if c.failExecute {
		return turnengine.Result{Success: false, Message: fmt.Sprintf("%s failed", c.description)}
	}
	c.executed = true
	return turnengine.Result{Success: true, Message: fmt.Sprintf("%s executed", c.description)}
}

func (c *ScriptedCommand) Undo(ctx context.Context) turnengine.Result {
	c.Undos++
	if c.failUndo {
		return turnengine.Result{Success: false, Message: fmt.Sprintf("%s undo failed", c.description)}
	}
	return turnengine.Result{Success: true, Message: fmt.Sprintf("%s undone", c.description)}
}

func (c *ScriptedCommand) CanUndo() bool {
	return c.executed && !c.notUndoable && c.Status() == turnengine.StatusCompleted
}

func (c *ScriptedCommand) Describe() string {
	return c.description
}
