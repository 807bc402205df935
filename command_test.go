package turnengine

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type tracedCommand struct {
	*stubCommand
	trace *[]string
}

func newTracedCommand(name string, trace *[]string) *tracedCommand {
	return &tracedCommand{stubCommand: newStubCommand(name), trace: trace}
}

func (c *tracedCommand) Execute(ctx context.Context) Result {
	*c.trace = append(*c.trace, "execute "+c.description)
	return c.stubCommand.Execute(ctx)
}

func (c *tracedCommand) Undo(ctx context.Context) Result {
	*c.trace = append(*c.trace, "undo "+c.description)
	return c.stubCommand.Undo(ctx)
}

func TestCommandBaseLifecycle(t *testing.T) {
	base := NewCommandBase()

	if base.CommandID() == uuid.Nil {
		t.Fatalf("expected a command id")
	}
	if base.CreatedAt().IsZero() {
		t.Fatalf("expected a creation timestamp")
	}
	if base.Status() != StatusPending {
		t.Fatalf("expected status pending, got %s", base.Status())
	}
	if base.Result() != nil {
		t.Fatalf("expected no result before execution")
	}

	base.SetStatus(StatusCompleted)
	base.SetResult(&Result{Success: true, Message: "done"})

	if base.Status() != StatusCompleted {
		t.Fatalf("expected status completed, got %s", base.Status())
	}
	if result := base.Result(); result == nil || result.Message != "done" {
		t.Fatalf("expected stored result, got %+v", result)
	}
}

func TestCompositeExecutesAllSteps(t *testing.T) {
	var trace []string
	composite := NewCompositeCommand("opening",
		newTracedCommand("a", &trace),
		newTracedCommand("b", &trace),
		newTracedCommand("c", &trace),
	)

	result := composite.Execute(context.Background())

	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Message)
	}
	if result.Data["steps"] != 3 {
		t.Fatalf("expected 3 steps, got %v", result.Data["steps"])
	}
	want := []string{"execute a", "execute b", "execute c"}
	if strings.Join(trace, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected execution order: %v", trace)
	}
	if !composite.CanUndo() {
		t.Fatalf("expected composite to be undoable")
	}
}

func TestCompositeRollsBackOnFailure(t *testing.T) {
	var trace []string
	a := newTracedCommand("a", &trace)
	b := newTracedCommand("b", &trace)
	c := newTracedCommand("c", &trace)
	b.failExecute = true

	composite := NewCompositeCommand("opening", a, b, c)
	result := composite.Execute(context.Background())

	if result.Success {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(result.Message, "composite command failed at step 2") {
		t.Fatalf("unexpected message: %q", result.Message)
	}
	want := []string{"execute a", "execute b", "undo a"}
	if strings.Join(trace, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected rollback order: %v", trace)
	}
	if c.executions != 0 {
		t.Fatalf("later steps must not run after a failure")
	}
	if composite.CanUndo() {
		t.Fatalf("failed composite must not be undoable")
	}
}

func TestCompositeUndoReversesOrder(t *testing.T) {
	var trace []string
	composite := NewCompositeCommand("opening",
		newTracedCommand("a", &trace),
		newTracedCommand("b", &trace),
	)
	if result := composite.Execute(context.Background()); !result.Success {
		t.Fatalf("execution failed: %s", result.Message)
	}
	trace = trace[:0]

	result := composite.Undo(context.Background())

	if !result.Success {
		t.Fatalf("expected successful undo, got: %s", result.Message)
	}
	want := []string{"undo b", "undo a"}
	if strings.Join(trace, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected undo order: %v", trace)
	}
	if composite.CanUndo() {
		t.Fatalf("composite must not be undoable twice")
	}
}

func TestCompositeNotUndoableBeforeExecution(t *testing.T) {
	composite := NewCompositeCommand("opening", newStubCommand("a"))

	if composite.CanUndo() {
		t.Fatalf("unexecuted composite must not be undoable")
	}
	if composite.Describe() != "opening" {
		t.Fatalf("unexpected description: %q", composite.Describe())
	}
}
