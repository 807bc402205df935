package turnengine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// ---- Test Stubs ----

type lineAggregate struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Done     bool   `json:"done"`
}

func (a *lineAggregate) AggregateID() string { return a.ID }

func (a *lineAggregate) Snapshot() ([]byte, error) { return json.Marshal(a) }

func (a *lineAggregate) Restore(state []byte) error {
	var restored lineAggregate
	if err := json.Unmarshal(state, &restored); err != nil {
		return err
	}
	*a = restored
	return nil
}

func (a *lineAggregate) Terminal() bool { return a.Done }

type scriptedOracle struct {
	ruling    Ruling
	rulingErr error
	effects   Effects
	applyErr  error
}

func legalOracle() *scriptedOracle {
	return &scriptedOracle{ruling: Ruling{Legal: true}}
}

func (o *scriptedOracle) Validate(ctx context.Context, agg Aggregate, move Move) (Ruling, error) {
	return o.ruling, o.rulingErr
}

func (o *scriptedOracle) Apply(ctx context.Context, agg Aggregate, move Move) (Effects, error) {
	if o.applyErr != nil {
		return Effects{}, o.applyErr
	}
	agg.(*lineAggregate).Position++
	return o.effects, nil
}

// ---- Tests ----

func TestMoveCommandExecute(t *testing.T) {
	agg := &lineAggregate{ID: "game-1"}
	cmd := NewMoveCommand(agg, legalOracle(), Move{From: "e2", To: "e4"})

	result := cmd.Execute(context.Background())

	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Message)
	}
	if agg.Position != 1 {
		t.Fatalf("expected aggregate mutated, position %d", agg.Position)
	}
	if result.Data["notation"] != "e2-e4" || result.Data["from"] != "e2" || result.Data["to"] != "e4" {
		t.Fatalf("unexpected result data: %v", result.Data)
	}
	if cmd.Effects() == nil {
		t.Fatalf("expected effects recorded")
	}
}

func TestMoveCommandIllegalMove(t *testing.T) {
	agg := &lineAggregate{ID: "game-1"}
	oracle := &scriptedOracle{ruling: Ruling{Legal: false, Reason: "king would be in check"}}
	cmd := NewMoveCommand(agg, oracle, Move{From: "e1", To: "e2"})

	result := cmd.Execute(context.Background())

	if result.Success {
		t.Fatalf("expected failure for illegal move")
	}
	var illegal *IllegalMoveError
	if !errors.As(result.Err, &illegal) || illegal.Reason != "king would be in check" {
		t.Fatalf("expected IllegalMoveError, got %v", result.Err)
	}
	if agg.Position != 0 {
		t.Fatalf("illegal move must not mutate the aggregate")
	}
	if cmd.CanUndo() {
		t.Fatalf("failed command must not be undoable")
	}
}

func TestMoveCommandValidationError(t *testing.T) {
	oracle := &scriptedOracle{rulingErr: errors.New("oracle offline")}
	cmd := NewMoveCommand(&lineAggregate{ID: "game-1"}, oracle, Move{To: "e4"})

	result := cmd.Execute(context.Background())

	if result.Success {
		t.Fatalf("expected failure when the oracle errors")
	}
	if !strings.Contains(result.Message, "move validation failed") {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func TestMoveCommandApplyError(t *testing.T) {
	agg := &lineAggregate{ID: "game-1"}
	oracle := legalOracle()
	oracle.applyErr = errors.New("transition rejected")
	cmd := NewMoveCommand(agg, oracle, Move{To: "e4"})

	result := cmd.Execute(context.Background())

	if result.Success {
		t.Fatalf("expected failure when apply errors")
	}
	if cmd.CanUndo() {
		t.Fatalf("no snapshot must be kept after a failed apply")
	}
}

func TestMoveCommandUndoWithoutSnapshot(t *testing.T) {
	cmd := NewMoveCommand(&lineAggregate{ID: "game-1"}, legalOracle(), Move{To: "e4"})

	result := cmd.Undo(context.Background())

	if result.Success {
		t.Fatalf("expected failure")
	}
	if result.Message != "cannot undo: no previous state stored" {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func TestMoveCommandUndoRestoresSnapshot(t *testing.T) {
	executor := NewExecutor()
	ctx := context.Background()
	agg := &lineAggregate{ID: "game-1", Position: 4}
	cmd := NewMoveCommand(agg, legalOracle(), Move{From: "e4", To: "e5"})

	if result := executor.Execute(ctx, cmd); !result.Success {
		t.Fatalf("execution failed: %s", result.Message)
	}
	if agg.Position != 5 {
		t.Fatalf("expected position 5, got %d", agg.Position)
	}
	if !cmd.CanUndo() {
		t.Fatalf("expected command to be undoable")
	}

	undo := executor.Undo(ctx)
	if undo == nil || !undo.Success {
		t.Fatalf("expected successful undo, got %+v", undo)
	}
	if agg.Position != 4 {
		t.Fatalf("expected position restored to 4, got %d", agg.Position)
	}
}

func TestMoveCommandRedoSnapshotsFreshState(t *testing.T) {
	executor := NewExecutor()
	ctx := context.Background()
	agg := &lineAggregate{ID: "game-1"}
	cmd := NewMoveCommand(agg, legalOracle(), Move{To: "1"})

	executor.Execute(ctx, cmd)
	executor.Undo(ctx)
	redo := executor.Redo(ctx)

	if redo == nil || !redo.Success {
		t.Fatalf("expected successful redo, got %+v", redo)
	}
	if agg.Position != 1 {
		t.Fatalf("expected position 1 after redo, got %d", agg.Position)
	}

	// A second undo must restore the state captured right before redo.
	if undo := executor.Undo(ctx); undo == nil || !undo.Success {
		t.Fatalf("expected successful undo after redo, got %+v", undo)
	}
	if agg.Position != 0 {
		t.Fatalf("expected position 0 after undo, got %d", agg.Position)
	}
}

func TestMoveCommandNotation(t *testing.T) {
	promo := NewMoveCommand(&lineAggregate{}, legalOracle(), Move{From: "e7", To: "e8", Promotion: "Q"})
	if promo.Describe() != "move e7-e8=Q" {
		t.Fatalf("unexpected description: %q", promo.Describe())
	}

	oracle := legalOracle()
	oracle.effects = Effects{Notation: "O-O"}
	castling := NewMoveCommand(&lineAggregate{}, oracle, Move{From: "e1", To: "g1"})
	if result := castling.Execute(context.Background()); !result.Success {
		t.Fatalf("execution failed: %s", result.Message)
	}
	if castling.Describe() != "move O-O" {
		t.Fatalf("oracle notation must win: %q", castling.Describe())
	}
}
