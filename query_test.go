package turnengine

import (
	"context"
	"errors"
	"testing"
)

type boardQuery struct {
	Square string
}

func (boardQuery) QueryName() string { return "board.square" }

func TestQueryGateway(t *testing.T) {
	bus := NewQueryBus()
	RegisterQueryHandler(bus, NewQueryHandlerFunc(func(ctx context.Context, qry boardQuery) (string, error) {
		if qry.Square == "" {
			return "", errors.New("square is required")
		}
		return "pawn", nil
	}))

	gateway := NewQueryGateway[boardQuery, string](bus)

	piece, err := gateway.HandleQuery(context.Background(), boardQuery{Square: "e2"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if piece != "pawn" {
		t.Fatalf("unexpected result: %q", piece)
	}

	if _, err := gateway.HandleQuery(context.Background(), boardQuery{}); err == nil {
		t.Fatalf("expected handler error to propagate")
	}
}

func TestQueryGatewayWithoutHandler(t *testing.T) {
	gateway := NewQueryGateway[boardQuery, int](NewQueryBus())

	if _, err := gateway.HandleQuery(context.Background(), boardQuery{}); err == nil {
		t.Fatalf("expected error for unregistered query")
	}
}

func TestRegisterQueryHandlerRejectsDuplicates(t *testing.T) {
	bus := NewQueryBus()
	handler := NewQueryHandlerFunc(func(ctx context.Context, qry boardQuery) (string, error) {
		return "", nil
	})
	RegisterQueryHandler(bus, handler)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	RegisterQueryHandler(bus, handler)
}

func TestSessionQueries(t *testing.T) {
	session, _, _ := newTestSession()
	ctx := context.Background()
	session.MakeMove(ctx, Move{From: "a", To: "1"})
	session.MakeMove(ctx, Move{From: "b", To: "2"})

	bus := NewQueryBus()
	RegisterSessionQueries(bus, session)

	status, err := NewQueryGateway[GameStatusQuery, *GameStatus](bus).HandleQuery(ctx, GameStatusQuery{})
	if err != nil {
		t.Fatalf("status query failed: %v", err)
	}
	if status.AggregateID != "game-1" || !status.CanUndo || status.CanRedo || status.Moves != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}

	moves, err := NewQueryGateway[CommandHistoryQuery, []string](bus).HandleQuery(ctx, CommandHistoryQuery{Limit: 1})
	if err != nil {
		t.Fatalf("history query failed: %v", err)
	}
	if len(moves) != 1 || moves[0] != "move b-2" {
		t.Fatalf("unexpected history: %v", moves)
	}

	events, err := NewQueryGateway[EventHistoryQuery, []Event](bus).HandleQuery(ctx, EventHistoryQuery{Type: EventMoveMade})
	if err != nil {
		t.Fatalf("event query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 move events, got %d", len(events))
	}
}
