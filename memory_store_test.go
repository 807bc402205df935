package turnengine

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Save(ctx, "game-1", []byte("state-1")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	state, err := store.Load(ctx, "game-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(state) != "state-1" {
		t.Fatalf("unexpected state: %s", state)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Load(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreCopiesState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	state := []byte("original")
	if err := store.Save(ctx, "game-1", state); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	state[0] = 'X'

	loaded, err := store.Load(ctx, "game-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(loaded) != "original" {
		t.Fatalf("store must not alias caller buffers, got %s", loaded)
	}
	loaded[0] = 'Y'

	again, _ := store.Load(ctx, "game-1")
	if string(again) != "original" {
		t.Fatalf("loaded buffers must not alias stored state, got %s", again)
	}
}
