package turnengine

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MemoryStore is an in-memory Store, mostly useful for tests and
// single-process sessions.
type MemoryStore struct {
	tracer trace.Tracer
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tracer: otel.Tracer("turnengine.memorystore"),
		states: make(map[string][]byte),
	}
}

func (m *MemoryStore) Save(ctx context.Context, aggregateID string, state []byte) error {
	_, span := m.tracer.Start(ctx, "store.save",
		trace.WithAttributes(
			attribute.String("aggregate_id", aggregateID),
			attribute.Int("state.bytes", len(state)),
		),
	)
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(state))
	copy(stored, state)
	m.states[aggregateID] = stored
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, aggregateID string) ([]byte, error) {
	_, span := m.tracer.Start(ctx, "store.load",
		trace.WithAttributes(attribute.String("aggregate_id", aggregateID)),
	)
	defer span.End()

	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[aggregateID]
	if !ok {
		span.SetStatus(codes.Error, ErrNotFound.Error())
		return nil, ErrNotFound
	}
	out := make([]byte, len(state))
	copy(out, state)
	return out, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = make(map[string][]byte)
	return nil
}
