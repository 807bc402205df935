package turnengine

import "context"

// Store is the narrow persistence contract consumed by the engine.
// Save is called after a successful command execution, undo or redo;
// failures are logged by the session and surfaced as warnings, never
// thrown back into the caller's success path.
type Store interface {
	// Save persists the serialized aggregate state.
	Save(ctx context.Context, aggregateID string, state []byte) error

	// Load returns the last saved state for the aggregate, or
	// ErrNotFound when nothing was saved.
	Load(ctx context.Context, aggregateID string) ([]byte, error)

	// Close releases any resources held by the store. Implementations
	// should make Close idempotent.
	Close() error
}
