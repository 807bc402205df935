package turnengine

// Aggregate is the single mutable object representing current session
// state. It is exclusively owned and mutated through the Executor; the
// engine only ever touches it through this contract.
//
// Snapshot and Restore carry the full serialized state, which keeps
// undo trivially correct: a command snapshots before mutating and
// restores verbatim on undo. Aggregates are assumed small enough that
// per-command snapshots are cheap; the bounded command history keeps
// memory flat.
type Aggregate interface {
	// AggregateID returns the unique identifier of the aggregate.
	AggregateID() string

	// Snapshot returns the full serialized state of the aggregate.
	Snapshot() ([]byte, error)

	// Restore replaces the aggregate state verbatim from a snapshot
	// previously produced by Snapshot.
	Restore(state []byte) error

	// Terminal reports whether the aggregate is in a terminal state
	// (game over). No new commands are accepted once terminal.
	Terminal() bool
}
