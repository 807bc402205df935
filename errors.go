package turnengine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by a Store when no state exists for the
// requested aggregate.
var ErrNotFound = errors.New("aggregate not found")

// ValidationError is returned when a command is rejected before any
// mutation. It carries the full list of human-readable reasons.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("command validation failed: %s", strings.Join(e.Reasons, "; "))
}

// IllegalMoveError is returned when the rule oracle rejects a proposed
// transition.
type IllegalMoveError struct {
	Reason string
}

func (e *IllegalMoveError) Error() string {
	if e.Reason == "" {
		return "illegal move"
	}
	return fmt.Sprintf("illegal move: %s", e.Reason)
}

// StoreError wraps a persistence failure.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %v", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapStoreError wraps err in a StoreError, or returns nil for a nil err.
func WrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Err: err}
}
