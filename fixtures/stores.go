package fixtures

import (
	"context"
	"errors"
	"sync"

	"github.com/terraskye/turnengine"
)

// ErrScriptedFailure is the error reported by failing fixture stores.
var ErrScriptedFailure = errors.New("scripted store failure")

// FailingStore is a Store whose Save always fails. Load delegates to
// an in-memory map populated through Seed.
type FailingStore struct {
	mu     sync.Mutex
	states map[string][]byte
}

// NewFailingStore creates a FailingStore.
func NewFailingStore() *FailingStore {
	return &FailingStore{states: make(map[string][]byte)}
}

// Seed pre-populates the state returned by Load.
func (s *FailingStore) Seed(aggregateID string, state []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[aggregateID] = state
}

func (s *FailingStore) Save(ctx context.Context, aggregateID string, state []byte) error {
	return ErrScriptedFailure
}

func (s *FailingStore) Load(ctx context.Context, aggregateID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[aggregateID]
	if !ok {
		return nil, turnengine.ErrNotFound
	}
	return state, nil
}

func (s *FailingStore) Close() error { return nil }

// FlakyStore fails the first FailFirst saves, then succeeds. Useful
// for exercising retry strategies.
type FlakyStore struct {
	FailFirst int

	mu       sync.Mutex
	attempts int
	states   map[string][]byte
}

// NewFlakyStore creates a FlakyStore failing the first failFirst saves.
func NewFlakyStore(failFirst int) *FlakyStore {
	return &FlakyStore{FailFirst: failFirst, states: make(map[string][]byte)}
}

// Attempts returns how many saves were attempted.
func (s *FlakyStore) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *FlakyStore) Save(ctx context.Context, aggregateID string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.FailFirst {
		return ErrScriptedFailure
	}
	s.states[aggregateID] = state
	return nil
}

func (s *FlakyStore) Load(ctx context.Context, aggregateID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[aggregateID]
	if !ok {
		return nil, turnengine.ErrNotFound
	}
	return state, nil
}

func (s *FlakyStore) Close() error { return nil }
