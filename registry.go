package turnengine

import (
	"fmt"
	"sort"
	"sync"
)

var (
	// payloadRegistry maps event types to payload factory functions.
	// Each factory must return a new instance of a concrete payload
	// type for stores to decode journaled events into.
	payloadRegistry = map[EventType]func() any{}

	// registryMu protects access to the registry for concurrent operations.
	registryMu sync.RWMutex
)

// RegisterEventPayload registers a payload factory for an event type,
// allowing stores to decode journaled payloads back into typed values.
//
// Panics:
//   - If the factory is nil.
//   - If the factory returns nil.
//   - If a factory is already registered for the event type.
//
// Example Usage:
//
//	RegisterEventPayload(EventMoveMade, func() any { return &MovePayload{} })
func RegisterEventPayload(eventType EventType, fn func() any) {
	if fn == nil {
		panic("cannot register nil payload factory")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := payloadRegistry[eventType]; exists {
		panic(fmt.Sprintf("payload already registered for event type %s", eventType))
	}
	if fn() == nil {
		panic(fmt.Sprintf("factory returned nil payload for event type %s", eventType))
	}

	payloadRegistry[eventType] = fn
}

// NewEventPayload creates a new payload instance for a registered
// event type. Returns an error if no factory is registered.
func NewEventPayload(eventType EventType) (any, error) {
	registryMu.RLock()
	factory, ok := payloadRegistry[eventType]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no payload registered for event type %s", eventType)
	}
	payload := factory()
	if payload == nil {
		return nil, fmt.Errorf("factory returned nil payload for event type %s", eventType)
	}
	return payload, nil
}

// RegisteredEventPayloads returns the event types with registered
// payload factories, sorted for deterministic output.
func RegisteredEventPayloads() []EventType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]EventType, 0, len(payloadRegistry))
	for eventType := range payloadRegistry {
		out = append(out, eventType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
