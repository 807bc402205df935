package fixtures

import (
	"fmt"

	"github.com/terraskye/turnengine"
)

// TestEventBuilder provides a fluent API for constructing test events.
type TestEventBuilder struct {
	eventType turnengine.EventType
	data      map[string]any
}

// NewTestEvent creates a builder with sensible defaults.
func NewTestEvent() *TestEventBuilder {
	return &TestEventBuilder{
		eventType: turnengine.EventMoveMade,
		data:      map[string]any{},
	}
}

// WithType sets the event type.
func (b *TestEventBuilder) WithType(eventType turnengine.EventType) *TestEventBuilder {
	b.eventType = eventType
	return b
}

// WithData sets one payload entry.
func (b *TestEventBuilder) WithData(key string, value any) *TestEventBuilder {
	b.data[key] = value
	return b
}

// Build constructs the event.
func (b *TestEventBuilder) Build() turnengine.Event {
	data := make(map[string]any, len(b.data))
	for k, v := range b.data {
		data[k] = v
	}
	return turnengine.NewEvent(b.eventType, data)
}

// BuildN creates n events with a sequence number in the payload.
func (b *TestEventBuilder) BuildN(n int) []turnengine.Event {
	events := make([]turnengine.Event, n)
	for i := 0; i < n; i++ {
		data := make(map[string]any, len(b.data)+1)
		for k, v := range b.data {
			data[k] = v
		}
		data["sequence"] = fmt.Sprintf("%d", i+1)
		events[i] = turnengine.NewEvent(b.eventType, data)
	}
	return events
}
