package turnengine

import (
	"time"

	"github.com/google/uuid"
)

// EventType is the typed discriminant of a domain event.
type EventType string

// Board events.
const (
	EventMoveMade   EventType = "move.made"
	EventMoveUndone EventType = "move.undone"
	EventMoveRedone EventType = "move.redone"
	EventBoardReset EventType = "board.reset"
)

// Game lifecycle events.
const (
	EventGameStarted EventType = "game.started"
	EventGameEnded   EventType = "game.ended"
	EventGamePaused  EventType = "game.paused"
	EventGameResumed EventType = "game.resumed"
)

// State change events.
const (
	EventTurnChanged       EventType = "player.turn_changed"
	EventCheckDetected     EventType = "check.detected"
	EventCheckmateDetected EventType = "checkmate.detected"
	EventStalemateDetected EventType = "stalemate.detected"
	EventDrawDetected      EventType = "draw.detected"
)

// Event is an immutable record of a completed state transition,
// broadcast to subscribers. Events are never mutated after creation;
// handlers must treat the payload as read-only.
type Event struct {
	EventID    uuid.UUID
	Type       EventType
	OccurredAt time.Time
	Data       map[string]any
}

// NewEvent creates an event of the given type with the given payload.
// The payload map is adopted, not copied; the caller must not mutate it
// after the event is created.
func NewEvent(eventType EventType, data map[string]any) Event {
	if data == nil {
		data = make(map[string]any)
	}
	return Event{
		EventID:    uuid.New(),
		Type:       eventType,
		OccurredAt: now(),
		Data:       data,
	}
}
