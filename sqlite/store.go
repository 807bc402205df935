// Package sqlite provides a SQLite-backed Store implementation plus an
// append-only journal of dispatched events.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terraskye/turnengine"
	_ "modernc.org/sqlite"
)

var _ turnengine.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS aggregates (
	id         TEXT PRIMARY KEY,
	state      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS journal (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id    TEXT NOT NULL,
	event_type  TEXT NOT NULL,
	payload     TEXT NOT NULL,
	occurred_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS journal_event_type ON journal(event_type);
`

// Store persists aggregate snapshots and an event journal in SQLite.
type Store struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the serialized aggregate state.
func (s *Store) Save(ctx context.Context, aggregateID string, state []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(aggregateID) == "" {
		return fmt.Errorf("aggregate id is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO aggregates (id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		aggregateID, state, toMillis(time.Now()),
	)
	if err != nil {
		return turnengine.WrapStoreError(fmt.Errorf("save aggregate %q: %w", aggregateID, err))
	}
	return nil
}

// Load returns the last saved state, or turnengine.ErrNotFound.
func (s *Store) Load(ctx context.Context, aggregateID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM aggregates WHERE id = ?`, aggregateID,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, turnengine.ErrNotFound
	}
	if err != nil {
		return nil, turnengine.WrapStoreError(fmt.Errorf("load aggregate %q: %w", aggregateID, err))
	}
	return state, nil
}

// AppendEvent journals one dispatched event. The payload is stored as
// JSON so it can be decoded back through the payload registry.
func (s *Store) AppendEvent(ctx context.Context, event turnengine.Event) error {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal (event_id, event_type, payload, occurred_at) VALUES (?, ?, ?, ?)`,
		event.EventID.String(), string(event.Type), string(payload), toMillis(event.OccurredAt),
	)
	if err != nil {
		return turnengine.WrapStoreError(fmt.Errorf("append event %s: %w", event.EventID, err))
	}
	return nil
}

// JournalHandler adapts AppendEvent to the dispatcher's handler
// signature, for subscribing the journal at Critical priority.
func (s *Store) JournalHandler() turnengine.HandlerFunc {
	return func(ctx context.Context, event turnengine.Event) error {
		return s.AppendEvent(ctx, event)
	}
}

// JournalEntry is one journaled event.
type JournalEntry struct {
	Seq        int64
	EventID    uuid.UUID
	Type       turnengine.EventType
	OccurredAt time.Time
	Payload    json.RawMessage
}

// Decode unmarshals the payload. When a payload type is registered for
// the event type it returns that typed value, otherwise a generic map.
func (e *JournalEntry) Decode() (any, error) {
	if payload, err := turnengine.NewEventPayload(e.Type); err == nil {
		if err := json.Unmarshal(e.Payload, payload); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
		}
		return payload, nil
	}

	out := map[string]any{}
	if err := json.Unmarshal(e.Payload, &out); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return out, nil
}

// Journal streams journaled events in chronological order, oldest
// first. A non-empty eventType filters by type; a positive limit keeps
// only the most recent entries (still yielded oldest first).
func (s *Store) Journal(ctx context.Context, eventType turnengine.EventType, limit int) (*turnengine.Iterator[JournalEntry], error) {
	query := `SELECT seq, event_id, event_type, payload, occurred_at FROM journal`
	var args []any
	if eventType != "" {
		query += ` WHERE event_type = ?`
		args = append(args, string(eventType))
	}
	query += ` ORDER BY seq DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	// Newest-first query keeps LIMIT cheap; re-order chronologically.
	query = `SELECT * FROM (` + query + `) ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, turnengine.WrapStoreError(fmt.Errorf("read journal: %w", err))
	}

	return turnengine.NewIterator(func(ctx context.Context) (*JournalEntry, error) {
		if err := ctx.Err(); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if !rows.Next() {
			defer rows.Close()
			if err := rows.Err(); err != nil {
				return nil, turnengine.WrapStoreError(err)
			}
			return nil, nil
		}

		var (
			entry      JournalEntry
			rawID      string
			rawType    string
			rawPayload string
			occurredAt int64
		)
		if err := rows.Scan(&entry.Seq, &rawID, &rawType, &rawPayload, &occurredAt); err != nil {
			_ = rows.Close()
			return nil, turnengine.WrapStoreError(err)
		}

		id, err := uuid.Parse(rawID)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("parse event id %q: %w", rawID, err)
		}
		entry.EventID = id
		entry.Type = turnengine.EventType(rawType)
		entry.Payload = json.RawMessage(rawPayload)
		entry.OccurredAt = fromMillis(occurredAt)
		return &entry, nil
	}), nil
}
