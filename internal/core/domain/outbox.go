package domain

import (
	"encoding/json"
	"time"
)

// ChangeEnvelope is the wire form of an audit record forwarded to external
// receivers through the outbox.
type ChangeEnvelope struct {
	EventID    string          `json:"event_id"`
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id"`
	Action     Action          `json:"action"`
	ActorID    string          `json:"actor_id,omitempty"`
	Field      string          `json:"field,omitempty"`
	OldValue   json.RawMessage `json:"old_value,omitempty"`
	NewValue   json.RawMessage `json:"new_value,omitempty"`
	Changes    []FieldChange   `json:"changes,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type OutboxEvent struct {
	ID            int64
	EventID       string
	Topic         string
	PayloadJSON   json.RawMessage
	Status        string
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	DispatchedAt  *time.Time
}
