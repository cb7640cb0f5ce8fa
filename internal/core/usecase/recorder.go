package usecase

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
	"github.com/atvirokodosprendimai/crmapi/internal/core/ports"
)

// Recorder is the write path of the audit trail. It runs inline after a
// business mutation has committed and is strictly best-effort: every failure
// is logged and swallowed so that audit bookkeeping can never break the
// primary operation.
type Recorder struct {
	store  ports.AuditStore
	actors ports.ActorResolver
	outbox ports.OutboxRepository
}

// NewRecorder wires the recorder's collaborators. outbox may be nil to
// disable change-notification forwarding.
func NewRecorder(store ports.AuditStore, actors ports.ActorResolver, outbox ports.OutboxRepository) *Recorder {
	return &Recorder{store: store, actors: actors, outbox: outbox}
}

// Record appends one immutable audit record for a mutation that already
// succeeded. It never returns an error; callers get no signal beyond
// "attempted".
func (r *Recorder) Record(ctx context.Context, entityKind, entityID string, action domain.Action, diff domain.Diff) {
	if entityKind == "" || entityID == "" {
		log.Printf("audit: dropped record with empty entity reference (kind=%q id=%q)", entityKind, entityID)
		return
	}
	if !action.Valid() {
		log.Printf("audit: dropped record for %s/%s: %v: %q", entityKind, entityID, domain.ErrInvalidAction, action)
		return
	}

	encoded, err := diff.Encode()
	if err != nil {
		log.Printf("audit: dropped record for %s/%s: %v", entityKind, entityID, err)
		return
	}

	rec := domain.AuditRecord{
		EntityKind: entityKind,
		EntityID:   entityID,
		Action:     action,
		Field:      encoded.Field,
		OldValue:   encoded.OldValue,
		NewValue:   encoded.NewValue,
		Changes:    encoded.Changes,
		CreatedAt:  time.Now().UTC(),
	}
	if actor, ok := r.actors.CurrentActor(ctx); ok {
		rec.ActorID = actor.ID
	}

	if err := r.store.Append(ctx, rec); err != nil {
		log.Printf("audit: append record for %s/%s failed: %v", entityKind, entityID, err)
		return
	}

	r.enqueueNotification(ctx, rec)
}

func (r *Recorder) enqueueNotification(ctx context.Context, rec domain.AuditRecord) {
	if r.outbox == nil {
		return
	}

	envelope := domain.ChangeEnvelope{
		EventID:    uuid.NewString(),
		EntityKind: rec.EntityKind,
		EntityID:   rec.EntityID,
		Action:     rec.Action,
		ActorID:    rec.ActorID,
		Field:      rec.Field,
		OldValue:   rec.OldValue,
		NewValue:   rec.NewValue,
		Changes:    rec.Changes,
		OccurredAt: rec.CreatedAt,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("audit: marshal notification for %s/%s failed: %v", rec.EntityKind, rec.EntityID, err)
		return
	}

	event := domain.OutboxEvent{
		EventID:       envelope.EventID,
		Topic:         notificationTopic(rec),
		PayloadJSON:   payload,
		Status:        "pending",
		NextAttemptAt: rec.CreatedAt,
		CreatedAt:     rec.CreatedAt,
	}
	if err := r.outbox.Enqueue(ctx, event); err != nil {
		log.Printf("audit: enqueue notification for %s/%s failed: %v", rec.EntityKind, rec.EntityID, err)
	}
}

func notificationTopic(rec domain.AuditRecord) string {
	return "audit." + rec.EntityKind + "." + strings.ToLower(string(rec.Action))
}
