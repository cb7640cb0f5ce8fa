package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

func TestOutboxRepositoryEnqueueDefaults(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository(openTestDB(t))

	err := repo.Enqueue(ctx, domain.OutboxEvent{
		EventID:     "e-1",
		Topic:       "audit.Company.create",
		PayloadJSON: json.RawMessage(`{"event_id":"e-1"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	pending, err := repo.FetchPending(ctx, 10)
	if err != nil {
		t.Fatalf("fetch pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending event, got %d", len(pending))
	}
	event := pending[0]
	if event.Status != "pending" || event.CreatedAt.IsZero() || event.NextAttemptAt.IsZero() {
		t.Fatalf("defaults not applied: %+v", event)
	}
	if event.Topic != "audit.Company.create" || string(event.PayloadJSON) != `{"event_id":"e-1"}` {
		t.Fatalf("event altered in round trip: %+v", event)
	}
}

func TestOutboxRepositoryDispatchLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository(openTestDB(t))

	if err := repo.Enqueue(ctx, domain.OutboxEvent{EventID: "e-1", Topic: "t", PayloadJSON: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	pending, err := repo.FetchPending(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("fetch pending: %v (%d)", err, len(pending))
	}

	if err := repo.MarkDispatched(ctx, pending[0].ID); err != nil {
		t.Fatalf("mark dispatched: %v", err)
	}
	pending, err = repo.FetchPending(ctx, 10)
	if err != nil {
		t.Fatalf("fetch after dispatch: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("dispatched event still pending: %+v", pending)
	}
}

func TestOutboxRepositoryFailedEventWaitsForBackoff(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository(openTestDB(t))

	if err := repo.Enqueue(ctx, domain.OutboxEvent{EventID: "e-1", Topic: "t", PayloadJSON: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	pending, err := repo.FetchPending(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("fetch pending: %v (%d)", err, len(pending))
	}
	id := pending[0].ID

	next := time.Now().UTC().Add(time.Hour).Format(time.RFC3339Nano)
	if err := repo.MarkFailed(ctx, id, 1, next, "receiver down"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	pending, err = repo.FetchPending(ctx, 10)
	if err != nil {
		t.Fatalf("fetch after failure: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("backoff not honored: %+v", pending)
	}

	past := time.Now().UTC().Add(-time.Minute).Format(time.RFC3339Nano)
	if err := repo.MarkFailed(ctx, id, 2, past, "receiver down"); err != nil {
		t.Fatalf("mark failed again: %v", err)
	}
	pending, err = repo.FetchPending(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected event eligible again: %v (%d)", err, len(pending))
	}
	if pending[0].Attempts != 2 || pending[0].LastError != "receiver down" {
		t.Fatalf("failure bookkeeping wrong: %+v", pending[0])
	}
}

func TestOutboxRepositoryDeadEventsStayOut(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository(openTestDB(t))

	if err := repo.Enqueue(ctx, domain.OutboxEvent{EventID: "e-1", Topic: "t", PayloadJSON: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	pending, err := repo.FetchPending(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("fetch pending: %v (%d)", err, len(pending))
	}

	if err := repo.MarkDead(ctx, pending[0].ID, 5, "gave up"); err != nil {
		t.Fatalf("mark dead: %v", err)
	}
	pending, err = repo.FetchPending(ctx, 10)
	if err != nil {
		t.Fatalf("fetch after dead: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("dead event still pending: %+v", pending)
	}
}
