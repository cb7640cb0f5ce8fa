package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

type stubUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (domain.User, error)
	findByEmailFn func(ctx context.Context, email string) (domain.User, error)
	findByIDCalls int
}

func (s *stubUserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	s.findByIDCalls++
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	if s.findByEmailFn != nil {
		return s.findByEmailFn(ctx, email)
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *stubUserRepo) Upsert(context.Context, domain.User) error { return nil }

func TestHistoryQueryRequiresEntityReference(t *testing.T) {
	store := &stubAuditStore{}
	svc := NewHistoryService(store, &stubUserRepo{})

	if _, err := svc.Query(context.Background(), "", "c-1"); !errors.Is(err, domain.ErrMissingEntityKind) {
		t.Fatalf("expected missing kind error, got %v", err)
	}
	if _, err := svc.Query(context.Background(), domain.KindCompany, ""); !errors.Is(err, domain.ErrMissingEntityID) {
		t.Fatalf("expected missing id error, got %v", err)
	}
	if store.listCalls != 0 {
		t.Fatalf("validation must reject before touching the store, got %d calls", store.listCalls)
	}
}

func TestHistoryQueryJoinsActorAndAnnotates(t *testing.T) {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	store := &stubAuditStore{records: []domain.AuditRecord{{
		ID:         7,
		EntityKind: domain.KindSalesOpportunity,
		EntityID:   "o-1",
		Action:     domain.ActionUpdate,
		Field:      "status",
		OldValue:   json.RawMessage(`"estimating"`),
		NewValue:   json.RawMessage(`"won"`),
		ActorID:    "u-1",
		CreatedAt:  created,
	}}}
	users := &stubUserRepo{findByIDFn: func(_ context.Context, id string) (domain.User, error) {
		if id != "u-1" {
			t.Fatalf("unexpected actor lookup %q", id)
		}
		return domain.User{ID: "u-1", Name: "山田太郎", Email: "yamada@example.jp"}, nil
	}}

	entries, err := NewHistoryService(store, users).Query(context.Background(), domain.KindSalesOpportunity, "o-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Actor == nil || entry.Actor.Name != "山田太郎" {
		t.Fatalf("actor not joined: %+v", entry.Actor)
	}
	if entry.Display.FieldLabel != "ステータス" {
		t.Fatalf("unexpected field label %q", entry.Display.FieldLabel)
	}
	if entry.Display.OldValue != "見積中" || entry.Display.NewValue != "受注" {
		t.Fatalf("unexpected display values %q -> %q", entry.Display.OldValue, entry.Display.NewValue)
	}
	// the stored raw values remain untouched next to the annotations
	if string(entry.Record.OldValue) != `"estimating"` || string(entry.Record.NewValue) != `"won"` {
		t.Fatalf("raw values altered: %s -> %s", entry.Record.OldValue, entry.Record.NewValue)
	}
}

func TestHistoryQueryCachesActorLookups(t *testing.T) {
	store := &stubAuditStore{records: []domain.AuditRecord{
		{EntityKind: domain.KindCompany, EntityID: "c-1", Action: domain.ActionUpdate, Field: "name", ActorID: "u-1"},
		{EntityKind: domain.KindCompany, EntityID: "c-1", Action: domain.ActionUpdate, Field: "note", ActorID: "u-1"},
		{EntityKind: domain.KindCompany, EntityID: "c-1", Action: domain.ActionCreate, ActorID: "u-2"},
	}}
	users := &stubUserRepo{findByIDFn: func(_ context.Context, id string) (domain.User, error) {
		return domain.User{ID: id, Name: id}, nil
	}}

	if _, err := NewHistoryService(store, users).Query(context.Background(), domain.KindCompany, "c-1"); err != nil {
		t.Fatalf("query: %v", err)
	}
	if users.findByIDCalls != 2 {
		t.Fatalf("expected one lookup per distinct actor, got %d", users.findByIDCalls)
	}
}

func TestHistoryQueryToleratesDeletedActor(t *testing.T) {
	store := &stubAuditStore{records: []domain.AuditRecord{{
		EntityKind: domain.KindCompany,
		EntityID:   "c-1",
		Action:     domain.ActionDelete,
		NewValue:   json.RawMessage(`{"name":"旧会社"}`),
		ActorID:    "u-gone",
	}}}

	entries, err := NewHistoryService(store, &stubUserRepo{}).Query(context.Background(), domain.KindCompany, "c-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if entries[0].Actor != nil {
		t.Fatalf("expected nil actor for a deleted user, got %+v", entries[0].Actor)
	}
}

func TestHistoryQueryPropagatesUserLookupError(t *testing.T) {
	store := &stubAuditStore{records: []domain.AuditRecord{{
		EntityKind: domain.KindCompany, EntityID: "c-1", Action: domain.ActionCreate, ActorID: "u-1",
	}}}
	users := &stubUserRepo{findByIDFn: func(context.Context, string) (domain.User, error) {
		return domain.User{}, errors.New("connection reset")
	}}

	if _, err := NewHistoryService(store, users).Query(context.Background(), domain.KindCompany, "c-1"); err == nil {
		t.Fatal("expected lookup error to propagate")
	}
}

func TestHistoryQueryAnnotatesMultiFieldChanges(t *testing.T) {
	store := &stubAuditStore{records: []domain.AuditRecord{{
		EntityKind: domain.KindCompany,
		EntityID:   "c-1",
		Action:     domain.ActionUpdate,
		Changes: []domain.FieldChange{
			{Field: "billingFlag", OldValue: json.RawMessage(`false`), NewValue: json.RawMessage(`true`)},
			{Field: "employeeCount", OldValue: json.RawMessage(`10`), NewValue: json.RawMessage(`1500000`)},
		},
	}}}

	entries, err := NewHistoryService(store, &stubUserRepo{}).Query(context.Background(), domain.KindCompany, "c-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	changes := entries[0].Display.Changes
	if len(changes) != 2 {
		t.Fatalf("expected 2 annotated changes, got %d", len(changes))
	}
	if changes[0].FieldLabel != "請求対象" || changes[0].OldValue != "無効" || changes[0].NewValue != "有効" {
		t.Fatalf("unexpected flag annotation: %+v", changes[0])
	}
	if changes[1].FieldLabel != "従業員数" || changes[1].NewValue != "1,500,000" {
		t.Fatalf("unexpected count annotation: %+v", changes[1])
	}
}

func TestHistoryQueryFormatsAbsentValues(t *testing.T) {
	store := &stubAuditStore{records: []domain.AuditRecord{{
		EntityKind: domain.KindCompany,
		EntityID:   "c-1",
		Action:     domain.ActionUpdate,
		Field:      "note",
		NewValue:   json.RawMessage(`"初回訪問済み"`),
	}}}

	entries, err := NewHistoryService(store, &stubUserRepo{}).Query(context.Background(), domain.KindCompany, "c-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if entries[0].Display.OldValue != "未設定" {
		t.Fatalf("expected absent old value marker, got %q", entries[0].Display.OldValue)
	}
}
