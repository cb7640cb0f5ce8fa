package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

func TestEntityStoreInsertGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewEntityStore(openTestDB(t))

	created, err := store.Insert(ctx, domain.Entity{
		Kind: domain.KindCompany, ID: "c-1",
		Data: json.RawMessage(`{"name":"株式会社テスト","billingFlag":true}`),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps, got %+v", created)
	}

	got, err := store.Get(ctx, domain.KindCompany, "c-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Data) != `{"name":"株式会社テスト","billingFlag":true}` {
		t.Fatalf("data altered in round trip: %s", got.Data)
	}
}

func TestEntityStoreInsertConflict(t *testing.T) {
	ctx := context.Background()
	store := NewEntityStore(openTestDB(t))

	entity := domain.Entity{Kind: domain.KindCompany, ID: "c-1", Data: json.RawMessage(`{"name":"a"}`)}
	if _, err := store.Insert(ctx, entity); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.Insert(ctx, entity); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// the same id is free under a different kind
	if _, err := store.Insert(ctx, domain.Entity{Kind: domain.KindProject, ID: "c-1", Data: json.RawMessage(`{"name":"p"}`)}); err != nil {
		t.Fatalf("insert other kind: %v", err)
	}
}

func TestEntityStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewEntityStore(openTestDB(t))

	if _, err := store.Insert(ctx, domain.Entity{Kind: domain.KindCompany, ID: "c-1", Data: json.RawMessage(`{"name":"a"}`)}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := store.Update(ctx, domain.Entity{Kind: domain.KindCompany, ID: "c-1", Data: json.RawMessage(`{"name":"b"}`)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if string(updated.Data) != `{"name":"b"}` {
		t.Fatalf("unexpected data %s", updated.Data)
	}

	if _, err := store.Update(ctx, domain.Entity{Kind: domain.KindCompany, ID: "missing", Data: json.RawMessage(`{}`)}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEntityStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewEntityStore(openTestDB(t))

	if _, err := store.Insert(ctx, domain.Entity{Kind: domain.KindEquipment, ID: "e-1", Data: json.RawMessage(`{"name":"x"}`)}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	deleted, err := store.Delete(ctx, domain.KindEquipment, "e-1")
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = store.Delete(ctx, domain.KindEquipment, "e-1")
	if err != nil || deleted {
		t.Fatalf("second delete should report false: deleted=%v err=%v", deleted, err)
	}
	if _, err := store.Get(ctx, domain.KindEquipment, "e-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestEntityStoreListPagination(t *testing.T) {
	ctx := context.Background()
	store := NewEntityStore(openTestDB(t))

	for _, id := range []string{"c-3", "c-1", "c-2"} {
		if _, err := store.Insert(ctx, domain.Entity{Kind: domain.KindContact, ID: id, Data: json.RawMessage(`{"name":"x"}`)}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if _, err := store.Insert(ctx, domain.Entity{Kind: domain.KindCompany, ID: "c-0", Data: json.RawMessage(`{"name":"y"}`)}); err != nil {
		t.Fatalf("insert other kind: %v", err)
	}

	page, err := store.List(ctx, domain.KindContact, domain.EntityFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != "c-1" || page[1].ID != "c-2" {
		t.Fatalf("unexpected first page: %+v", page)
	}

	page, err = store.List(ctx, domain.KindContact, domain.EntityFilter{AfterID: "c-2", Limit: 10})
	if err != nil {
		t.Fatalf("list after: %v", err)
	}
	if len(page) != 1 || page[0].ID != "c-3" {
		t.Fatalf("unexpected second page: %+v", page)
	}
}
