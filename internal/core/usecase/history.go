package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atvirokodosprendimai/crmapi/internal/core/display"
	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
	"github.com/atvirokodosprendimai/crmapi/internal/core/ports"
)

// HistoryService is the read path of the audit trail: it reconstructs the
// full change history of one entity, newest first, with the recording actor
// joined in and display annotations attached. Raw stored values are returned
// untouched alongside the annotations.
type HistoryService struct {
	store ports.AuditStore
	users ports.UserRepository
}

func NewHistoryService(store ports.AuditStore, users ports.UserRepository) *HistoryService {
	return &HistoryService{store: store, users: users}
}

// HistoryEntry is one audit record with its actor summary and presentation
// annotations. Actor is nil when no actor was recorded or the user no longer
// exists.
type HistoryEntry struct {
	Record  domain.AuditRecord
	Actor   *domain.Actor
	Display EntryDisplay
}

type EntryDisplay struct {
	FieldLabel string
	OldValue   string
	NewValue   string
	Changes    []ChangeDisplay
}

type ChangeDisplay struct {
	FieldLabel string
	OldValue   string
	NewValue   string
}

func (s *HistoryService) Query(ctx context.Context, entityKind, entityID string) ([]HistoryEntry, error) {
	if entityKind == "" {
		return nil, domain.ErrMissingEntityKind
	}
	if entityID == "" {
		return nil, domain.ErrMissingEntityID
	}

	records, err := s.store.ListByEntity(ctx, entityKind, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}

	actors := map[string]*domain.Actor{}
	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		actor, err := s.actorSummary(ctx, rec.ActorID, actors)
		if err != nil {
			return nil, err
		}
		entries = append(entries, HistoryEntry{
			Record:  rec,
			Actor:   actor,
			Display: buildDisplay(rec),
		})
	}
	return entries, nil
}

func (s *HistoryService) actorSummary(ctx context.Context, actorID string, cache map[string]*domain.Actor) (*domain.Actor, error) {
	if actorID == "" {
		return nil, nil
	}
	if actor, ok := cache[actorID]; ok {
		return actor, nil
	}

	user, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The user may have been deleted after recording; the
			// history entry survives without a summary.
			cache[actorID] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("resolve actor %s: %w", actorID, err)
	}

	actor := user.Actor()
	cache[actorID] = &actor
	return &actor, nil
}

func buildDisplay(rec domain.AuditRecord) EntryDisplay {
	if len(rec.Changes) > 0 {
		changes := make([]ChangeDisplay, 0, len(rec.Changes))
		for _, c := range rec.Changes {
			changes = append(changes, ChangeDisplay{
				FieldLabel: display.Label(rec.EntityKind, c.Field),
				OldValue:   formatRaw(c.OldValue, c.Field),
				NewValue:   formatRaw(c.NewValue, c.Field),
			})
		}
		return EntryDisplay{Changes: changes}
	}

	d := EntryDisplay{
		OldValue: formatRaw(rec.OldValue, rec.Field),
		NewValue: formatRaw(rec.NewValue, rec.Field),
	}
	if rec.Field != "" {
		d.FieldLabel = display.Label(rec.EntityKind, rec.Field)
	}
	return d
}

func formatRaw(raw json.RawMessage, field string) string {
	if len(raw) == 0 {
		return display.FormatValue(nil, field)
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return string(raw)
	}
	return display.FormatValue(value, field)
}
