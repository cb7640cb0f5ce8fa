package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
	"github.com/atvirokodosprendimai/crmapi/internal/core/ports"
)

// EntityService is the business CRUD layer. It owns its own commit; the
// audit recorder is invoked strictly afterwards and cannot influence the
// returned result.
type EntityService struct {
	repo     ports.EntityRepository
	schemas  *SchemaService
	recorder *Recorder
}

func NewEntityService(repo ports.EntityRepository, schemas *SchemaService, recorder *Recorder) *EntityService {
	return &EntityService{repo: repo, schemas: schemas, recorder: recorder}
}

func (s *EntityService) Create(ctx context.Context, kind, id string, data json.RawMessage) (domain.Entity, error) {
	entity := domain.Entity{Kind: kind, ID: id, Data: data}
	if err := entity.Validate(); err != nil {
		return domain.Entity{}, err
	}
	if err := s.schemas.Validate(kind, data); err != nil {
		return domain.Entity{}, err
	}

	created, err := s.repo.Insert(ctx, entity)
	if err != nil {
		return domain.Entity{}, err
	}

	s.recorder.Record(ctx, kind, id, domain.ActionCreate, domain.SnapshotDiff(created.Data))
	return created, nil
}

func (s *EntityService) Update(ctx context.Context, kind, id string, data json.RawMessage) (domain.Entity, error) {
	entity := domain.Entity{Kind: kind, ID: id, Data: data}
	if err := entity.Validate(); err != nil {
		return domain.Entity{}, err
	}
	if err := s.schemas.Validate(kind, data); err != nil {
		return domain.Entity{}, err
	}

	before, err := s.repo.Get(ctx, kind, id)
	if err != nil {
		return domain.Entity{}, err
	}

	updated, err := s.repo.Update(ctx, entity)
	if err != nil {
		return domain.Entity{}, err
	}

	changes, err := diffDocuments(before.Data, updated.Data)
	if err != nil {
		// The mutation already committed; fall back to a snapshot so
		// the trail still records that something changed.
		s.recorder.Record(ctx, kind, id, domain.ActionUpdate, domain.SnapshotDiff(updated.Data))
		return updated, nil
	}

	switch len(changes) {
	case 0:
		// No-op update, nothing worth recording.
	case 1:
		c := changes[0]
		s.recorder.Record(ctx, kind, id, domain.ActionUpdate, domain.SingleFieldDiff(c.Field, c.OldValue, c.NewValue))
	default:
		s.recorder.Record(ctx, kind, id, domain.ActionUpdate, domain.MultiFieldDiff(changes))
	}
	return updated, nil
}

func (s *EntityService) Get(ctx context.Context, kind, id string) (domain.Entity, error) {
	if err := domain.ValidateKind(kind); err != nil {
		return domain.Entity{}, err
	}
	if err := domain.ValidateID(id); err != nil {
		return domain.Entity{}, err
	}
	return s.repo.Get(ctx, kind, id)
}

func (s *EntityService) Delete(ctx context.Context, kind, id string) (bool, error) {
	if err := domain.ValidateKind(kind); err != nil {
		return false, err
	}
	if err := domain.ValidateID(id); err != nil {
		return false, err
	}

	before, err := s.repo.Get(ctx, kind, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, kind, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.recorder.Record(ctx, kind, id, domain.ActionDelete, domain.SnapshotDiff(before.Data))
	}
	return deleted, nil
}

func (s *EntityService) List(ctx context.Context, kind string, filter domain.EntityFilter) ([]domain.Entity, error) {
	if err := domain.ValidateKind(kind); err != nil {
		return nil, err
	}
	if filter.AfterID != "" {
		if err := domain.ValidateID(filter.AfterID); err != nil {
			return nil, err
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.repo.List(ctx, kind, filter)
}

// diffDocuments compares two JSON documents field by field at the top level
// and returns the changed fields in ascending field order.
func diffDocuments(before, after json.RawMessage) ([]domain.Change, error) {
	var beforeDoc, afterDoc map[string]any
	if err := json.Unmarshal(before, &beforeDoc); err != nil {
		return nil, fmt.Errorf("decode previous document: %w", err)
	}
	if err := json.Unmarshal(after, &afterDoc); err != nil {
		return nil, fmt.Errorf("decode updated document: %w", err)
	}

	fields := make(map[string]struct{}, len(beforeDoc)+len(afterDoc))
	for field := range beforeDoc {
		fields[field] = struct{}{}
	}
	for field := range afterDoc {
		fields[field] = struct{}{}
	}

	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)

	var changes []domain.Change
	for _, field := range names {
		oldValue := beforeDoc[field]
		newValue := afterDoc[field]
		if reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		changes = append(changes, domain.Change{Field: field, OldValue: oldValue, NewValue: newValue})
	}
	return changes, nil
}
