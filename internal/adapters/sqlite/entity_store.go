package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/crmapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
	"gorm.io/gorm"
)

type businessRecordModel struct {
	EntityKind string    `gorm:"column:entity_kind;primaryKey"`
	RecordID   string    `gorm:"column:record_id;primaryKey"`
	Data       string    `gorm:"column:data;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (businessRecordModel) TableName() string {
	return "business_records"
}

type EntityStore struct {
	db *gormsqlite.DB
}

func NewEntityStore(db *gormsqlite.DB) *EntityStore {
	return &EntityStore{db: db}
}

func (s *EntityStore) Insert(ctx context.Context, entity domain.Entity) (domain.Entity, error) {
	now := time.Now().UTC()
	model := businessRecordModel{
		EntityKind: entity.Kind,
		RecordID:   entity.ID,
		Data:       string(entity.Data),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		var existing businessRecordModel
		err := tx.Where("entity_kind = ? AND record_id = ?", entity.Kind, entity.ID).First(&existing).Error
		switch {
		case err == nil:
			return domain.ErrConflict
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("check existing record: %w", err)
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Entity{}, domain.ErrConflict
		}
		return domain.Entity{}, fmt.Errorf("insert record: %w", err)
	}

	return toEntity(model), nil
}

func (s *EntityStore) Update(ctx context.Context, entity domain.Entity) (domain.Entity, error) {
	var model businessRecordModel
	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Where("entity_kind = ? AND record_id = ?", entity.Kind, entity.ID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("load record: %w", err)
		}

		model.Data = string(entity.Data)
		model.UpdatedAt = time.Now().UTC()
		return tx.Model(&businessRecordModel{}).
			Where("entity_kind = ? AND record_id = ?", entity.Kind, entity.ID).
			Updates(map[string]any{"data": model.Data, "updated_at": model.UpdatedAt}).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Entity{}, domain.ErrNotFound
		}
		return domain.Entity{}, fmt.Errorf("update record: %w", err)
	}

	return toEntity(model), nil
}

func (s *EntityStore) Get(ctx context.Context, kind, id string) (domain.Entity, error) {
	var model businessRecordModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("entity_kind = ? AND record_id = ?", kind, id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Entity{}, domain.ErrNotFound
		}
		return domain.Entity{}, fmt.Errorf("get record: %w", err)
	}
	return toEntity(model), nil
}

func (s *EntityStore) Delete(ctx context.Context, kind, id string) (bool, error) {
	deleted := false
	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("entity_kind = ? AND record_id = ?", kind, id).Delete(&businessRecordModel{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	return deleted, nil
}

func (s *EntityStore) List(ctx context.Context, kind string, filter domain.EntityFilter) ([]domain.Entity, error) {
	var models []businessRecordModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&businessRecordModel{}).Where("entity_kind = ?", kind)
		if filter.AfterID != "" {
			query = query.Where("record_id > ?", filter.AfterID)
		}
		return query.Order("record_id ASC").Limit(filter.Limit).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	entities := make([]domain.Entity, 0, len(models))
	for _, model := range models {
		entities = append(entities, toEntity(model))
	}
	return entities, nil
}

func toEntity(model businessRecordModel) domain.Entity {
	return domain.Entity{
		Kind:      model.EntityKind,
		ID:        model.RecordID,
		Data:      json.RawMessage(model.Data),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
