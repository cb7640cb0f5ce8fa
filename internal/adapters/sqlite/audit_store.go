package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/crmapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

type auditLogModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	EntityKind  string    `gorm:"column:entity_kind;not null"`
	EntityID    string    `gorm:"column:entity_id;not null"`
	Action      string    `gorm:"column:action;not null"`
	Field       string    `gorm:"column:field"`
	OldValue    string    `gorm:"column:old_value"`
	NewValue    string    `gorm:"column:new_value"`
	ChangesJSON string    `gorm:"column:changes_json"`
	ActorID     string    `gorm:"column:actor_id"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (auditLogModel) TableName() string {
	return "audit_logs"
}

// AuditStore persists audit records append-only; no update or delete path
// exists for audit_logs rows.
type AuditStore struct {
	db *gormsqlite.DB
}

func NewAuditStore(db *gormsqlite.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Append(ctx context.Context, rec domain.AuditRecord) error {
	model := auditLogModel{
		EntityKind: rec.EntityKind,
		EntityID:   rec.EntityID,
		Action:     string(rec.Action),
		Field:      rec.Field,
		OldValue:   string(rec.OldValue),
		NewValue:   string(rec.NewValue),
		ActorID:    rec.ActorID,
		CreatedAt:  rec.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if len(rec.Changes) > 0 {
		encoded, err := json.Marshal(rec.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes: %w", err)
		}
		model.ChangesJSON = string(encoded)
	}

	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (s *AuditStore) ListByEntity(ctx context.Context, entityKind, entityID string) ([]domain.AuditRecord, error) {
	var rows []auditLogModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&auditLogModel{}).
			Where("entity_kind = ? AND entity_id = ?", entityKind, entityID).
			Order("created_at DESC, id DESC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}

	records := make([]domain.AuditRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := toAuditRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func toAuditRecord(row auditLogModel) (domain.AuditRecord, error) {
	rec := domain.AuditRecord{
		ID:         row.ID,
		EntityKind: row.EntityKind,
		EntityID:   row.EntityID,
		Action:     domain.Action(row.Action),
		Field:      row.Field,
		ActorID:    row.ActorID,
		CreatedAt:  row.CreatedAt,
	}
	if row.OldValue != "" {
		rec.OldValue = json.RawMessage(row.OldValue)
	}
	if row.NewValue != "" {
		rec.NewValue = json.RawMessage(row.NewValue)
	}
	if row.ChangesJSON != "" {
		if err := json.Unmarshal([]byte(row.ChangesJSON), &rec.Changes); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("decode changes of record %d: %w", row.ID, err)
		}
	}
	return rec, nil
}
