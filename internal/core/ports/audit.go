package ports

import (
	"context"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

// AuditStore is the append-and-query persistence contract of the audit
// trail. Append inserts exactly one record; there is no update or delete.
type AuditStore interface {
	Append(ctx context.Context, rec domain.AuditRecord) error
	ListByEntity(ctx context.Context, entityKind, entityID string) ([]domain.AuditRecord, error)
}

// ActorResolver supplies the acting identity at capture time. The second
// return value is false when no authenticated session is available, which is
// not an error.
type ActorResolver interface {
	CurrentActor(ctx context.Context) (domain.Actor, bool)
}
