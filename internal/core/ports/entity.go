package ports

import (
	"context"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

type EntityRepository interface {
	Insert(ctx context.Context, entity domain.Entity) (domain.Entity, error)
	Update(ctx context.Context, entity domain.Entity) (domain.Entity, error)
	Get(ctx context.Context, kind, id string) (domain.Entity, error)
	Delete(ctx context.Context, kind, id string) (bool, error)
	List(ctx context.Context, kind string, filter domain.EntityFilter) ([]domain.Entity, error)
}
