package ports

import (
	"context"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	Upsert(ctx context.Context, user domain.User) error
}

type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	FindByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error)
	Delete(ctx context.Context, tokenHash string) (bool, error)
}
