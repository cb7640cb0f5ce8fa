package ports

import (
	"context"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, event domain.OutboxEvent) error
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt string, errMsg string) error
	MarkDead(ctx context.Context, id int64, attempts int, errMsg string) error
}
