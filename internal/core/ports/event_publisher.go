package ports

import (
	"context"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic string, envelope domain.ChangeEnvelope) error
}
