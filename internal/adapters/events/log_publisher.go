package events

import (
	"context"
	"log"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

// LogPublisher is the default notification sink when no webhook is
// configured: envelopes are written to the process log and considered
// delivered.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(_ context.Context, topic string, envelope domain.ChangeEnvelope) error {
	log.Printf("change published topic=%s event_id=%s entity=%s/%s action=%s actor=%s", topic, envelope.EventID, envelope.EntityKind, envelope.EntityID, envelope.Action, envelope.ActorID)
	return nil
}
