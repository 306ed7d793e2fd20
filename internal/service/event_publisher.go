package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/class-engine-api/internal/domain/classroom"
	"github.com/noah-isme/class-engine-api/pkg/eventbus"
)

// DomainEventPublisher converts class events into bus envelopes.
type DomainEventPublisher struct {
	bus     eventbus.Publisher
	metrics *MetricsService
}

var _ classroom.EventPublisher = (*DomainEventPublisher)(nil)

// NewDomainEventPublisher constructs the adapter.
func NewDomainEventPublisher(bus eventbus.Publisher, metrics *MetricsService) *DomainEventPublisher {
	return &DomainEventPublisher{bus: bus, metrics: metrics}
}

// Publish implements classroom.EventPublisher.
func (p *DomainEventPublisher) Publish(ctx context.Context, events ...classroom.Event) error {
	if p == nil || p.bus == nil || len(events) == 0 {
		return nil
	}
	envelopes := make([]eventbus.Envelope, 0, len(events))
	for _, event := range events {
		envelopes = append(envelopes, ToEnvelope(event))
	}
	err := p.bus.Publish(ctx, envelopes...)
	for _, env := range envelopes {
		if err != nil {
			p.metrics.RecordPublishFailure(env.Type)
			continue
		}
		p.metrics.RecordDomainEvent(env.Type)
	}
	return err
}

// ToEnvelope wraps a domain event with a fresh id.
func ToEnvelope(event classroom.Event) eventbus.Envelope {
	return eventbus.Envelope{
		ID:          uuid.NewString(),
		Type:        string(event.EventType()),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	}
}
