package eventbus

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes envelopes to the structured log. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher constructs a logging publisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(_ context.Context, envelopes ...Envelope) error {
	for _, env := range envelopes {
		p.logger.Info("domain event",
			zap.String("event_id", env.ID),
			zap.String("event_type", env.Type),
			zap.String("aggregate_id", env.AggregateID),
			zap.Time("occurred_at", env.OccurredAt),
			zap.Any("payload", env.Payload),
		)
	}
	return nil
}
