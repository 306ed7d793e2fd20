package eventbus

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrClosed is returned when publishing on a stopped bus.
var ErrClosed = errors.New("event bus closed")

// ErrBackpressure is returned when the outbound buffer is full.
var ErrBackpressure = errors.New("event bus backlog full")

// Envelope is the wire form of a domain event.
type Envelope struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// Publisher delivers envelopes to subscribers outside the process.
type Publisher interface {
	Publish(ctx context.Context, envelopes ...Envelope) error
}

// Channel returns the pub/sub channel for an event type, e.g. "class-engine.attendance.marked".
func Channel(prefix, eventType string) string {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// Multi fans envelopes out to every publisher and joins their errors.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, envelopes ...Envelope) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, envelopes...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
