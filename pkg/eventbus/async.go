package eventbus

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/class-engine-api/pkg/jobs"
)

const jobTypePublish = "eventbus.publish"

// AsyncPublisher hands envelopes to a worker queue so request handlers never
// wait on the broker. Failed deliveries are retried by the queue.
type AsyncPublisher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAsyncPublisher wraps next with a retrying worker pool. Call Start before publishing.
func NewAsyncPublisher(next Publisher, cfg jobs.QueueConfig) *AsyncPublisher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.OnGiveUp == nil {
		logger := cfg.Logger
		cfg.OnGiveUp = func(job jobs.Job, err error) {
			logger.Error("event dropped", zap.String("event_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
		}
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		env, ok := job.Payload.(Envelope)
		if !ok {
			return fmt.Errorf("unexpected payload %T", job.Payload)
		}
		return next.Publish(ctx, env)
	}
	return &AsyncPublisher{
		queue:  jobs.NewQueue("events", handler, cfg),
		logger: cfg.Logger,
	}
}

// Start launches the workers.
func (p *AsyncPublisher) Start(ctx context.Context) {
	p.queue.Start(ctx)
}

// Stop flushes buffered envelopes until ctx expires. Whatever is left is dropped.
func (p *AsyncPublisher) Stop(ctx context.Context) {
	p.queue.Stop(ctx)
}

// Publish implements Publisher by enqueueing one job per envelope.
func (p *AsyncPublisher) Publish(_ context.Context, envelopes ...Envelope) error {
	for _, env := range envelopes {
		job := jobs.Job{ID: env.ID, Type: jobTypePublish, Payload: env}
		if err := p.queue.TryEnqueue(job); err != nil {
			if errors.Is(err, jobs.ErrQueueFull) {
				return fmt.Errorf("%w: %v", ErrBackpressure, err)
			}
			return fmt.Errorf("%w: %v", ErrClosed, err)
		}
	}
	return nil
}
