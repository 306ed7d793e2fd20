package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/class-engine-api/pkg/jobs"
)

type published struct {
	channel string
	raw     []byte
}

type fakeRedis struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.messages = append(f.messages, published{channel: channel, raw: message.([]byte)})
	return redis.NewIntResult(1, nil)
}

type recordingPublisher struct {
	mu        sync.Mutex
	envelopes []Envelope
	failures  int
	calls     int
}

func (r *recordingPublisher) Publish(_ context.Context, envelopes ...Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failures > 0 {
		r.failures--
		return errors.New("broker unavailable")
	}
	r.envelopes = append(r.envelopes, envelopes...)
	return nil
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.envelopes)
}

func sampleEnvelope(id, eventType string) Envelope {
	return Envelope{
		ID:          id,
		Type:        eventType,
		AggregateID: "class-1",
		OccurredAt:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Payload:     map[string]interface{}{"student_id": "student-1"},
	}
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "class-engine.attendance.marked", Channel("class-engine", "attendance.marked"))
	assert.Equal(t, "class-engine.attendance.marked", Channel("class-engine.", "attendance.marked"))
	assert.Equal(t, "attendance.marked", Channel(" ", "attendance.marked"))
}

func TestRedisPublisherPublishesPerType(t *testing.T) {
	client := &fakeRedis{}
	pub := NewRedisPublisher(client, "class-engine")

	err := pub.Publish(context.Background(), sampleEnvelope("evt-1", "class.created"), sampleEnvelope("evt-2", "enrollment.student_enrolled"))
	require.NoError(t, err)
	require.Len(t, client.messages, 2)
	assert.Equal(t, "class-engine.class.created", client.messages[0].channel)
	assert.Equal(t, "class-engine.enrollment.student_enrolled", client.messages[1].channel)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(client.messages[1].raw, &decoded))
	assert.Equal(t, "evt-2", decoded.ID)
	assert.Equal(t, "student-1", decoded.Payload["student_id"])
}

func TestRedisPublisherReturnsClientError(t *testing.T) {
	pub := NewRedisPublisher(&fakeRedis{err: errors.New("connection refused")}, "class-engine")
	err := pub.Publish(context.Background(), sampleEnvelope("evt-1", "class.created"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "class-engine.class.created")
}

func TestAsyncPublisherRetriesFailures(t *testing.T) {
	next := &recordingPublisher{failures: 1}
	pub := NewAsyncPublisher(next, jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	pub.Start(context.Background())
	defer pub.Stop(context.Background())

	require.NoError(t, pub.Publish(context.Background(), sampleEnvelope("evt-1", "class.created")))
	assert.Eventually(t, func() bool { return next.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestAsyncPublisherRejectsWhenStopped(t *testing.T) {
	pub := NewAsyncPublisher(&recordingPublisher{}, jobs.QueueConfig{Workers: 1})
	err := pub.Publish(context.Background(), sampleEnvelope("evt-1", "class.created"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAsyncPublisherFlushesOnStop(t *testing.T) {
	next := &recordingPublisher{}
	pub := NewAsyncPublisher(next, jobs.QueueConfig{Workers: 1, BufferSize: 8})
	pub.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Publish(context.Background(), sampleEnvelope("evt", "attendance.marked")))
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	pub.Stop(ctx)

	assert.Equal(t, 5, next.count())
	assert.ErrorIs(t, pub.Publish(context.Background(), sampleEnvelope("evt", "attendance.marked")), ErrClosed)
}

func TestLogPublisherWritesFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	pub := NewLogPublisher(zap.New(core))

	require.NoError(t, pub.Publish(context.Background(), sampleEnvelope("evt-1", "lesson.unlocked")))
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "lesson.unlocked", entries[0].ContextMap()["event_type"])
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{failures: 1}
	err := Multi{ok, nil, failing}.Publish(context.Background(), sampleEnvelope("evt-1", "class.created"))
	require.Error(t, err)
	assert.Equal(t, 1, ok.count())
}

func TestMultiMirrorsOnceWhileQueueRetries(t *testing.T) {
	broker := &recordingPublisher{failures: 2}
	bus := NewAsyncPublisher(broker, jobs.QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	core, logs := observer.New(zap.InfoLevel)
	mirrored := Multi{bus, NewLogPublisher(zap.New(core))}

	require.NoError(t, mirrored.Publish(context.Background(), sampleEnvelope("evt-1", "attendance.marked")))
	assert.Eventually(t, func() bool { return broker.count() == 1 }, time.Second, 5*time.Millisecond)

	broker.mu.Lock()
	assert.Equal(t, 3, broker.calls)
	broker.mu.Unlock()
	assert.Equal(t, 1, logs.FilterMessage("domain event").Len())
}
