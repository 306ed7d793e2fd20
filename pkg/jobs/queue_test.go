package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	handler := func(_ context.Context, job Job) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}
	q := NewQueue("test", handler, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "noop"}))
	assert.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var (
		mu       sync.Mutex
		gaveUp   []Job
		attempts atomic.Int32
	)
	handler := func(context.Context, Job) error {
		attempts.Add(1)
		return errors.New("permanent")
	}
	q := NewQueue("test", handler, QueueConfig{
		Workers:    1,
		MaxRetries: 1,
		RetryDelay: 5 * time.Millisecond,
		OnGiveUp: func(job Job, _ error) {
			mu.Lock()
			defer mu.Unlock()
			gaveUp = append(gaveUp, job)
		},
	})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(gaveUp) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "job-1", gaveUp[0].ID)
	assert.Equal(t, 2, gaveUp[0].Attempt)
	assert.EqualValues(t, 2, attempts.Load())
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})

	assert.ErrorIs(t, q.Enqueue(Job{ID: "a"}), ErrNotStarted)
	assert.ErrorIs(t, q.TryEnqueue(Job{ID: "a"}), ErrNotStarted)

	q.Start(context.Background())
	q.Stop(context.Background())
	assert.ErrorIs(t, q.TryEnqueue(Job{ID: "b"}), ErrNotStarted)
}

func TestQueueTryEnqueueReportsFullBuffer(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	handler := func(ctx context.Context, _ Job) error {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}
	q := NewQueue("test", handler, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.TryEnqueue(Job{ID: "busy"}))
	<-started
	require.NoError(t, q.TryEnqueue(Job{ID: "buffered"}))
	assert.Equal(t, 1, q.Len())
	assert.ErrorIs(t, q.TryEnqueue(Job{ID: "overflow"}), ErrQueueFull)
	close(release)
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	var done atomic.Int32
	handler := func(context.Context, Job) error {
		time.Sleep(2 * time.Millisecond)
		done.Add(1)
		return nil
	}
	q := NewQueue("test", handler, QueueConfig{Workers: 2, BufferSize: 16})
	q.Start(context.Background())

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "noop"}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Stop(ctx)

	assert.EqualValues(t, 10, done.Load())
	assert.Zero(t, q.Len())
}

func TestQueueStampsEnqueueTime(t *testing.T) {
	seen := make(chan Job, 1)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		seen <- job
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "stamped"}))
	select {
	case job := <-seen:
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(time.Second):
		t.Fatal("job not processed")
	}
}
