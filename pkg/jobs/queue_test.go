package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)
	q := NewQueue("exports", func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen[job.ID]++
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id, Type: "export"}))
	}
	require.Eventually(t, func() bool { return q.Stats().Processed == 3 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, seen)
}

func TestQueueRetriesUntilLimit(t *testing.T) {
	var mu sync.Mutex
	var attempts []int
	q := NewQueue("exports", func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts = append(attempts, job.Attempt)
		return errors.New("render failed")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.Eventually(t, func() bool { return q.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)

	stats := q.Stats()
	assert.Equal(t, uint64(2), stats.Retried)
	assert.Zero(t, stats.Processed)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, attempts)
}

func TestQueueRetrySucceeds(t *testing.T) {
	q := NewQueue("exports", func(_ context.Context, job Job) error {
		if job.Attempt == 0 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.Eventually(t, func() bool { return q.Stats().Processed == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(1), q.Stats().Retried)
}

func TestQueueEnqueueRequiresStart(t *testing.T) {
	q := NewQueue("exports", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.ErrorIs(t, q.Enqueue(Job{ID: "a"}), ErrNotStarted)

	q.Start(context.Background())
	assert.True(t, q.Stats().Running)
	q.Stop()
	assert.False(t, q.Stats().Running)
	assert.ErrorIs(t, q.Enqueue(Job{ID: "b"}), ErrNotStarted)
}
