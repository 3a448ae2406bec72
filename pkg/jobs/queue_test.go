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

func TestQueueRequiresStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	_, err := q.Enqueue("calendar")
	assert.Error(t, err)
}

func TestQueueCoalescesPendingKeys(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	seen := map[string]int{}
	handler := func(_ context.Context, job Job) error {
		<-release
		mu.Lock()
		seen[job.Key]++
		mu.Unlock()
		return nil
	}
	q := NewQueue("test", handler, QueueConfig{Workers: 1, BufferSize: 8})
	q.Start(context.Background())
	defer q.Stop()

	// first job occupies the worker, the rest wait in the buffer
	ok, err := q.Enqueue("calendar")
	require.NoError(t, err)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.pending) == 0
	}, time.Second, 5*time.Millisecond)

	first, err := q.Enqueue("employees")
	require.NoError(t, err)
	second, err := q.Enqueue("employees")
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	close(release)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["calendar"] == 1 && seen["employees"] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesFailures(t *testing.T) {
	var calls int32
	handler := func(context.Context, Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("redis unavailable")
		}
		return nil
	}
	q := NewQueue("test", handler, QueueConfig{MaxRetries: 5, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue("calendar")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 3 }, time.Second, 5*time.Millisecond)
}
