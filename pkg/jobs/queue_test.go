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

type outcomeLog struct {
	mu       sync.Mutex
	outcomes []string
}

func (l *outcomeLog) observe(_ string, outcome string, _ time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes = append(l.outcomes, outcome)
}

func (l *outcomeLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.outcomes...)
}

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 2)
	log := &outcomeLog{}
	q := NewQueue[string]("reports", func(_ context.Context, job Job[string]) error {
		done <- job.ID + ":" + job.Payload
		return nil
	}, QueueConfig{Workers: 2, Observer: log.observe})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[string]{ID: "a", Payload: "csv"}))
	require.NoError(t, q.Enqueue(Job[string]{ID: "b", Payload: "pdf"}))

	got := []string{<-done, <-done}
	assert.ElementsMatch(t, []string{"a:csv", "b:pdf"}, got)
	assert.Eventually(t, func() bool { return len(log.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{OutcomeSucceeded, OutcomeSucceeded}, log.snapshot())
}

func TestQueueRetriesUntilLimit(t *testing.T) {
	var mu sync.Mutex
	attempts := []int{}
	log := &outcomeLog{}
	q := NewQueue[int]("reports", func(_ context.Context, job Job[int]) error {
		mu.Lock()
		attempts = append(attempts, job.Attempt)
		mu.Unlock()
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond, Observer: log.observe})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[int]{ID: "x"}))

	assert.Eventually(t, func() bool { return len(log.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{OutcomeRetried, OutcomeRetried, OutcomeFailed}, log.snapshot())
	mu.Lock()
	assert.Equal(t, []int{0, 1, 2}, attempts)
	mu.Unlock()
}

func TestEnqueueRequiresStart(t *testing.T) {
	q := NewQueue[int]("reports", func(context.Context, Job[int]) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job[int]{ID: "x"}))

	q.Start(context.Background())
	q.Stop()
	require.Error(t, q.Enqueue(Job[int]{ID: "y"}))
}
