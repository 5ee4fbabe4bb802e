package notify

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

var ErrQueueClosed = errors.New("notification queue closed")

type job struct {
	name string
	fn   func(ctx context.Context) error
}

// Queue runs best-effort background work on a fixed pool of workers.
// Failures are logged and never retried.
type Queue struct {
	jobs    chan job
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue starts workers goroutines that drain a buffer of size jobs.
// Each job gets its own context bounded by timeout.
func NewQueue(workers, size int, timeout time.Duration) *Queue {
	q := &Queue{
		jobs:    make(chan job, size),
		timeout: timeout,
	}

	for w := range workers {
		q.wg.Add(1)

		go q.work(w)
	}

	return q
}

func (q *Queue) work(id int) {
	defer q.wg.Done()

	for j := range q.jobs {
		q.run(id, j)
	}
}

// run executes one job. A panic is logged and the worker keeps draining.
func (q *Queue) run(id int, j job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("background job panicked", "worker", id, "job", j.name, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	if err := j.fn(ctx); err != nil {
		slog.Error("background job failed", "worker", id, "job", j.name, "error", err)
	}
}

// Go enqueues fn without blocking. A full or closed queue drops the job and reports why.
func (q *Queue) Go(name string, fn func(ctx context.Context) error) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job{name: name, fn: fn}:
		return nil
	default:
		slog.Warn("notification queue full, dropping job", "job", name)
		return errors.New("notification queue full")
	}
}

// Close stops accepting work and waits for queued jobs to finish or ctx to expire.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})

	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
