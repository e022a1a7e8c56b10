package workspace

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Tasks runs best-effort background work (remote writes, mirror writes,
// cache stores, feed publishes) on a bounded pool. A failed task is logged
// and counted; it never cancels its siblings.
type Tasks struct {
	log     *slog.Logger
	group   errgroup.Group
	timeout time.Duration

	failed atomic.Int64
	mu     sync.RWMutex
	closed bool
}

// NewTasks creates a pool running at most workers tasks at once. Each task
// gets its own deadline of timeout.
func NewTasks(logger *slog.Logger, workers int, timeout time.Duration) *Tasks {
	t := &Tasks{
		log:     logger.With("service", "tasks"),
		timeout: timeout,
	}
	t.group.SetLimit(workers)
	return t
}

// Go schedules fn. The task context keeps the values of ctx (request id,
// identity) but not its cancellation. Blocks while the pool is saturated.
// After Close, tasks are dropped with a warning.
func (t *Tasks) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		t.log.WarnContext(ctx, "task dropped after shutdown", slog.String("task", name))
		return
	}

	base := context.WithoutCancel(ctx)
	t.group.Go(func() error {
		taskCtx, cancel := context.WithTimeout(base, t.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(taskCtx); err != nil {
			t.failed.Add(1)
			t.log.WarnContext(taskCtx, "background task failed",
				slog.String("task", name),
				slog.Duration("duration", time.Since(start)),
				slog.String("error", err.Error()),
			)
			return nil
		}
		t.log.DebugContext(taskCtx, "background task done",
			slog.String("task", name),
			slog.Duration("duration", time.Since(start)),
		)
		return nil
	})
}

// Failed returns the number of tasks that returned an error.
func (t *Tasks) Failed() int64 { return t.failed.Load() }

// Wait blocks until every scheduled task has finished.
func (t *Tasks) Wait() {
	_ = t.group.Wait()
}

// Close stops accepting tasks and waits for the running ones.
func (t *Tasks) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.Wait()
}
