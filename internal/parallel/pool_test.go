package parallel

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutionStats(t *testing.T) {
	t.Run("counters start at zero", func(t *testing.T) {
		stats := NewExecutionStats()
		snap := stats.snapshot()
		if snap.submitted != 0 || snap.completed != 0 || snap.failed != 0 || snap.cancelled != 0 {
			t.Errorf("fresh ExecutionStats = %+v, want all zero", snap)
		}
	})

	t.Run("records submission, completion, and failure", func(t *testing.T) {
		stats := NewExecutionStats()
		stats.RecordTaskSubmitted()
		stats.RecordTaskCompleted(100 * time.Millisecond)
		stats.RecordTaskFailed(context.DeadlineExceeded)
		stats.RecordTaskCancelled()

		snap := stats.snapshot()
		if snap.submitted != 1 {
			t.Errorf("submitted = %d, want 1", snap.submitted)
		}
		if snap.completed != 1 {
			t.Errorf("completed = %d, want 1", snap.completed)
		}
		if snap.failed != 1 {
			t.Errorf("failed = %d, want 1", snap.failed)
		}
		if snap.cancelled != 1 {
			t.Errorf("cancelled = %d, want 1", snap.cancelled)
		}
	})
}

func TestWorkerPool(t *testing.T) {
	t.Run("runs every submitted task exactly once", func(t *testing.T) {
		pool := NewWorkerPool(4)
		defer pool.Shutdown()

		const n = 50
		var ran int64
		for i := 0; i < n; i++ {
			if err := pool.Submit(context.Background(), func() {
				atomic.AddInt64(&ran, 1)
			}); err != nil {
				t.Fatalf("Submit: %v", err)
			}
		}
		pool.Shutdown()
		if got := atomic.LoadInt64(&ran); got != n {
			t.Errorf("ran %d tasks, want %d", got, n)
		}
	})

	t.Run("a panicking task is recorded as failed, not propagated", func(t *testing.T) {
		pool := NewWorkerPool(1)
		defer pool.Shutdown()

		if err := pool.Submit(context.Background(), func() {
			panic("boom")
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		pool.Shutdown()

		snap := pool.GetStats()
		if snap.failed != 1 {
			t.Errorf("failed = %d, want 1 after a panicking task", snap.failed)
		}
	})

	t.Run("Submit respects context cancellation once the pool is saturated", func(t *testing.T) {
		pool := NewWorkerPool(1)
		defer pool.Shutdown()

		block := make(chan struct{})
		// Occupy the sole worker and fill its queue buffer so further
		// Submit calls must wait on the ctx.Done() case.
		if err := pool.Submit(context.Background(), func() { <-block }); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		for i := 0; i < 4; i++ {
			_ = pool.Submit(context.Background(), func() {})
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := pool.Submit(ctx, func() {})
		close(block)
		if err == nil {
			t.Error("Submit with an already-cancelled context should return an error once the queue is full")
		}
	})

	t.Run("GetWorkerCount reports the configured size", func(t *testing.T) {
		pool := NewWorkerPool(3)
		defer pool.Shutdown()
		if pool.GetWorkerCount() != 3 {
			t.Errorf("GetWorkerCount() = %d, want 3", pool.GetWorkerCount())
		}
	})
}
