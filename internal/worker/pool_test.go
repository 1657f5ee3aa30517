package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllJobs(t *testing.T) {
	pool := NewPool(3, 10)
	pool.Start()

	var done int64
	for i := 0; i < 10; i++ {
		err := pool.Submit(Job{
			Name: "job",
			Run: func(ctx context.Context) {
				atomic.AddInt64(&done, 1)
			},
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	pool.Drain()

	if done != 10 {
		t.Errorf("expected 10 jobs run, got %d", done)
	}
}

func TestPoolBoundsParallelism(t *testing.T) {
	const workers = 2
	pool := NewPool(workers, 10)
	pool.Start()

	var (
		mu      sync.Mutex
		current int
		peak    int
	)

	for i := 0; i < 8; i++ {
		pool.Submit(Job{
			Name: "job",
			Run: func(ctx context.Context) {
				mu.Lock()
				current++
				if current > peak {
					peak = current
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				current--
				mu.Unlock()
			},
		})
	}
	pool.Drain()

	if peak > workers {
		t.Errorf("parallelism exceeded the bound: peak %d, limit %d", peak, workers)
	}
}

func TestPoolSubmitFailsAfterAbort(t *testing.T) {
	pool := NewPool(1, 0)
	pool.Start()
	pool.Abort()

	err := pool.Submit(Job{Name: "late", Run: func(ctx context.Context) {}})
	if err == nil {
		t.Error("Submit after Abort must fail")
	}
}

func TestPoolDrainWaitsForInFlight(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start()

	var finished int64
	pool.Submit(Job{
		Name: "slow",
		Run: func(ctx context.Context) {
			time.Sleep(30 * time.Millisecond)
			atomic.StoreInt64(&finished, 1)
		},
	})

	pool.Drain()
	if atomic.LoadInt64(&finished) != 1 {
		t.Error("Drain returned before the in-flight job finished")
	}
}
