package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitBoundsConcurrency(t *testing.T) {
	pool := New("test", 2)
	var inFlight, maxInFlight int32

	eg := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_, err := Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&maxInFlight)
					if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return 0, nil
			})
			eg <- err
		}()
	}

	for i := 0; i < 5; i++ {
		if err := <-eg; err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
	}

	if maxInFlight > 2 {
		t.Errorf("expected at most 2 concurrent tasks, observed %d", maxInFlight)
	}
}

func TestSubmitRespectsContextCancellation(t *testing.T) {
	pool := New("test", 1)

	// Hold the only slot.
	holding := make(chan struct{})
	release := make(chan struct{})
	go Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
		close(holding)
		<-release
		return 0, nil
	})
	<-holding
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Submit(ctx, pool, func(ctx context.Context) (int, error) {
		return 0, nil
	})
	if err != context.DeadlineExceeded {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestSubmitAllCollectsResultsInOrder(t *testing.T) {
	pool := New("test", 3)
	items := []int{1, 2, 3, 4, 5}

	results, err := SubmitAll(context.Background(), pool, items, func(ctx context.Context, item int) (int, error) {
		return item * item, nil
	})
	if err != nil {
		t.Fatalf("SubmitAll: %v", err)
	}

	want := []int{1, 4, 9, 16, 25}
	for i, w := range want {
		if results[i] != w {
			t.Errorf("results[%d] = %d, want %d", i, results[i], w)
		}
	}
}

func TestSubmitAllPropagatesFirstError(t *testing.T) {
	pool := New("test", 2)
	items := []int{1, 2, 3}

	_, err := SubmitAll(context.Background(), pool, items, func(ctx context.Context, item int) (int, error) {
		if item == 2 {
			return 0, fmt.Errorf("boom on %d", item)
		}
		return item, nil
	})
	if err == nil {
		t.Fatal("expected an error from SubmitAll")
	}
}

func TestMetricsReportsCapacityAndCounts(t *testing.T) {
	pool := New("test", 4)
	_, err := Submit(context.Background(), pool, func(ctx context.Context) (int, error) { return 0, nil })
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	m := pool.Metrics()
	if m.Capacity != 4 {
		t.Errorf("Capacity = %d, want 4", m.Capacity)
	}
	if m.Submitted != 1 || m.Completed != 1 {
		t.Errorf("Submitted=%d Completed=%d, want 1/1", m.Submitted, m.Completed)
	}
}
