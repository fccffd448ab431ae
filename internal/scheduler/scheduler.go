// Package scheduler provides a bounded worker pool for CPU-bound work
// offloaded from request-handling goroutines. Its one caller is the
// parser's directory scan, which submits the parsing of every file to it;
// embedding calls do not go through it. Grounded
// on the teacher's internal/core/api_scheduler.go rate-limited dispatch
// (a buffered channel as a slot semaphore, acquire/release around the
// blocking call), generalized from "API call slots for LLM shards" to
// "CPU slots for any blocking function" using golang.org/x/sync/errgroup,
// already exercised elsewhere in the corpus for controlled-concurrency
// fan-out (internal/campaign/intelligence_gatherer.go).
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// Pool bounds concurrent execution of submitted work to a fixed slot count.
// Submit blocks until a slot is free or the context is cancelled.
type Pool struct {
	name string
	slots chan struct{}

	submitted int64
	completed int64
	waitNs    int64
}

// New creates a Pool with the given number of concurrent slots. A
// non-positive size is clamped to 1 so a misconfigured pool still makes
// progress serially rather than deadlocking every submission.
func New(name string, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{name: name, slots: make(chan struct{}, size)}
}

// Submit runs fn on a pool slot, blocking until one is available or ctx is
// done. The generic result type lets callers avoid a manual any-cast at
// every call site (the directory scan's parse tasks return struct{}).
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	waitStart := time.Now()

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	atomic.AddInt64(&p.waitNs, int64(time.Since(waitStart)))
	atomic.AddInt64(&p.submitted, 1)
	defer func() { <-p.slots }()

	result, err := fn(ctx)
	atomic.AddInt64(&p.completed, 1)
	if err != nil {
		logging.SchedulerDebug("%s: task failed: %v", p.name, err)
	}
	return result, err
}

// SubmitAll runs fn over every item with pool-bounded concurrency and
// returns once all have completed or the context is cancelled, mirroring
// the teacher's errgroup.WithContext fan-out shape. The first non-nil
// error cancels the remaining in-flight work and is returned; results are
// written to indices matching their input regardless of completion order.
func SubmitAll[I, T any](ctx context.Context, p *Pool, items []I, fn func(ctx context.Context, item I) (T, error)) ([]T, error) {
	results := make([]T, len(items))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, item := range items {
		i, item := i, item
		eg.Go(func() error {
			result, err := Submit(egCtx, p, func(ctx context.Context) (T, error) {
				return fn(ctx, item)
			})
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Metrics reports a snapshot of pool activity.
type Metrics struct {
	Name      string
	Capacity  int
	InFlight  int
	Submitted int64
	Completed int64
	TotalWait time.Duration
}

// Metrics returns a snapshot of the pool's current load.
func (p *Pool) Metrics() Metrics {
	return Metrics{
		Name:      p.name,
		Capacity:  cap(p.slots),
		InFlight:  len(p.slots),
		Submitted: atomic.LoadInt64(&p.submitted),
		Completed: atomic.LoadInt64(&p.completed),
		TotalWait: time.Duration(atomic.LoadInt64(&p.waitNs)),
	}
}
