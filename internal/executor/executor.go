// Package executor runs connection handlers on a bounded set of goroutines.
package executor

import "golang.org/x/sync/errgroup"

// DefaultWorkers is the handler pool size used when none is configured.
const DefaultWorkers = 32

// Executor runs at most Workers tasks at once. Go blocks while the pool is
// saturated, which applies backpressure to the accept loop.
type Executor struct {
	g       *errgroup.Group
	workers int
}

// New returns an executor with the given concurrency limit.
func New(workers int) *Executor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	g := new(errgroup.Group)
	g.SetLimit(workers)
	return &Executor{g: g, workers: workers}
}

// Workers returns the concurrency limit.
func (e *Executor) Workers() int { return e.workers }

// Go schedules task, waiting for a free worker.
func (e *Executor) Go(task func()) {
	e.g.Go(func() error {
		task()
		return nil
	})
}

// TryGo schedules task only if a worker is free right now.
func (e *Executor) TryGo(task func()) bool {
	return e.g.TryGo(func() error {
		task()
		return nil
	})
}

// Wait blocks until every scheduled task has returned.
func (e *Executor) Wait() { _ = e.g.Wait() }
