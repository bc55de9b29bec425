package lazy

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Task is one block-level unit of work. Tasks scheduled together share no
// mutable state: each writes a disjoint region of the output.
type Task func(ctx context.Context) error

// Scheduler turns a set of independent block tasks into actual execution.
// Implementations must not assume any ordering between tasks, and must
// return the first error encountered; the engine performs no retries.
type Scheduler interface {
	Run(ctx context.Context, tasks []Task) error
}

// Sync runs tasks sequentially on the calling goroutine. It is the eager
// single-threaded fallback, useful for debugging and deterministic tests.
type Sync struct{}

// Run executes every task in order, stopping at the first failure or
// context cancellation.
func (Sync) Run(ctx context.Context, tasks []Task) error {
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := task(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Pool runs tasks on a bounded goroutine pool. A failing task cancels the
// group; remaining tasks are abandoned once the shared context is done.
type Pool struct {
	// Workers bounds concurrent tasks. Zero or negative means GOMAXPROCS.
	Workers int
}

// Run executes the tasks with bounded parallelism and returns the first
// task error, if any.
func (p Pool) Run(ctx context.Context, tasks []Task) error {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx)
		})
	}
	return g.Wait()
}

// DefaultScheduler is used by Compute when no scheduler is given.
func DefaultScheduler() Scheduler {
	return Pool{}
}
