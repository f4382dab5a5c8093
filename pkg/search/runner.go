package search

import (
	"context"
	"sync/atomic"
)

// DefaultBatchSize is the number of nodes a Runner visits per tick.
const DefaultBatchSize = 1000

// Runner drives a Cursor in bounded batches. Every batch that finds matches
// is reported to the progress callback and the complete result list is
// reported once to the done callback. After Cancel no callback fires again;
// results already reported stay valid.
type Runner struct {
	cursor     *Cursor
	batchSize  int
	onProgress func(found []Result)
	onDone     func(results []Result)

	cancelled atomic.Bool
	finished  bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBatchSize sets how many nodes are visited per tick.
func WithBatchSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithProgress registers the callback receiving each batch of new matches.
func WithProgress(fn func(found []Result)) RunnerOption {
	return func(r *Runner) {
		r.onProgress = fn
	}
}

// WithDone registers the callback receiving all matches once the search has
// finished.
func WithDone(fn func(results []Result)) RunnerOption {
	return func(r *Runner) {
		r.onDone = fn
	}
}

// NewRunner creates a Runner for c.
func NewRunner(c *Cursor, opts ...RunnerOption) *Runner {
	r := &Runner{cursor: c, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tick runs one batch and reports whether more work remains. Hosts with their
// own scheduling call Tick between other work; Run loops over it.
func (r *Runner) Tick() bool {
	if r.finished || r.cancelled.Load() {
		return false
	}
	found := r.cursor.Step(r.batchSize)
	if r.cancelled.Load() {
		return false
	}
	if len(found) > 0 && r.onProgress != nil {
		r.onProgress(found)
	}
	if !r.cursor.Done() {
		return true
	}
	r.finished = true
	if r.onDone != nil {
		r.onDone(r.cursor.Results())
	}
	return false
}

// Run ticks until the search finishes, is cancelled or ctx ends. It returns
// ctx.Err() when the context stopped it and nil otherwise.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			r.Cancel()
			return err
		}
		if !r.Tick() {
			return nil
		}
	}
}

// Cancel stops the search. It is safe to call from another goroutine.
func (r *Runner) Cancel() {
	r.cancelled.Store(true)
}

// Cancelled reports whether Cancel was called.
func (r *Runner) Cancelled() bool {
	return r.cancelled.Load()
}

// Finished reports whether the done callback has been delivered.
func (r *Runner) Finished() bool {
	return r.finished
}
