// Package background runs best-effort side effects detached from the
// request that triggered them. Task failures are logged and never reach the
// caller.
package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hubpessoal/hub/internal/logging"
)

// Task is one unit of best-effort work.
type Task func(ctx context.Context) error

// Observer is told how each task ended; outcome is "ok", "error" or "panic".
type Observer func(name, outcome string)

type Runner struct {
	logger   logging.Logger
	timeout  time.Duration
	observer Observer
	wg       sync.WaitGroup
}

// NewRunner returns a Runner that gives each task at most timeout.
// A zero timeout means no limit beyond the parent context's values.
func NewRunner(l logging.Logger, timeout time.Duration) *Runner {
	return &Runner{logger: l.With("module", "background"), timeout: timeout}
}

// Observe installs o; it must be called before the first Go.
func (r *Runner) Observe(o Observer) {
	r.observer = o
}

// Go starts task in its own goroutine. The task's context keeps ctx's
// values but not its cancellation, so it outlives the request.
func (r *Runner) Go(ctx context.Context, name string, task Task) {
	taskCtx := context.WithoutCancel(ctx)
	var cancel context.CancelFunc = func() {}
	if r.timeout > 0 {
		taskCtx, cancel = context.WithTimeout(taskCtx, r.timeout)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		outcome := "ok"
		defer func() {
			if p := recover(); p != nil {
				outcome = "panic"
				r.logger.Error(taskCtx, "background task panicked", "task", name, "panic", fmt.Sprint(p))
			}
			if r.observer != nil {
				r.observer(name, outcome)
			}
		}()

		if err := task(taskCtx); err != nil {
			outcome = "error"
			r.logger.Warn(taskCtx, "background task failed", "task", name, "error", err)
		}
	}()
}

// Wait blocks until every started task has returned or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
