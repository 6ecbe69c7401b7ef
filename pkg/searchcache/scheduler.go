package searchcache

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/launchify/search-cache/pkg/observability"
)

// Job is a unit of periodic background work
type Job interface {
	Run(ctx context.Context)
}

// Runner executes a job on a fixed interval with panic isolation. The
// composition root owns its lifecycle: Start launches the loop, Stop
// drains it. Background cycles never share mutable state with the
// request path beyond the store itself.
type Runner struct {
	name     string
	interval time.Duration
	job      Job
	logger   observability.Logger

	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRunner creates a runner for a named job
func NewRunner(name string, interval time.Duration, job Job, logger observability.Logger) *Runner {
	if logger == nil {
		logger = observability.NewLogger("searchcache.scheduler")
	}

	return &Runner{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the periodic loop. The job runs once immediately, then
// on every interval tick until the context is cancelled or Stop is
// called.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.runOnce(ctx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.runOnce(ctx)
			case <-ctx.Done():
				r.logger.Info("Job stopped by context", map[string]interface{}{
					"job": r.name,
				})
				return
			case <-r.stopCh:
				r.logger.Info("Job stopped", map[string]interface{}{
					"job": r.name,
				})
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight cycle to finish
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.wg.Wait()
}

func (r *Runner) runOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic in background job", map[string]interface{}{
				"job":   r.name,
				"panic": rec,
				"stack": string(debug.Stack()),
			})
		}
	}()

	r.job.Run(ctx)
}
