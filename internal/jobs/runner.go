package jobs

import (
	"context"
	"sync"
	"time"

	"replypilot/backend/pkg/logger"
)

// Job is one periodic unit of work
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner drives the periodic jobs (review poll, retry sweep, posting sweep)
// on independent tickers. Jobs run sequentially within their own ticker;
// there is no fan-out across businesses.
type Runner struct {
	jobs []Job
	log  *logger.Logger

	mu   sync.Mutex
	stop chan struct{}
}

// NewRunner creates a runner for the given jobs
func NewRunner(log *logger.Logger, jobs ...Job) *Runner {
	return &Runner{jobs: jobs, log: log}
}

// Start launches one goroutine per job. Each job fires once immediately,
// then on its interval, until the context is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return
	}
	r.stop = make(chan struct{})

	for _, job := range r.jobs {
		// Each loop keeps its own reference to the stop channel so Stop
		// can reset the field without racing the selects.
		go r.loop(ctx, r.stop, job)
	}
}

// Stop halts all job goroutines
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop == nil {
		return
	}
	close(r.stop)
	r.stop = nil
}

func (r *Runner) loop(ctx context.Context, stop <-chan struct{}, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	r.runOnce(ctx, job)
	for {
		select {
		case <-ticker.C:
			r.runOnce(ctx, job)
		case <-ctx.Done():
			return
		case <-stop:
			return
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		r.log.LogError(err, "background job failed", "job", job.Name)
		return
	}
	r.log.Debug("background job completed",
		"job", job.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
