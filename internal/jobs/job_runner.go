// Package jobs holds the periodic maintenance work run by the scheduler.
package jobs

import (
	"context"
	"log/slog"
	"time"
)

// Job is a named unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobRunner executes jobs with panic recovery and timing.
type JobRunner struct {
	timeout time.Duration
	logger  *slog.Logger
}

func NewJobRunner(timeout time.Duration, logger *slog.Logger) *JobRunner {
	return &JobRunner{timeout: timeout, logger: logger}
}

func (r *JobRunner) Run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.runWithRecovery(ctx, job)
}

func (r *JobRunner) runWithRecovery(ctx context.Context, job Job) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("job panicked", "job", job.Name(), "panic", rec)
		}
	}()

	start := time.Now()
	r.logger.Info("job started", "job", job.Name())
	if err := job.Run(ctx); err != nil {
		r.logger.Error("job failed", "job", job.Name(), "error", err)
		return
	}
	r.logger.Info("job finished", "job", job.Name(), "duration_ms", time.Since(start).Milliseconds())
}
