// Package scheduler runs the periodic jobs on cron expressions.
package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"staffbot-backend/internal/jobs"
)

// Scheduler registers jobs against six-field cron expressions.
type Scheduler struct {
	cron   *cron.Cron
	runner *jobs.JobRunner
	logger *slog.Logger
}

func New(runner *jobs.JobRunner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		runner: runner,
		logger: logger,
	}
}

func (s *Scheduler) Register(spec string, job jobs.Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runner.Run(job)
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.Name(), err)
	}
	s.logger.Info("job registered", "job", job.Name(), "cron", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
