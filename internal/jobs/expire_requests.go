package jobs

import (
	"context"
	"log/slog"

	"staffbot-backend/internal/service"
)

// ExpireRequestsJob sweeps pending join requests whose invitations ran out.
// Live reads already treat those invitations as dead; the sweep closes the
// requests and tells the waiting users.
type ExpireRequestsJob struct {
	enrollment service.EnrollmentService
	logger     *slog.Logger
}

func NewExpireRequestsJob(enrollment service.EnrollmentService, logger *slog.Logger) *ExpireRequestsJob {
	return &ExpireRequestsJob{enrollment: enrollment, logger: logger}
}

func (j *ExpireRequestsJob) Name() string { return "expire_stale_join_requests" }

func (j *ExpireRequestsJob) Run(ctx context.Context) error {
	count, err := j.enrollment.ExpireStale(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		j.logger.Info("expired stale join requests", "count", count)
	}
	return nil
}
