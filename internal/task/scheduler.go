package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs jobs on cron schedules in UTC.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler creates an empty scheduler. Schedules are interpreted
// in UTC so that day boundaries line up with streak and quota math.
func NewScheduler(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: log,
	}
}

// Register adds a job on the given cron spec.
func (s *Scheduler) Register(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		report, err := job.Run(context.Background())
		if err != nil {
			s.logger.Error("scheduled job failed",
				slog.String("job", job.Name()),
				slog.String("error", err.Error()))
			return
		}
		s.logger.Info("scheduled job completed",
			slog.String("job", report.Job),
			slog.Int("total", report.Total),
			slog.Int("errors", report.Errors))
	})
	if err != nil {
		return fmt.Errorf("registering job %q with spec %q: %w", job.Name(), spec, err)
	}
	return nil
}

// Start runs the scheduler until ctx is cancelled, then waits for any
// in-flight job to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("job scheduler started")

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("job scheduler stopped")
}
