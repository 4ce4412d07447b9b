package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/service"
)

// QuotaResetJob clears every learner's monthly attempt counter. The
// quota gate also resets lazily per learner, so this job is a safety
// net that keeps dormant rows from carrying stale counts.
type QuotaResetJob struct {
	quota  service.QuotaService
	logger *slog.Logger
}

// NewQuotaResetJob creates a monthly quota reset job.
func NewQuotaResetJob(quota service.QuotaService, log *slog.Logger) (*QuotaResetJob, error) {
	if quota == nil {
		return nil, domain.NewValidationError("quota", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	return &QuotaResetJob{
		quota:  quota,
		logger: log.With(slog.String("job", "quota_reset")),
	}, nil
}

// Name implements Job.
func (j *QuotaResetJob) Name() string { return "quota_reset" }

// Run implements Job.
func (j *QuotaResetJob) Run(ctx context.Context) (*Report, error) {
	log := logger.FromContextOrDefault(ctx, j.logger)
	start := time.Now()

	affected, err := j.quota.ResetAllQuotas(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("resetting monthly quotas: %w", err)
	}

	report := &Report{
		Job:       j.Name(),
		Total:     int(affected),
		Succeeded: int(affected),
		Duration:  time.Since(start),
	}
	log.Info("monthly quota reset finished",
		slog.Int64("learners_reset", affected),
		slog.Duration("duration", report.Duration))
	return report, nil
}
