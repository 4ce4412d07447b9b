package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/domain/streak"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/store"
)

// Reminder is the payload handed to the notifier for one learner
// whose streak is about to lapse.
type Reminder struct {
	LearnerID    int64
	Streak       int
	FreezeTokens int
	Message      string
}

// Notifier delivers reminders through an external channel (push,
// email). Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, reminder Reminder) error
}

const (
	defaultMaxConcurrent = 10
	defaultMaxDuration   = 5 * time.Minute
)

// ReminderSweepJob finds learners who practiced yesterday but not yet
// today and sends each a streak reminder. Candidates are processed
// with bounded concurrency; a failure for one learner never aborts
// the sweep.
type ReminderSweepJob struct {
	learners      store.LearnerStateStore
	notifier      Notifier
	maxConcurrent int
	maxDuration   time.Duration
	logger        *slog.Logger
}

// NewReminderSweepJob creates a reminder sweep over the given learner
// store and notifier.
func NewReminderSweepJob(learners store.LearnerStateStore, notifier Notifier, log *slog.Logger) (*ReminderSweepJob, error) {
	if learners == nil {
		return nil, domain.NewValidationError("learners", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReminderSweepJob{
		learners:      learners,
		notifier:      notifier,
		maxConcurrent: defaultMaxConcurrent,
		maxDuration:   defaultMaxDuration,
		logger:        log.With(slog.String("job", "reminder_sweep")),
	}, nil
}

// Name implements Job.
func (j *ReminderSweepJob) Name() string { return "reminder_sweep" }

// Run implements Job. It selects learners whose last practice day was
// yesterday (UTC) with a live streak, then fans reminders out through
// a worker semaphore.
func (j *ReminderSweepJob) Run(ctx context.Context) (*Report, error) {
	log := logger.FromContextOrDefault(ctx, j.logger)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, j.maxDuration)
	defer cancel()

	yesterday := streak.NormalizeDay(start).AddDate(0, 0, -1)
	candidates, err := j.learners.FindReminderCandidates(ctx, yesterday)
	if err != nil {
		return nil, fmt.Errorf("finding reminder candidates: %w", err)
	}

	log.Info("starting reminder sweep", slog.Int("candidates", len(candidates)))

	sem := make(chan struct{}, j.maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, failed := 0, 0
	partial := false

	for _, state := range candidates {
		if ctx.Err() != nil {
			partial = true
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(state *domain.LearnerState) {
			defer wg.Done()
			defer func() { <-sem }()

			reminder := Reminder{
				LearnerID:    state.LearnerID,
				Streak:       state.CurrentStreak,
				FreezeTokens: state.FreezeTokens,
				Message:      reminderMessage(state.CurrentStreak, state.FreezeTokens),
			}
			if err := j.notifier.Notify(ctx, reminder); err != nil {
				log.Warn("failed to notify learner",
					slog.Int64("learner_id", state.LearnerID),
					slog.String("error", err.Error()))
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(state)
	}

	wg.Wait()

	report := &Report{
		Job:       j.Name(),
		Total:     len(candidates),
		Succeeded: succeeded,
		Errors:    failed,
		Duration:  time.Since(start),
		Partial:   partial,
	}
	log.Info("reminder sweep finished",
		slog.Int("total", report.Total),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("errors", report.Errors),
		slog.Bool("partial", report.Partial),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// reminderMessage picks the reminder text for a learner from their
// streak size and remaining freeze tokens.
func reminderMessage(currentStreak, freezeTokens int) string {
	switch {
	case currentStreak >= 100:
		return fmt.Sprintf("Your %d-day streak is legendary. One session today keeps it alive.", currentStreak)
	case currentStreak >= 30:
		return fmt.Sprintf("A full month and counting! Practice today to protect your %d-day streak.", currentStreak)
	case currentStreak >= 7:
		if freezeTokens == 0 {
			return fmt.Sprintf("Your %d-day streak has no freeze tokens left. Practice today to keep it going.", currentStreak)
		}
		return fmt.Sprintf("Don't break the chain! Your %d-day streak is waiting.", currentStreak)
	default:
		if freezeTokens == 0 {
			return fmt.Sprintf("Your %d-day streak ends tonight without practice. A quick session saves it.", currentStreak)
		}
		return fmt.Sprintf("Keep it up! Day %d of your streak is one session away.", currentStreak+1)
	}
}
