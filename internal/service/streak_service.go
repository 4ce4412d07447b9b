package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/domain/streak"
	"github.com/lumalearn/luma-api/internal/events"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/store"
)

// StreakSummary is the read model returned to clients asking about
// their streak.
type StreakSummary struct {
	CurrentStreak  int  `json:"current_streak"`
	LongestStreak  int  `json:"longest_streak"`
	FreezeTokens   int  `json:"freeze_tokens"`
	CompletedToday bool `json:"completed_today"`
	// LastMilestone is the highest milestone already reached, 0 when none.
	LastMilestone int `json:"last_milestone"`
	// NextMilestone is the next milestone ahead, 0 when past the last one.
	NextMilestone int `json:"next_milestone"`
	// DaysToNextMilestone is 0 when NextMilestone is 0.
	DaysToNextMilestone int `json:"days_to_next_milestone"`
}

// LeaderboardEntry is one row of the streak leaderboard.
type LeaderboardEntry struct {
	LearnerID     int64 `json:"learner_id"`
	CurrentStreak int   `json:"current_streak"`
	LongestStreak int   `json:"longest_streak"`
}

// StreakService tracks daily practice streaks.
type StreakService interface {
	// CompletePracticeDay records a qualifying practice completion for
	// the given calendar day and returns the events the transition
	// produced. Repeat completions on an already counted day are a
	// no-op. Future days are rejected with domain.ErrInvalidInput.
	CompletePracticeDay(ctx context.Context, learnerID int64, day time.Time) ([]domain.StreakEvent, error)

	// GetStreakSummary returns the learner's streak read model as of
	// the given day.
	GetStreakSummary(ctx context.Context, learnerID int64, today time.Time) (*StreakSummary, error)

	// TopStreaks returns the current streak leaderboard.
	TopStreaks(ctx context.Context, n int) ([]LeaderboardEntry, error)
}

// streakServiceImpl implements the StreakService interface
type streakServiceImpl struct {
	db       *sql.DB
	learners store.LearnerStateStore
	config   *streak.Config
	emitter  events.StreakEventEmitter
	timeFunc func() time.Time
	logger   *slog.Logger
}

// NewStreakService creates a new StreakService.
// The emitter may be nil, in which case events are computed but not
// published.
// It returns an error if any of the other dependencies are nil.
func NewStreakService(
	db *sql.DB,
	learners store.LearnerStateStore,
	config *streak.Config,
	emitter events.StreakEventEmitter,
	logger *slog.Logger,
) (StreakService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if learners == nil {
		return nil, domain.NewValidationError("learners", "cannot be nil", domain.ErrValidation)
	}
	if config == nil {
		config = streak.NewDefaultConfig()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &streakServiceImpl{
		db:       db,
		learners: learners,
		config:   config,
		emitter:  emitter,
		timeFunc: time.Now,
		logger:   logger.With(slog.String("component", "streak_service")),
	}, nil
}

// CompletePracticeDay implements StreakService.CompletePracticeDay
// The state transition runs in a transaction under a row lock; events
// are published after commit so handlers never observe uncommitted
// state.
func (s *streakServiceImpl) CompletePracticeDay(
	ctx context.Context,
	learnerID int64,
	day time.Time,
) ([]domain.StreakEvent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	completionDay := streak.NormalizeDay(day)
	today := streak.NormalizeDay(s.timeFunc())
	if completionDay.After(today) {
		log.Warn("practice completion for a future day rejected",
			slog.Int64("learner_id", learnerID),
			slog.Time("day", completionDay))
		return nil, fmt.Errorf("%w: practice day %s is in the future",
			domain.ErrInvalidInput, completionDay.Format("2006-01-02"))
	}

	var produced []domain.StreakEvent
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txLearners := s.learners.WithTx(tx)

		state, err := getOrCreateLearnerForUpdate(ctx, txLearners, learnerID, completionDay)
		if err != nil {
			return err
		}

		next, streakEvents := streak.Advance(state, completionDay, s.config)
		next.UpdatedAt = s.timeFunc().UTC()

		if err := txLearners.Update(ctx, next); err != nil {
			return err
		}

		produced = streakEvents
		return nil
	})
	if err != nil {
		log.Error("failed to complete practice day",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID))
		return nil, NewServiceError("streak", "complete_practice_day", "failed to advance streak", err)
	}

	if s.emitter != nil {
		if err := s.emitter.EmitStreakEvents(ctx, produced); err != nil {
			// Event handlers are best-effort; the committed transition wins.
			log.Warn("failed to publish streak events",
				slog.String("error", err.Error()),
				slog.Int64("learner_id", learnerID))
		}
	}

	log.Info("practice day recorded",
		slog.Int64("learner_id", learnerID),
		slog.Time("day", completionDay),
		slog.Int("event_count", len(produced)))
	return produced, nil
}

// GetStreakSummary implements StreakService.GetStreakSummary
func (s *streakServiceImpl) GetStreakSummary(
	ctx context.Context,
	learnerID int64,
	today time.Time,
) (*StreakSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	state, err := s.learners.GetByID(ctx, learnerID)
	if err != nil {
		if store.IsNotFoundError(err) {
			// A learner who never practiced has an all-zero summary.
			next := s.config.NextMilestone(0)
			return &StreakSummary{NextMilestone: next, DaysToNextMilestone: next}, nil
		}
		log.Error("failed to load learner state",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID))
		return nil, NewServiceError("streak", "get_summary", "failed to load learner state", err)
	}

	day := streak.NormalizeDay(today)
	summary := &StreakSummary{
		CurrentStreak: state.CurrentStreak,
		LongestStreak: state.LongestStreak,
		FreezeTokens:  state.FreezeTokens,
		CompletedToday: state.LastPracticeDate != nil &&
			state.LastPracticeDate.Equal(day),
		LastMilestone: s.config.LastMilestone(state.CurrentStreak),
		NextMilestone: s.config.NextMilestone(state.CurrentStreak),
	}
	if summary.NextMilestone > 0 {
		summary.DaysToNextMilestone = summary.NextMilestone - state.CurrentStreak
	}
	return summary, nil
}

// TopStreaks implements StreakService.TopStreaks
func (s *streakServiceImpl) TopStreaks(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	states, err := s.learners.TopStreaks(ctx, n)
	if err != nil {
		log.Error("failed to load streak leaderboard", slog.String("error", err.Error()))
		return nil, NewServiceError("streak", "top_streaks", "failed to load leaderboard", err)
	}

	entries := make([]LeaderboardEntry, 0, len(states))
	for _, state := range states {
		entries = append(entries, LeaderboardEntry{
			LearnerID:     state.LearnerID,
			CurrentStreak: state.CurrentStreak,
			LongestStreak: state.LongestStreak,
		})
	}
	return entries, nil
}
