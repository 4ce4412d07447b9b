package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/store"
)

// UnlimitedAttempts is the Remaining value reported for premium
// learners.
const UnlimitedAttempts = -1

// QuotaCheckResult is the quota gate's verdict for one skill access.
type QuotaCheckResult struct {
	CanAccess       bool `json:"can_access"`
	IsPremium       bool `json:"is_premium"`
	RequiresUpgrade bool `json:"requires_upgrade"`
	// Remaining is the number of attempts left this month, or
	// UnlimitedAttempts for premium learners.
	Remaining int `json:"remaining"`
}

// QuotaService gates access to skill practice by subscription tier and
// monthly usage.
type QuotaService interface {
	// CheckQuota reports whether the learner may start an attempt for
	// the skill right now. It never consumes quota.
	CheckQuota(ctx context.Context, learnerID int64, skill domain.Skill, now time.Time) (*QuotaCheckResult, error)

	// IncrementQuota records one attempt against the learner's monthly
	// counter for the skill. Skills without counters are a no-op.
	IncrementQuota(ctx context.Context, learnerID int64, skill domain.Skill, now time.Time) error

	// ResetAllQuotas unconditionally zeroes every learner's monthly
	// counters and returns the number of learners reset.
	ResetAllQuotas(ctx context.Context, now time.Time) (int64, error)
}

// quotaServiceImpl implements the QuotaService interface
type quotaServiceImpl struct {
	db            *sql.DB
	learners      store.LearnerStateStore
	subscriptions store.SubscriptionStore
	freeTierLimit int
	logger        *slog.Logger
}

// NewQuotaService creates a new QuotaService.
// It returns an error if any of the required dependencies are nil.
func NewQuotaService(
	db *sql.DB,
	learners store.LearnerStateStore,
	subscriptions store.SubscriptionStore,
	freeTierLimit int,
	logger *slog.Logger,
) (QuotaService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if learners == nil {
		return nil, domain.NewValidationError("learners", "cannot be nil", domain.ErrValidation)
	}
	if subscriptions == nil {
		return nil, domain.NewValidationError("subscriptions", "cannot be nil", domain.ErrValidation)
	}
	if freeTierLimit <= 0 {
		return nil, domain.NewValidationError("freeTierLimit", "must be positive", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &quotaServiceImpl{
		db:            db,
		learners:      learners,
		subscriptions: subscriptions,
		freeTierLimit: freeTierLimit,
		logger:        logger.With(slog.String("component", "quota_service")),
	}, nil
}

// needsMonthlyReset reports whether the last reset stamp falls in an
// earlier month than now. Comparison is by calendar year and month, so
// it fires exactly once per month boundary no matter how often it is
// evaluated.
func needsMonthlyReset(state *domain.LearnerState, now time.Time) bool {
	last := state.LastQuotaReset.UTC()
	nowUTC := now.UTC()
	return last.Year() != nowUTC.Year() || last.Month() != nowUTC.Month()
}

// applyMonthlyReset zeroes the monthly counters and stamps the reset
// time. The caller persists the state.
func applyMonthlyReset(state *domain.LearnerState, now time.Time) {
	state.MonthlyReadingAttempts = 0
	state.MonthlyListeningAttempts = 0
	state.LastQuotaReset = now
	state.UpdatedAt = now
}

// monthlyAttempts returns the learner's counter for the skill.
func monthlyAttempts(state *domain.LearnerState, skill domain.Skill) int {
	switch skill {
	case domain.SkillReading:
		return state.MonthlyReadingAttempts
	case domain.SkillListening:
		return state.MonthlyListeningAttempts
	default:
		return 0
	}
}

// getOrCreateLearnerForUpdate loads the learner's row under a lock,
// creating the initial state on first contact. Learner identities come
// from the external identity service, so an unknown ID simply means the
// learner has not practiced yet.
func getOrCreateLearnerForUpdate(
	ctx context.Context,
	learners store.LearnerStateStore,
	learnerID int64,
	now time.Time,
) (*domain.LearnerState, error) {
	state, err := learners.GetForUpdate(ctx, learnerID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	state, err = domain.NewLearnerState(learnerID, now)
	if err != nil {
		return nil, err
	}
	if err := learners.Create(ctx, state); err != nil {
		// A concurrent request may have created the row first.
		if errors.Is(err, store.ErrDuplicate) {
			return learners.GetForUpdate(ctx, learnerID)
		}
		return nil, err
	}
	return state, nil
}

// CheckQuota implements QuotaService.CheckQuota
func (s *quotaServiceImpl) CheckQuota(
	ctx context.Context,
	learnerID int64,
	skill domain.Skill,
	now time.Time,
) (*QuotaCheckResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !skill.IsValid() {
		log.Warn("quota check for unknown skill",
			slog.Int64("learner_id", learnerID),
			slog.String("skill", string(skill)))
		return &QuotaCheckResult{}, nil
	}

	premium, err := s.subscriptions.HasActiveSubscription(ctx, learnerID, now)
	if err != nil {
		log.Error("failed to check subscription",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID))
		return nil, NewServiceError("quota", "check_quota", "failed to check subscription", err)
	}

	if premium {
		return &QuotaCheckResult{
			CanAccess: true,
			IsPremium: true,
			Remaining: UnlimitedAttempts,
		}, nil
	}

	// Speaking and writing are premium-only; there is no free counter
	// to consult.
	if !skill.IsQuotaLimited() {
		return &QuotaCheckResult{
			RequiresUpgrade: true,
		}, nil
	}

	var result *QuotaCheckResult
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txLearners := s.learners.WithTx(tx)

		state, err := getOrCreateLearnerForUpdate(ctx, txLearners, learnerID, now)
		if err != nil {
			return err
		}

		if needsMonthlyReset(state, now) {
			state = state.Clone()
			applyMonthlyReset(state, now)
			if err := txLearners.Update(ctx, state); err != nil {
				return err
			}
			log.Info("monthly quota lazily reset",
				slog.Int64("learner_id", learnerID))
		}

		used := monthlyAttempts(state, skill)
		remaining := s.freeTierLimit - used
		if remaining < 0 {
			remaining = 0
		}
		result = &QuotaCheckResult{
			CanAccess: remaining > 0,
			Remaining: remaining,
		}
		return nil
	})
	if err != nil {
		log.Error("quota check failed",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID),
			slog.String("skill", string(skill)))
		return nil, NewServiceError("quota", "check_quota", "failed to evaluate quota", err)
	}

	return result, nil
}

// IncrementQuota implements QuotaService.IncrementQuota
func (s *quotaServiceImpl) IncrementQuota(
	ctx context.Context,
	learnerID int64,
	skill domain.Skill,
	now time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !skill.IsQuotaLimited() {
		return nil
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txLearners := s.learners.WithTx(tx)

		state, err := getOrCreateLearnerForUpdate(ctx, txLearners, learnerID, now)
		if err != nil {
			return err
		}

		state = state.Clone()
		if needsMonthlyReset(state, now) {
			applyMonthlyReset(state, now)
		}

		switch skill {
		case domain.SkillReading:
			state.MonthlyReadingAttempts++
		case domain.SkillListening:
			state.MonthlyListeningAttempts++
		}
		state.UpdatedAt = now

		return txLearners.Update(ctx, state)
	})
	if err != nil {
		log.Error("failed to increment quota",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID),
			slog.String("skill", string(skill)))
		return NewServiceError("quota", "increment_quota", "failed to increment counter", err)
	}

	log.Debug("quota incremented",
		slog.Int64("learner_id", learnerID),
		slog.String("skill", string(skill)))
	return nil
}

// ResetAllQuotas implements QuotaService.ResetAllQuotas
func (s *quotaServiceImpl) ResetAllQuotas(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	count, err := s.learners.ResetAllQuotas(ctx, now)
	if err != nil {
		log.Error("failed to reset all quotas", slog.String("error", err.Error()))
		return 0, NewServiceError("quota", "reset_all", "failed to reset counters", err)
	}

	log.Info("all monthly quotas reset", slog.Int64("learners", count))
	return count, nil
}
