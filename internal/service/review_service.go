package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/domain/srs"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/store"
)

// ReviewRequest identifies what is being reviewed and how well it was
// recalled. VocabularyID 0 addresses the list-level record.
type ReviewRequest struct {
	ListID       int64 `json:"list_id" validate:"required"`
	VocabularyID int64 `json:"vocabulary_id"`
	Quality      int   `json:"quality" validate:"min=0,max=5"`
}

// ReviewService schedules vocabulary reviews with spaced repetition.
type ReviewService interface {
	// ReviewVocabulary applies one review outcome and returns the
	// updated record. The record is created on first review; the list
	// must exist in the content catalog.
	ReviewVocabulary(ctx context.Context, learnerID int64, req ReviewRequest, now time.Time) (*domain.RepetitionRecord, error)

	// GetDue returns the learner's due records. See store.DueMode for
	// the available selections.
	GetDue(ctx context.Context, learnerID int64, mode store.DueMode, now time.Time) ([]*domain.RepetitionRecord, error)

	// SaveQuizResult records a quiz outcome on the list-level record,
	// creating it if absent. Score is a fraction in [0, 1].
	SaveQuizResult(ctx context.Context, learnerID, listID int64, score float64, now time.Time) (*domain.RepetitionRecord, error)
}

// reviewServiceImpl implements the ReviewService interface
type reviewServiceImpl struct {
	db          *sql.DB
	repetitions store.RepetitionStore
	content     store.ContentStore
	scheduler   srs.Service
	logger      *slog.Logger
}

// NewReviewService creates a new ReviewService.
// It returns an error if any of the required dependencies are nil.
func NewReviewService(
	db *sql.DB,
	repetitions store.RepetitionStore,
	content store.ContentStore,
	scheduler srs.Service,
	logger *slog.Logger,
) (ReviewService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if repetitions == nil {
		return nil, domain.NewValidationError("repetitions", "cannot be nil", domain.ErrValidation)
	}
	if content == nil {
		return nil, domain.NewValidationError("content", "cannot be nil", domain.ErrValidation)
	}
	if scheduler == nil {
		scheduler = srs.NewDefaultService()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &reviewServiceImpl{
		db:          db,
		repetitions: repetitions,
		content:     content,
		scheduler:   scheduler,
		logger:      logger.With(slog.String("component", "review_service")),
	}, nil
}

// ReviewVocabulary implements ReviewService.ReviewVocabulary
func (s *reviewServiceImpl) ReviewVocabulary(
	ctx context.Context,
	learnerID int64,
	req ReviewRequest,
	now time.Time,
) (*domain.RepetitionRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if req.Quality < srs.MinQuality || req.Quality > srs.MaxQuality {
		return nil, fmt.Errorf("%w: quality %d outside [%d, %d]",
			domain.ErrInvalidInput, req.Quality, srs.MinQuality, srs.MaxQuality)
	}

	var updated *domain.RepetitionRecord
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txRepetitions := s.repetitions.WithTx(tx)

		record, err := txRepetitions.GetForUpdate(ctx, learnerID, req.ListID, req.VocabularyID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			// First review of this list or item: verify the list exists
			// before creating the record.
			exists, err := s.content.ListExists(ctx, req.ListID)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: vocabulary list %d", domain.ErrNotFound, req.ListID)
			}

			record, err = domain.NewRepetitionRecord(learnerID, req.ListID, req.VocabularyID, now)
			if err != nil {
				return err
			}

			updated, err = s.scheduler.Review(record, req.Quality, now)
			if err != nil {
				return err
			}
			return txRepetitions.Create(ctx, updated)
		}

		updated, err = s.scheduler.Review(record, req.Quality, now)
		if err != nil {
			return err
		}
		return txRepetitions.Update(ctx, updated)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		log.Error("failed to review vocabulary",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID),
			slog.Int64("list_id", req.ListID))
		return nil, NewServiceError("review", "review_vocabulary", "failed to apply review", err)
	}

	log.Info("vocabulary reviewed",
		slog.Int64("learner_id", learnerID),
		slog.Int64("list_id", req.ListID),
		slog.Int64("vocabulary_id", req.VocabularyID),
		slog.Int("quality", req.Quality),
		slog.Int("interval_days", updated.IntervalDays),
		slog.String("status", string(updated.Status)))
	return updated, nil
}

// GetDue implements ReviewService.GetDue
func (s *reviewServiceImpl) GetDue(
	ctx context.Context,
	learnerID int64,
	mode store.DueMode,
	now time.Time,
) ([]*domain.RepetitionRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if mode == "" {
		mode = store.DueModeAll
	}
	if mode != store.DueModeAll && mode != store.DueModeStruggle {
		return nil, fmt.Errorf("%w: unknown due mode %q", domain.ErrInvalidInput, mode)
	}

	records, err := s.repetitions.FindDue(ctx, learnerID, now, mode)
	if err != nil {
		log.Error("failed to load due records",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID))
		return nil, NewServiceError("review", "get_due", "failed to load due records", err)
	}
	return records, nil
}

// SaveQuizResult implements ReviewService.SaveQuizResult
func (s *reviewServiceImpl) SaveQuizResult(
	ctx context.Context,
	learnerID, listID int64,
	score float64,
	now time.Time,
) (*domain.RepetitionRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if score < 0 || score > 1 {
		return nil, fmt.Errorf("%w: quiz score %.2f outside [0, 1]", domain.ErrInvalidInput, score)
	}

	var updated *domain.RepetitionRecord
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txRepetitions := s.repetitions.WithTx(tx)

		record, err := txRepetitions.GetForUpdate(ctx, learnerID, listID, 0)
		created := false
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			exists, err := s.content.ListExists(ctx, listID)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: vocabulary list %d", domain.ErrNotFound, listID)
			}

			record, err = domain.NewRepetitionRecord(learnerID, listID, 0, now)
			if err != nil {
				return err
			}
			created = true
		}

		updated = record.Clone()
		updated.LastQuizScore = &score
		if updated.BestQuizScore == nil || score > *updated.BestQuizScore {
			best := score
			updated.BestQuizScore = &best
		}
		quizAt := now
		updated.LastQuizAt = &quizAt
		updated.TotalQuizCount++
		updated.UpdatedAt = now

		if created {
			return txRepetitions.Create(ctx, updated)
		}
		return txRepetitions.Update(ctx, updated)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		log.Error("failed to save quiz result",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID),
			slog.Int64("list_id", listID))
		return nil, NewServiceError("review", "save_quiz_result", "failed to save quiz result", err)
	}

	log.Info("quiz result saved",
		slog.Int64("learner_id", learnerID),
		slog.Int64("list_id", listID),
		slog.Float64("score", score))
	return updated, nil
}
