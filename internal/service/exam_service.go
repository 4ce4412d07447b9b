package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/store"
)

// StartExamRequest carries everything needed to open an attempt.
type StartExamRequest struct {
	ExamID      int64              `json:"exam_id" validate:"required"`
	PartID      *int64             `json:"part_id"`
	Skill       domain.Skill       `json:"skill" validate:"required"`
	AttemptType domain.AttemptType `json:"attempt_type" validate:"required"`
	SessionKey  *string            `json:"session_key"`
}

// AttemptSummary is the result of finalizing an attempt.
type AttemptSummary struct {
	AttemptID      uuid.UUID     `json:"attempt_id"`
	TotalScore     float64       `json:"total_score"`
	CorrectAnswers int           `json:"correct_answers"`
	TotalAnswers   int           `json:"total_answers"`
	Percent        float64       `json:"percent"`
	Duration       time.Duration `json:"duration"`
}

// ExamService owns the exam attempt lifecycle: opening attempts behind
// the quota gate, grading answer submissions and completing attempts.
type ExamService interface {
	// StartAnExam opens a new attempt in the Doing state. The quota
	// gate is consulted first for the requested skill.
	StartAnExam(ctx context.Context, learnerID int64, req StartExamRequest, startTime time.Time) (*domain.ExamAttempt, error)

	// SubmitAnswer grades and records a multiple-choice answer.
	// Resubmissions for the same question overwrite the earlier answer.
	SubmitAnswer(ctx context.Context, attemptID uuid.UUID, questionID, selectedOptionID int64, now time.Time) (*domain.AnswerRecord, error)

	// SubmitResponseAnswer records a free-form speaking or writing
	// answer with an externally computed score fraction of the
	// question's weight and an opaque feedback payload.
	SubmitResponseAnswer(ctx context.Context, attemptID uuid.UUID, questionID int64, responseText string, feedback json.RawMessage, scoreFraction float64, now time.Time) (*domain.AnswerRecord, error)

	// EndAnExam completes the attempt with an externally supplied final
	// score. Ending is one-way; a second call fails with
	// domain.ErrInvalidState.
	EndAnExam(ctx context.Context, attemptID uuid.UUID, endTime time.Time, finalScore float64) (*domain.ExamAttempt, error)

	// FinalizeAttempt sums the attempt's recorded answer scores,
	// completes the attempt with that total and returns a summary.
	FinalizeAttempt(ctx context.Context, attemptID uuid.UUID, now time.Time) (*AttemptSummary, error)

	// GetAttempt retrieves one attempt.
	GetAttempt(ctx context.Context, attemptID uuid.UUID) (*domain.ExamAttempt, error)
}

// examServiceImpl implements the ExamService interface
type examServiceImpl struct {
	db       *sql.DB
	attempts store.ExamAttemptStore
	answers  store.AnswerStore
	content  store.ContentStore
	quota    QuotaService
	streaks  StreakService
	logger   *slog.Logger
}

// NewExamService creates a new ExamService.
// The streak service may be nil, in which case completions do not feed
// the streak tracker.
// It returns an error if any of the other dependencies are nil.
func NewExamService(
	db *sql.DB,
	attempts store.ExamAttemptStore,
	answers store.AnswerStore,
	content store.ContentStore,
	quota QuotaService,
	streaks StreakService,
	logger *slog.Logger,
) (ExamService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if attempts == nil {
		return nil, domain.NewValidationError("attempts", "cannot be nil", domain.ErrValidation)
	}
	if answers == nil {
		return nil, domain.NewValidationError("answers", "cannot be nil", domain.ErrValidation)
	}
	if content == nil {
		return nil, domain.NewValidationError("content", "cannot be nil", domain.ErrValidation)
	}
	if quota == nil {
		return nil, domain.NewValidationError("quota", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &examServiceImpl{
		db:       db,
		attempts: attempts,
		answers:  answers,
		content:  content,
		quota:    quota,
		streaks:  streaks,
		logger:   logger.With(slog.String("component", "exam_service")),
	}, nil
}

// StartAnExam implements ExamService.StartAnExam
func (s *examServiceImpl) StartAnExam(
	ctx context.Context,
	learnerID int64,
	req StartExamRequest,
	startTime time.Time,
) (*domain.ExamAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	verdict, err := s.quota.CheckQuota(ctx, learnerID, req.Skill, startTime)
	if err != nil {
		return nil, err
	}
	if !verdict.CanAccess {
		if verdict.RequiresUpgrade {
			log.Info("attempt blocked: premium-only skill",
				slog.Int64("learner_id", learnerID),
				slog.String("skill", string(req.Skill)))
			return nil, fmt.Errorf("%w: %s practice", ErrPremiumRequired, req.Skill)
		}
		log.Info("attempt blocked: quota exhausted",
			slog.Int64("learner_id", learnerID),
			slog.String("skill", string(req.Skill)))
		return nil, fmt.Errorf("%w: %s attempts this month", ErrQuotaExceeded, req.Skill)
	}

	attempt, err := domain.NewExamAttempt(
		learnerID,
		req.ExamID,
		req.PartID,
		req.Skill,
		req.AttemptType,
		req.SessionKey,
		startTime,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		log.Error("failed to create attempt",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID))
		return nil, NewServiceError("exam", "start_exam", "failed to create attempt", err)
	}

	if err := s.quota.IncrementQuota(ctx, learnerID, req.Skill, startTime); err != nil {
		// The attempt exists either way; losing one quota tick is
		// preferable to failing the started attempt.
		log.Warn("failed to increment quota after starting attempt",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID),
			slog.String("skill", string(req.Skill)))
	}

	log.Info("attempt started",
		slog.String("attempt_id", attempt.ID.String()),
		slog.Int64("learner_id", learnerID),
		slog.String("skill", string(req.Skill)),
		slog.String("attempt_type", string(req.AttemptType)))
	return attempt, nil
}

// SubmitAnswer implements ExamService.SubmitAnswer
// Grading happens inside the transaction so concurrent completion of
// the attempt cannot race the submission.
func (s *examServiceImpl) SubmitAnswer(
	ctx context.Context,
	attemptID uuid.UUID,
	questionID, selectedOptionID int64,
	now time.Time,
) (*domain.AnswerRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	question, err := s.content.GetQuestion(ctx, questionID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: question %d", domain.ErrNotFound, questionID)
		}
		return nil, NewServiceError("exam", "submit_answer", "failed to load question", err)
	}

	option := question.OptionByID(selectedOptionID)
	if option == nil {
		log.Warn("selected option does not belong to question",
			slog.Int64("question_id", questionID),
			slog.Int64("option_id", selectedOptionID))
		return nil, fmt.Errorf("%w: option %d does not belong to question %d",
			domain.ErrInvalidInput, selectedOptionID, questionID)
	}

	isCorrect := option.IsCorrect
	score := 0.0
	if isCorrect {
		score = question.ScoreWeight
	}

	answer := &domain.AnswerRecord{
		AttemptID:        attemptID,
		QuestionID:       questionID,
		Kind:             domain.AnswerKindChoice,
		SelectedOptionID: &selectedOptionID,
		IsCorrect:        &isCorrect,
		Score:            score,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.recordAnswer(ctx, attemptID, answer); err != nil {
		return nil, err
	}

	log.Info("answer recorded",
		slog.String("attempt_id", attemptID.String()),
		slog.Int64("question_id", questionID),
		slog.Bool("is_correct", isCorrect),
		slog.Float64("score", score))
	return answer, nil
}

// SubmitResponseAnswer implements ExamService.SubmitResponseAnswer
func (s *examServiceImpl) SubmitResponseAnswer(
	ctx context.Context,
	attemptID uuid.UUID,
	questionID int64,
	responseText string,
	feedback json.RawMessage,
	scoreFraction float64,
	now time.Time,
) (*domain.AnswerRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if scoreFraction < 0 || scoreFraction > 1 {
		return nil, fmt.Errorf("%w: score fraction %.2f outside [0, 1]",
			domain.ErrInvalidInput, scoreFraction)
	}

	question, err := s.content.GetQuestion(ctx, questionID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: question %d", domain.ErrNotFound, questionID)
		}
		return nil, NewServiceError("exam", "submit_response", "failed to load question", err)
	}

	kind := domain.AnswerKindSpeaking
	if question.Skill == domain.SkillWriting {
		kind = domain.AnswerKindWriting
	}

	answer := &domain.AnswerRecord{
		AttemptID:    attemptID,
		QuestionID:   questionID,
		Kind:         kind,
		ResponseText: responseText,
		Feedback:     feedback,
		Score:        scoreFraction * question.ScoreWeight,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.recordAnswer(ctx, attemptID, answer); err != nil {
		return nil, err
	}

	log.Info("response answer recorded",
		slog.String("attempt_id", attemptID.String()),
		slog.Int64("question_id", questionID),
		slog.String("kind", string(kind)),
		slog.Float64("score", answer.Score))
	return answer, nil
}

// recordAnswer upserts the answer under the attempt's row lock,
// rejecting submissions to completed attempts.
func (s *examServiceImpl) recordAnswer(
	ctx context.Context,
	attemptID uuid.UUID,
	answer *domain.AnswerRecord,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txAttempts := s.attempts.WithTx(tx)
		txAnswers := s.answers.WithTx(tx)

		attempt, err := txAttempts.GetForUpdate(ctx, attemptID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return fmt.Errorf("%w: attempt %s", domain.ErrNotFound, attemptID)
			}
			return err
		}
		if attempt.IsCompleted() {
			return fmt.Errorf("%w: attempt %s already completed",
				domain.ErrInvalidState, attemptID)
		}

		return txAnswers.Upsert(ctx, answer)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) ||
			errors.Is(err, domain.ErrInvalidState) ||
			errors.Is(err, domain.ErrInvalidInput) {
			return err
		}
		log.Error("failed to record answer",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attemptID.String()))
		return NewServiceError("exam", "record_answer", "failed to record answer", err)
	}
	return nil
}

// EndAnExam implements ExamService.EndAnExam
func (s *examServiceImpl) EndAnExam(
	ctx context.Context,
	attemptID uuid.UUID,
	endTime time.Time,
	finalScore float64,
) (*domain.ExamAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	attempt, err := s.completeAttempt(ctx, attemptID, endTime, func(a *domain.ExamAttempt) (float64, error) {
		return finalScore, nil
	})
	if err != nil {
		return nil, err
	}

	s.feedStreak(ctx, attempt.LearnerID, endTime)

	log.Info("attempt ended",
		slog.String("attempt_id", attemptID.String()),
		slog.Float64("score", finalScore))
	return attempt, nil
}

// FinalizeAttempt implements ExamService.FinalizeAttempt
func (s *examServiceImpl) FinalizeAttempt(
	ctx context.Context,
	attemptID uuid.UUID,
	now time.Time,
) (*AttemptSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var summary *AttemptSummary
	attempt, err := s.completeAttempt(ctx, attemptID, now, func(a *domain.ExamAttempt) (float64, error) {
		answers, err := s.answers.FindByAttempt(ctx, a.ID)
		if err != nil {
			return 0, err
		}

		total := 0.0
		correct := 0
		for _, answer := range answers {
			total += answer.Score
			if answer.IsCorrect != nil && *answer.IsCorrect {
				correct++
			}
		}

		percent := 0.0
		if len(answers) > 0 {
			percent = float64(correct) / float64(len(answers)) * 100
		}
		summary = &AttemptSummary{
			AttemptID:      a.ID,
			TotalScore:     total,
			CorrectAnswers: correct,
			TotalAnswers:   len(answers),
			Percent:        percent,
			Duration:       now.Sub(a.StartTime),
		}
		return total, nil
	})
	if err != nil {
		return nil, err
	}

	s.feedStreak(ctx, attempt.LearnerID, now)

	log.Info("attempt finalized",
		slog.String("attempt_id", attemptID.String()),
		slog.Float64("total_score", summary.TotalScore),
		slog.Int("correct", summary.CorrectAnswers),
		slog.Int("answers", summary.TotalAnswers))
	return summary, nil
}

// completeAttempt runs the one-way Doing -> Completed transition under
// the attempt's row lock. scoreFn computes the final score while the
// lock is held.
func (s *examServiceImpl) completeAttempt(
	ctx context.Context,
	attemptID uuid.UUID,
	endTime time.Time,
	scoreFn func(*domain.ExamAttempt) (float64, error),
) (*domain.ExamAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var completed *domain.ExamAttempt
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txAttempts := s.attempts.WithTx(tx)

		attempt, err := txAttempts.GetForUpdate(ctx, attemptID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return fmt.Errorf("%w: attempt %s", domain.ErrNotFound, attemptID)
			}
			return err
		}

		score, err := scoreFn(attempt)
		if err != nil {
			return err
		}

		if err := attempt.Complete(endTime, score); err != nil {
			return err
		}
		if err := txAttempts.Update(ctx, attempt); err != nil {
			return err
		}

		completed = attempt
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidState) {
			return nil, err
		}
		log.Error("failed to complete attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attemptID.String()))
		return nil, NewServiceError("exam", "complete_attempt", "failed to complete attempt", err)
	}

	return completed, nil
}

// feedStreak reports the completion to the streak tracker. Streak
// bookkeeping must never fail a finished exam, so errors are only
// logged.
func (s *examServiceImpl) feedStreak(ctx context.Context, learnerID int64, completedAt time.Time) {
	if s.streaks == nil {
		return
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	if _, err := s.streaks.CompletePracticeDay(ctx, learnerID, completedAt); err != nil {
		log.Warn("streak update after attempt completion failed",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID))
	}
}

// GetAttempt implements ExamService.GetAttempt
func (s *examServiceImpl) GetAttempt(ctx context.Context, attemptID uuid.UUID) (*domain.ExamAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: attempt %s", domain.ErrNotFound, attemptID)
		}
		log.Error("failed to retrieve attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attemptID.String()))
		return nil, NewServiceError("exam", "get_attempt", "failed to retrieve attempt", err)
	}
	return attempt, nil
}
