package postgres

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

// PostgresContentStore implements the store.ContentStore and
// store.SubscriptionStore interfaces over the read-only content and
// billing tables.
type PostgresContentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresContentStore creates a new PostgreSQL implementation of the content catalog.
// If logger is nil, a default logger will be used.
func NewPostgresContentStore(db store.DBTX, logger *slog.Logger) *PostgresContentStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresContentStore{
		db:     db,
		logger: logger.With(slog.String("component", "content_store")),
	}
}

// Ensure PostgresContentStore implements both read-only interfaces
var (
	_ store.ContentStore      = (*PostgresContentStore)(nil)
	_ store.SubscriptionStore = (*PostgresContentStore)(nil)
)

// GetQuestion implements store.ContentStore.GetQuestion
// Returns store.ErrQuestionNotFound if the question does not exist.
func (s *PostgresContentStore) GetQuestion(ctx context.Context, questionID int64) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, part_id, skill, score_weight
		FROM questions
		WHERE id = $1
	`

	var question domain.Question
	var skill string

	err := s.db.QueryRowContext(ctx, query, questionID).Scan(
		&question.ID,
		&question.PartID,
		&skill,
		&question.ScoreWeight,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("question not found", slog.Int64("question_id", questionID))
			return nil, store.ErrQuestionNotFound
		}
		log.Error("failed to get question",
			slog.String("error", err.Error()),
			slog.Int64("question_id", questionID))
		return nil, MapError(err)
	}
	question.Skill = domain.Skill(skill)

	optionsQuery := `
		SELECT id, content, is_correct
		FROM question_options
		WHERE question_id = $1
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, optionsQuery, questionID)
	if err != nil {
		log.Error("failed to query question options",
			slog.String("error", err.Error()),
			slog.Int64("question_id", questionID))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		var option domain.Option
		if err := rows.Scan(&option.ID, &option.Content, &option.IsCorrect); err != nil {
			log.Error("failed to scan option row", slog.String("error", err.Error()))
			return nil, err
		}
		question.Options = append(question.Options, option)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return &question, nil
}

// ListExists implements store.ContentStore.ListExists
func (s *PostgresContentStore) ListExists(ctx context.Context, listID int64) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT EXISTS (SELECT 1 FROM vocabulary_lists WHERE id = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, listID).Scan(&exists); err != nil {
		log.Error("failed to check vocabulary list",
			slog.String("error", err.Error()),
			slog.Int64("list_id", listID))
		return false, MapError(err)
	}
	return exists, nil
}

// HasActiveSubscription implements store.SubscriptionStore.HasActiveSubscription
// A learner is premium when a subscription row covers the given instant.
func (s *PostgresContentStore) HasActiveSubscription(
	ctx context.Context,
	learnerID int64,
	now time.Time,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM subscriptions
			WHERE learner_id = $1
			  AND starts_at <= $2
			  AND expires_at > $2
		)
	`

	var active bool
	if err := s.db.QueryRowContext(ctx, query, learnerID, now).Scan(&active); err != nil {
		log.Error("failed to check subscription",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID))
		return false, MapError(err)
	}
	return active, nil
}
