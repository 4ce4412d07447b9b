package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/store"
)

// PostgresAnswerStore implements the store.AnswerStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAnswerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnswerStore creates a new PostgreSQL implementation of the AnswerStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAnswerStore(db store.DBTX, logger *slog.Logger) *PostgresAnswerStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAnswerStore{
		db:     db,
		logger: logger.With(slog.String("component", "answer_store")),
	}
}

// Ensure PostgresAnswerStore implements store.AnswerStore interface
var _ store.AnswerStore = (*PostgresAnswerStore)(nil)

// Upsert implements store.AnswerStore.Upsert
// One row exists per (attempt, question); resubmissions overwrite the
// earlier values while keeping the original created_at.
func (s *PostgresAnswerStore) Upsert(ctx context.Context, answer *domain.AnswerRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := answer.Validate(); err != nil {
		log.Warn("answer validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("attempt_id", answer.AttemptID.String()),
			slog.Int64("question_id", answer.QuestionID))
		return err
	}

	query := `
		INSERT INTO answer_records (
			attempt_id, question_id, kind, selected_option_id,
			response_text, feedback, is_correct, score, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (attempt_id, question_id) DO UPDATE
		SET kind = EXCLUDED.kind,
			selected_option_id = EXCLUDED.selected_option_id,
			response_text = EXCLUDED.response_text,
			feedback = EXCLUDED.feedback,
			is_correct = EXCLUDED.is_correct,
			score = EXCLUDED.score,
			updated_at = EXCLUDED.updated_at
	`

	var feedback any
	if len(answer.Feedback) > 0 {
		feedback = []byte(answer.Feedback)
	}

	_, err := s.db.ExecContext(
		ctx,
		query,
		answer.AttemptID,
		answer.QuestionID,
		answer.Kind,
		answer.SelectedOptionID,
		answer.ResponseText,
		feedback,
		answer.IsCorrect,
		answer.Score,
		answer.CreatedAt,
		answer.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during answer upsert",
				slog.String("error", err.Error()),
				slog.String("attempt_id", answer.AttemptID.String()))
			return fmt.Errorf("%w: attempt %s not found",
				store.ErrInvalidEntity, answer.AttemptID)
		}

		log.Error("failed to upsert answer",
			slog.String("error", err.Error()),
			slog.String("attempt_id", answer.AttemptID.String()),
			slog.Int64("question_id", answer.QuestionID))
		return MapError(err)
	}

	log.Debug("answer upserted successfully",
		slog.String("attempt_id", answer.AttemptID.String()),
		slog.Int64("question_id", answer.QuestionID),
		slog.String("kind", string(answer.Kind)))
	return nil
}

// FindByAttempt implements store.AnswerStore.FindByAttempt
func (s *PostgresAnswerStore) FindByAttempt(ctx context.Context, attemptID uuid.UUID) ([]*domain.AnswerRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT attempt_id, question_id, kind, selected_option_id,
			response_text, feedback, is_correct, score, created_at, updated_at
		FROM answer_records
		WHERE attempt_id = $1
		ORDER BY question_id
	`

	rows, err := s.db.QueryContext(ctx, query, attemptID)
	if err != nil {
		log.Error("failed to query answers",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attemptID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var answers []*domain.AnswerRecord
	for rows.Next() {
		var answer domain.AnswerRecord
		var kind string
		var selectedOption sql.NullInt64
		var responseText sql.NullString
		var feedback []byte
		var isCorrect sql.NullBool

		err := rows.Scan(
			&answer.AttemptID,
			&answer.QuestionID,
			&kind,
			&selectedOption,
			&responseText,
			&feedback,
			&isCorrect,
			&answer.Score,
			&answer.CreatedAt,
			&answer.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan answer row", slog.String("error", err.Error()))
			return nil, err
		}

		answer.Kind = domain.AnswerKind(kind)
		if selectedOption.Valid {
			answer.SelectedOptionID = &selectedOption.Int64
		}
		if responseText.Valid {
			answer.ResponseText = responseText.String
		}
		if len(feedback) > 0 {
			answer.Feedback = feedback
		}
		if isCorrect.Valid {
			answer.IsCorrect = &isCorrect.Bool
		}

		answers = append(answers, &answer)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if answers == nil {
		answers = []*domain.AnswerRecord{}
	}

	log.Debug("found answers for attempt",
		slog.String("attempt_id", attemptID.String()),
		slog.Int("count", len(answers)))
	return answers, nil
}

// WithTx implements store.AnswerStore.WithTx
// It returns a store bound to the given transaction.
func (s *PostgresAnswerStore) WithTx(tx *sql.Tx) store.AnswerStore {
	return &PostgresAnswerStore{
		db:     tx,
		logger: s.logger,
	}
}
