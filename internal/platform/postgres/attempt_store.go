package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/store"
)

// PostgresAttemptStore implements the store.ExamAttemptStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAttemptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAttemptStore creates a new PostgreSQL implementation of the ExamAttemptStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAttemptStore(db store.DBTX, logger *slog.Logger) *PostgresAttemptStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAttemptStore{
		db:     db,
		logger: logger.With(slog.String("component", "attempt_store")),
	}
}

// Ensure PostgresAttemptStore implements store.ExamAttemptStore interface
var _ store.ExamAttemptStore = (*PostgresAttemptStore)(nil)

const attemptColumns = `
	id, learner_id, exam_id, part_id, skill, attempt_type, session_key,
	start_time, end_time, score, status, created_at, updated_at
`

// scanAttempt reads one attempt row into a domain object.
func scanAttempt(row interface{ Scan(dest ...any) error }) (*domain.ExamAttempt, error) {
	var attempt domain.ExamAttempt
	var skill, attemptType, status string
	var partID sql.NullInt64
	var sessionKey sql.NullString
	var endTime sql.NullTime
	var score sql.NullFloat64

	err := row.Scan(
		&attempt.ID,
		&attempt.LearnerID,
		&attempt.ExamID,
		&partID,
		&skill,
		&attemptType,
		&sessionKey,
		&attempt.StartTime,
		&endTime,
		&score,
		&status,
		&attempt.CreatedAt,
		&attempt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	attempt.Skill = domain.Skill(skill)
	attempt.Type = domain.AttemptType(attemptType)
	attempt.Status = domain.AttemptStatus(status)
	if partID.Valid {
		attempt.PartID = &partID.Int64
	}
	if sessionKey.Valid {
		attempt.SessionKey = &sessionKey.String
	}
	if endTime.Valid {
		t := endTime.Time.UTC()
		attempt.EndTime = &t
	}
	if score.Valid {
		attempt.Score = &score.Float64
	}
	return &attempt, nil
}

// Create implements store.ExamAttemptStore.Create
// It saves a new attempt, handling domain validation.
func (s *PostgresAttemptStore) Create(ctx context.Context, attempt *domain.ExamAttempt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := attempt.Validate(); err != nil {
		log.Warn("attempt validation failed during create",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()))
		return err
	}

	query := `
		INSERT INTO exam_attempts (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		attempt.ID,
		attempt.LearnerID,
		attempt.ExamID,
		attempt.PartID,
		attempt.Skill,
		attempt.Type,
		attempt.SessionKey,
		attempt.StartTime,
		attempt.EndTime,
		attempt.Score,
		attempt.Status,
		attempt.CreatedAt,
		attempt.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during attempt creation",
				slog.String("error", err.Error()),
				slog.String("attempt_id", attempt.ID.String()),
				slog.Int64("learner_id", attempt.LearnerID))
			return fmt.Errorf("%w: learner %d not found",
				store.ErrInvalidEntity, attempt.LearnerID)
		}

		log.Error("failed to create attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()))
		return MapError(err)
	}

	log.Info("attempt created successfully",
		slog.String("attempt_id", attempt.ID.String()),
		slog.Int64("learner_id", attempt.LearnerID),
		slog.String("skill", string(attempt.Skill)),
		slog.String("attempt_type", string(attempt.Type)))
	return nil
}

// GetByID implements store.ExamAttemptStore.GetByID
// Returns store.ErrAttemptNotFound if the attempt does not exist.
func (s *PostgresAttemptStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExamAttempt, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate implements store.ExamAttemptStore.GetForUpdate
// It locks the attempt row with SELECT FOR UPDATE; call it within a
// transaction.
// Returns store.ErrAttemptNotFound if the attempt does not exist.
func (s *PostgresAttemptStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.ExamAttempt, error) {
	return s.get(ctx, id, true)
}

func (s *PostgresAttemptStore) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.ExamAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + attemptColumns + ` FROM exam_attempts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	attempt, err := scanAttempt(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("attempt not found", slog.String("attempt_id", id.String()))
			return nil, store.ErrAttemptNotFound
		}
		log.Error("failed to get attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", id.String()))
		return nil, MapError(err)
	}

	return attempt, nil
}

// Update implements store.ExamAttemptStore.Update
// Returns store.ErrAttemptNotFound if the attempt does not exist.
func (s *PostgresAttemptStore) Update(ctx context.Context, attempt *domain.ExamAttempt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := attempt.Validate(); err != nil {
		log.Warn("attempt validation failed during update",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()))
		return err
	}

	query := `
		UPDATE exam_attempts
		SET end_time = $1, score = $2, status = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		attempt.EndTime,
		attempt.Score,
		attempt.Status,
		attempt.UpdatedAt,
		attempt.ID,
	)
	if err != nil {
		log.Error("failed to update attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()))
		return err
	}
	if rowsAffected == 0 {
		log.Debug("attempt not found for update",
			slog.String("attempt_id", attempt.ID.String()))
		return store.ErrAttemptNotFound
	}

	log.Debug("attempt updated successfully",
		slog.String("attempt_id", attempt.ID.String()),
		slog.String("status", string(attempt.Status)))
	return nil
}

// FindBySessionKey implements store.ExamAttemptStore.FindBySessionKey
func (s *PostgresAttemptStore) FindBySessionKey(
	ctx context.Context,
	learnerID int64,
	sessionKey string,
) ([]*domain.ExamAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + attemptColumns + `
		FROM exam_attempts
		WHERE learner_id = $1 AND session_key = $2
		ORDER BY start_time
	`

	return s.queryAttempts(ctx, log, query, learnerID, sessionKey)
}

// FindByLearner implements store.ExamAttemptStore.FindByLearner
func (s *PostgresAttemptStore) FindByLearner(
	ctx context.Context,
	learnerID int64,
	limit, offset int,
) ([]*domain.ExamAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + attemptColumns + `
		FROM exam_attempts
		WHERE learner_id = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3
	`

	return s.queryAttempts(ctx, log, query, learnerID, limit, offset)
}

func (s *PostgresAttemptStore) queryAttempts(
	ctx context.Context,
	log *slog.Logger,
	query string,
	args ...any,
) ([]*domain.ExamAttempt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query attempts", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var attempts []*domain.ExamAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			log.Error("failed to scan attempt row", slog.String("error", err.Error()))
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if attempts == nil {
		attempts = []*domain.ExamAttempt{}
	}
	return attempts, nil
}

// WithTx implements store.ExamAttemptStore.WithTx
// It returns a store bound to the given transaction.
func (s *PostgresAttemptStore) WithTx(tx *sql.Tx) store.ExamAttemptStore {
	return &PostgresAttemptStore{
		db:     tx,
		logger: s.logger,
	}
}
