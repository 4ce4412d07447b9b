package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/store"
)

// PostgresRepetitionStore implements the store.RepetitionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRepetitionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRepetitionStore creates a new PostgreSQL implementation of the RepetitionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresRepetitionStore(db store.DBTX, logger *slog.Logger) *PostgresRepetitionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRepetitionStore{
		db:     db,
		logger: logger.With(slog.String("component", "repetition_store")),
	}
}

// Ensure PostgresRepetitionStore implements store.RepetitionStore interface
var _ store.RepetitionStore = (*PostgresRepetitionStore)(nil)

const repetitionColumns = `
	learner_id, list_id, vocabulary_id, last_reviewed_at, next_review_at,
	review_count, interval_days, status, best_quiz_score, last_quiz_score,
	last_quiz_at, total_quiz_count, created_at, updated_at
`

// scanRepetition reads one repetition row into a domain object.
func scanRepetition(row interface{ Scan(dest ...any) error }) (*domain.RepetitionRecord, error) {
	var record domain.RepetitionRecord
	var status string
	var nextReview, lastQuizAt sql.NullTime
	var bestScore, lastScore sql.NullFloat64

	err := row.Scan(
		&record.LearnerID,
		&record.ListID,
		&record.VocabularyID,
		&record.LastReviewedAt,
		&nextReview,
		&record.ReviewCount,
		&record.IntervalDays,
		&status,
		&bestScore,
		&lastScore,
		&lastQuizAt,
		&record.TotalQuizCount,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Status = domain.RepetitionStatus(status)
	if nextReview.Valid {
		t := nextReview.Time.UTC()
		record.NextReviewAt = &t
	}
	if bestScore.Valid {
		record.BestQuizScore = &bestScore.Float64
	}
	if lastScore.Valid {
		record.LastQuizScore = &lastScore.Float64
	}
	if lastQuizAt.Valid {
		t := lastQuizAt.Time.UTC()
		record.LastQuizAt = &t
	}
	return &record, nil
}

// Create implements store.RepetitionStore.Create
// It saves a new repetition record, handling domain validation.
func (s *PostgresRepetitionStore) Create(ctx context.Context, record *domain.RepetitionRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("repetition record validation failed during create",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", record.LearnerID),
			slog.Int64("list_id", record.ListID))
		return err
	}

	query := `
		INSERT INTO repetition_records (` + repetitionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		record.LearnerID,
		record.ListID,
		record.VocabularyID,
		record.LastReviewedAt,
		record.NextReviewAt,
		record.ReviewCount,
		record.IntervalDays,
		record.Status,
		record.BestQuizScore,
		record.LastQuizScore,
		record.LastQuizAt,
		record.TotalQuizCount,
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("repetition record already exists",
				slog.Int64("learner_id", record.LearnerID),
				slog.Int64("list_id", record.ListID),
				slog.Int64("vocabulary_id", record.VocabularyID))
			return fmt.Errorf("%w: repetition record", store.ErrDuplicate)
		}

		log.Error("failed to create repetition record",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", record.LearnerID),
			slog.Int64("list_id", record.ListID))
		return MapError(err)
	}

	log.Info("repetition record created",
		slog.Int64("learner_id", record.LearnerID),
		slog.Int64("list_id", record.ListID),
		slog.Int64("vocabulary_id", record.VocabularyID))
	return nil
}

// Get implements store.RepetitionStore.Get
// Returns store.ErrRepetitionNotFound if the record does not exist.
func (s *PostgresRepetitionStore) Get(
	ctx context.Context,
	learnerID, listID, vocabularyID int64,
) (*domain.RepetitionRecord, error) {
	return s.get(ctx, learnerID, listID, vocabularyID, false)
}

// GetForUpdate implements store.RepetitionStore.GetForUpdate
// It locks the record row with SELECT FOR UPDATE; call it within a
// transaction.
// Returns store.ErrRepetitionNotFound if the record does not exist.
func (s *PostgresRepetitionStore) GetForUpdate(
	ctx context.Context,
	learnerID, listID, vocabularyID int64,
) (*domain.RepetitionRecord, error) {
	return s.get(ctx, learnerID, listID, vocabularyID, true)
}

func (s *PostgresRepetitionStore) get(
	ctx context.Context,
	learnerID, listID, vocabularyID int64,
	forUpdate bool,
) (*domain.RepetitionRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + repetitionColumns + `
		FROM repetition_records
		WHERE learner_id = $1 AND list_id = $2 AND vocabulary_id = $3
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	record, err := scanRepetition(s.db.QueryRowContext(ctx, query, learnerID, listID, vocabularyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("repetition record not found",
				slog.Int64("learner_id", learnerID),
				slog.Int64("list_id", listID),
				slog.Int64("vocabulary_id", vocabularyID))
			return nil, store.ErrRepetitionNotFound
		}
		log.Error("failed to get repetition record",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID),
			slog.Int64("list_id", listID))
		return nil, MapError(err)
	}

	return record, nil
}

// Update implements store.RepetitionStore.Update
// Returns store.ErrRepetitionNotFound if the record does not exist.
func (s *PostgresRepetitionStore) Update(ctx context.Context, record *domain.RepetitionRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("repetition record validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", record.LearnerID),
			slog.Int64("list_id", record.ListID))
		return err
	}

	query := `
		UPDATE repetition_records
		SET last_reviewed_at = $1,
			next_review_at = $2,
			review_count = $3,
			interval_days = $4,
			status = $5,
			best_quiz_score = $6,
			last_quiz_score = $7,
			last_quiz_at = $8,
			total_quiz_count = $9,
			updated_at = $10
		WHERE learner_id = $11 AND list_id = $12 AND vocabulary_id = $13
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		record.LastReviewedAt,
		record.NextReviewAt,
		record.ReviewCount,
		record.IntervalDays,
		record.Status,
		record.BestQuizScore,
		record.LastQuizScore,
		record.LastQuizAt,
		record.TotalQuizCount,
		record.UpdatedAt,
		record.LearnerID,
		record.ListID,
		record.VocabularyID,
	)
	if err != nil {
		log.Error("failed to update repetition record",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", record.LearnerID),
			slog.Int64("list_id", record.ListID))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", record.LearnerID))
		return err
	}
	if rowsAffected == 0 {
		log.Debug("repetition record not found for update",
			slog.Int64("learner_id", record.LearnerID),
			slog.Int64("list_id", record.ListID))
		return store.ErrRepetitionNotFound
	}

	log.Debug("repetition record updated",
		slog.Int64("learner_id", record.LearnerID),
		slog.Int64("list_id", record.ListID),
		slog.String("status", string(record.Status)))
	return nil
}

// FindDue implements store.RepetitionStore.FindDue
// DueModeStruggle narrows the result to records stuck at the shortest
// interval after at least one review.
func (s *PostgresRepetitionStore) FindDue(
	ctx context.Context,
	learnerID int64,
	now time.Time,
	mode store.DueMode,
) ([]*domain.RepetitionRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + repetitionColumns + `
		FROM repetition_records
		WHERE learner_id = $1
		  AND next_review_at IS NOT NULL
		  AND next_review_at <= $2
	`
	if mode == store.DueModeStruggle {
		query += ` AND review_count > 0 AND interval_days = 1`
	}
	query += ` ORDER BY next_review_at`

	rows, err := s.db.QueryContext(ctx, query, learnerID, now)
	if err != nil {
		log.Error("failed to query due records",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var records []*domain.RepetitionRecord
	for rows.Next() {
		record, err := scanRepetition(rows)
		if err != nil {
			log.Error("failed to scan repetition row", slog.String("error", err.Error()))
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if records == nil {
		records = []*domain.RepetitionRecord{}
	}

	log.Debug("found due records",
		slog.Int64("learner_id", learnerID),
		slog.String("mode", string(mode)),
		slog.Int("count", len(records)))
	return records, nil
}

// WithTx implements store.RepetitionStore.WithTx
// It returns a store bound to the given transaction.
func (s *PostgresRepetitionStore) WithTx(tx *sql.Tx) store.RepetitionStore {
	return &PostgresRepetitionStore{
		db:     tx,
		logger: s.logger,
	}
}
