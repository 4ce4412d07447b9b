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

// PostgresLearnerStore implements the store.LearnerStateStore interface
// using a PostgreSQL database as the storage backend.
type PostgresLearnerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLearnerStore creates a new PostgreSQL implementation of the LearnerStateStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresLearnerStore(db store.DBTX, logger *slog.Logger) *PostgresLearnerStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLearnerStore{
		db:     db,
		logger: logger.With(slog.String("component", "learner_store")),
	}
}

// Ensure PostgresLearnerStore implements store.LearnerStateStore interface
var _ store.LearnerStateStore = (*PostgresLearnerStore)(nil)

const learnerColumns = `
	learner_id, monthly_reading_attempts, monthly_listening_attempts,
	last_quota_reset, current_streak, longest_streak, freeze_tokens,
	last_practice_date, is_active, created_at, updated_at
`

// scanLearner reads one learner row into a domain object.
func scanLearner(row interface{ Scan(dest ...any) error }) (*domain.LearnerState, error) {
	var state domain.LearnerState
	var lastPractice sql.NullTime

	err := row.Scan(
		&state.LearnerID,
		&state.MonthlyReadingAttempts,
		&state.MonthlyListeningAttempts,
		&state.LastQuotaReset,
		&state.CurrentStreak,
		&state.LongestStreak,
		&state.FreezeTokens,
		&lastPractice,
		&state.IsActive,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastPractice.Valid {
		d := lastPractice.Time.UTC()
		state.LastPracticeDate = &d
	}
	return &state, nil
}

// Create implements store.LearnerStateStore.Create
// It saves a new learner state row, handling domain validation.
func (s *PostgresLearnerStore) Create(ctx context.Context, state *domain.LearnerState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		log.Warn("learner state validation failed during create",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", state.LearnerID))
		return err
	}

	query := `
		INSERT INTO learners (` + learnerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		state.LearnerID,
		state.MonthlyReadingAttempts,
		state.MonthlyListeningAttempts,
		state.LastQuotaReset,
		state.CurrentStreak,
		state.LongestStreak,
		state.FreezeTokens,
		state.LastPracticeDate,
		state.IsActive,
		state.CreatedAt,
		state.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("learner state already exists",
				slog.Int64("learner_id", state.LearnerID))
			return fmt.Errorf("%w: learner %d", store.ErrDuplicate, state.LearnerID)
		}

		log.Error("failed to create learner state",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", state.LearnerID))
		return MapError(err)
	}

	log.Info("learner state created successfully",
		slog.Int64("learner_id", state.LearnerID))
	return nil
}

// GetByID implements store.LearnerStateStore.GetByID
// Returns store.ErrLearnerNotFound if no row exists.
func (s *PostgresLearnerStore) GetByID(ctx context.Context, learnerID int64) (*domain.LearnerState, error) {
	return s.get(ctx, learnerID, false)
}

// GetForUpdate implements store.LearnerStateStore.GetForUpdate
// It locks the learner's row with SELECT FOR UPDATE; call it within a
// transaction.
// Returns store.ErrLearnerNotFound if no row exists.
func (s *PostgresLearnerStore) GetForUpdate(ctx context.Context, learnerID int64) (*domain.LearnerState, error) {
	return s.get(ctx, learnerID, true)
}

func (s *PostgresLearnerStore) get(ctx context.Context, learnerID int64, forUpdate bool) (*domain.LearnerState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + learnerColumns + ` FROM learners WHERE learner_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	state, err := scanLearner(s.db.QueryRowContext(ctx, query, learnerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("learner state not found", slog.Int64("learner_id", learnerID))
			return nil, store.ErrLearnerNotFound
		}
		log.Error("failed to get learner state",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID))
		return nil, MapError(err)
	}

	return state, nil
}

// Update implements store.LearnerStateStore.Update
// Returns store.ErrLearnerNotFound if no row exists.
func (s *PostgresLearnerStore) Update(ctx context.Context, state *domain.LearnerState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		log.Warn("learner state validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", state.LearnerID))
		return err
	}

	query := `
		UPDATE learners
		SET monthly_reading_attempts = $1,
			monthly_listening_attempts = $2,
			last_quota_reset = $3,
			current_streak = $4,
			longest_streak = $5,
			freeze_tokens = $6,
			last_practice_date = $7,
			is_active = $8,
			updated_at = $9
		WHERE learner_id = $10
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		state.MonthlyReadingAttempts,
		state.MonthlyListeningAttempts,
		state.LastQuotaReset,
		state.CurrentStreak,
		state.LongestStreak,
		state.FreezeTokens,
		state.LastPracticeDate,
		state.IsActive,
		state.UpdatedAt,
		state.LearnerID,
	)
	if err != nil {
		log.Error("failed to update learner state",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", state.LearnerID))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", state.LearnerID))
		return err
	}
	if rowsAffected == 0 {
		log.Debug("learner state not found for update",
			slog.Int64("learner_id", state.LearnerID))
		return store.ErrLearnerNotFound
	}

	log.Debug("learner state updated successfully",
		slog.Int64("learner_id", state.LearnerID))
	return nil
}

// FindReminderCandidates implements store.LearnerStateStore.FindReminderCandidates
// It returns active learners whose last counted practice day is exactly
// the given day and whose streak is positive.
func (s *PostgresLearnerStore) FindReminderCandidates(ctx context.Context, day time.Time) ([]*domain.LearnerState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + learnerColumns + `
		FROM learners
		WHERE is_active = TRUE
		  AND last_practice_date = $1
		  AND current_streak > 0
		ORDER BY learner_id
	`

	return s.queryLearners(ctx, log, query, day)
}

// TopStreaks implements store.LearnerStateStore.TopStreaks
func (s *PostgresLearnerStore) TopStreaks(ctx context.Context, n int) ([]*domain.LearnerState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if n <= 0 {
		n = 10
	}

	query := `
		SELECT ` + learnerColumns + `
		FROM learners
		WHERE is_active = TRUE
		ORDER BY current_streak DESC, longest_streak DESC, learner_id
		LIMIT $1
	`

	return s.queryLearners(ctx, log, query, n)
}

func (s *PostgresLearnerStore) queryLearners(
	ctx context.Context,
	log *slog.Logger,
	query string,
	args ...any,
) ([]*domain.LearnerState, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query learners", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var states []*domain.LearnerState
	for rows.Next() {
		state, err := scanLearner(rows)
		if err != nil {
			log.Error("failed to scan learner row", slog.String("error", err.Error()))
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if states == nil {
		states = []*domain.LearnerState{}
	}
	return states, nil
}

// ResetAllQuotas implements store.LearnerStateStore.ResetAllQuotas
// It zeroes every learner's monthly attempt counters in one statement.
func (s *PostgresLearnerStore) ResetAllQuotas(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE learners
		SET monthly_reading_attempts = 0,
			monthly_listening_attempts = 0,
			last_quota_reset = $1,
			updated_at = $1
	`

	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		log.Error("failed to reset quotas", slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected", slog.String("error", err.Error()))
		return 0, err
	}

	log.Info("monthly quotas reset",
		slog.Int64("learners", rowsAffected))
	return rowsAffected, nil
}

// WithTx implements store.LearnerStateStore.WithTx
// It returns a store bound to the given transaction.
func (s *PostgresLearnerStore) WithTx(tx *sql.Tx) store.LearnerStateStore {
	return &PostgresLearnerStore{
		db:     tx,
		logger: s.logger,
	}
}
