package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
)

// LearnerStateStore defines the interface for learner progress persistence.
type LearnerStateStore interface {
	// Create saves a new learner state row.
	// It handles domain validation internally.
	Create(ctx context.Context, state *domain.LearnerState) error

	// GetByID retrieves a learner's state.
	// Returns ErrLearnerNotFound if no row exists.
	GetByID(ctx context.Context, learnerID int64) (*domain.LearnerState, error)

	// GetForUpdate retrieves a learner's state with a row-level lock using
	// SELECT FOR UPDATE. This should be used within a transaction when you
	// plan to update the row and need protection from concurrent
	// modifications.
	// Returns ErrLearnerNotFound if no row exists.
	GetForUpdate(ctx context.Context, learnerID int64) (*domain.LearnerState, error)

	// Update modifies an existing learner state row.
	// Returns ErrLearnerNotFound if no row exists.
	Update(ctx context.Context, state *domain.LearnerState) error

	// FindReminderCandidates returns active learners whose last practice
	// day is exactly the given day and whose streak is positive. The day
	// must be normalized to midnight UTC.
	FindReminderCandidates(ctx context.Context, day time.Time) ([]*domain.LearnerState, error)

	// TopStreaks returns up to n learner states ordered by current streak
	// descending.
	TopStreaks(ctx context.Context, n int) ([]*domain.LearnerState, error)

	// ResetAllQuotas zeroes every learner's monthly attempt counters and
	// stamps last_quota_reset with now. Returns the number of rows reset.
	ResetAllQuotas(ctx context.Context, now time.Time) (int64, error)

	// WithTx returns a new LearnerStateStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) LearnerStateStore
}
