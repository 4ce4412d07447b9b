package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lumalearn/luma-api/internal/domain"
)

// ExamAttemptStore defines the interface for exam attempt persistence.
type ExamAttemptStore interface {
	// Create saves a new exam attempt.
	// It handles domain validation internally.
	Create(ctx context.Context, attempt *domain.ExamAttempt) error

	// GetByID retrieves an attempt by its unique ID.
	// Returns ErrAttemptNotFound if the attempt does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExamAttempt, error)

	// GetForUpdate retrieves an attempt with a row-level lock using
	// SELECT FOR UPDATE. Use within a transaction when the attempt row
	// will be modified.
	// Returns ErrAttemptNotFound if the attempt does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.ExamAttempt, error)

	// Update saves changes to an existing attempt.
	// Returns ErrAttemptNotFound if the attempt does not exist.
	Update(ctx context.Context, attempt *domain.ExamAttempt) error

	// FindBySessionKey retrieves every attempt sharing a mock-test
	// session key, for one learner. Returns an empty slice when none
	// match.
	FindBySessionKey(ctx context.Context, learnerID int64, sessionKey string) ([]*domain.ExamAttempt, error)

	// FindByLearner retrieves a learner's attempts, newest first.
	// Can limit the number of results and paginate through offset.
	FindByLearner(ctx context.Context, learnerID int64, limit, offset int) ([]*domain.ExamAttempt, error)

	// WithTx returns a new ExamAttemptStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) ExamAttemptStore
}

// AnswerStore defines the interface for answer record persistence.
type AnswerStore interface {
	// Upsert inserts the answer or, when one already exists for the same
	// attempt and question, overwrites it with the new values.
	// It handles domain validation internally.
	Upsert(ctx context.Context, answer *domain.AnswerRecord) error

	// FindByAttempt retrieves all answers recorded for an attempt.
	// Returns an empty slice when the attempt has none.
	FindByAttempt(ctx context.Context, attemptID uuid.UUID) ([]*domain.AnswerRecord, error)

	// WithTx returns a new AnswerStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AnswerStore
}
