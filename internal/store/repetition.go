package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
)

// DueMode selects which slice of a learner's due queue a query returns.
type DueMode string

// Due query modes.
const (
	// DueModeAll selects every record whose next review time has passed.
	DueModeAll DueMode = "all"

	// DueModeStruggle narrows DueModeAll to records that have been
	// reviewed at least once but still sit at the shortest interval.
	DueModeStruggle DueMode = "struggle"
)

// RepetitionStore defines the interface for repetition record persistence.
type RepetitionStore interface {
	// Create saves a new repetition record.
	// It handles domain validation internally.
	Create(ctx context.Context, record *domain.RepetitionRecord) error

	// Get retrieves the record for a learner and list, with vocabularyID
	// 0 addressing the list-level record.
	// Returns ErrRepetitionNotFound if the record does not exist.
	Get(ctx context.Context, learnerID, listID, vocabularyID int64) (*domain.RepetitionRecord, error)

	// GetForUpdate retrieves a record with a row-level lock using
	// SELECT FOR UPDATE. Use within a transaction when the record row
	// will be modified.
	// Returns ErrRepetitionNotFound if the record does not exist.
	GetForUpdate(ctx context.Context, learnerID, listID, vocabularyID int64) (*domain.RepetitionRecord, error)

	// Update saves changes to an existing record.
	// Returns ErrRepetitionNotFound if the record does not exist.
	Update(ctx context.Context, record *domain.RepetitionRecord) error

	// FindDue retrieves a learner's records due at the given time, in
	// due order. The mode narrows the selection; see DueMode.
	FindDue(ctx context.Context, learnerID int64, now time.Time, mode DueMode) ([]*domain.RepetitionRecord, error)

	// WithTx returns a new RepetitionStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) RepetitionStore
}
