package store

import (
	"context"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
)

// ContentStore defines read access to the exam content catalog. Content
// is authored elsewhere; this service never writes it.
type ContentStore interface {
	// GetQuestion retrieves a question together with its options.
	// Returns ErrQuestionNotFound if the question does not exist.
	GetQuestion(ctx context.Context, questionID int64) (*domain.Question, error)

	// ListExists reports whether a vocabulary list exists.
	ListExists(ctx context.Context, listID int64) (bool, error)
}

// SubscriptionStore defines read access to learner subscription status.
// Billing is owned by an external system; the quota gate only needs the
// active/inactive answer.
type SubscriptionStore interface {
	// HasActiveSubscription reports whether the learner has a premium
	// subscription active at the given instant.
	HasActiveSubscription(ctx context.Context, learnerID int64, now time.Time) (bool, error)
}
