package domain

import (
	"errors"
	"time"
)

// RepetitionStatus represents how far a vocabulary record has
// progressed through the review ladder.
type RepetitionStatus string

// Possible repetition status values.
const (
	RepetitionStatusNew      RepetitionStatus = "New"
	RepetitionStatusLearning RepetitionStatus = "Learning"
	RepetitionStatusReview   RepetitionStatus = "Review"
	RepetitionStatusMastered RepetitionStatus = "Mastered"
)

// Common validation errors for RepetitionRecord.
var (
	ErrEmptyRepetitionLearner = errors.New("repetition record learner ID cannot be empty")
	ErrEmptyRepetitionList    = errors.New("repetition record list ID cannot be empty")
	ErrInvalidIntervalDays    = errors.New("interval days must be greater than or equal to 0")
	ErrNegativeReviewCount    = errors.New("review count cannot be negative")
)

// RepetitionRecord tracks a learner's spaced-repetition progress for a
// vocabulary list, or for a single vocabulary item when VocabularyID is
// non-zero. One record exists per learner and list/item; records are
// created on first review and never deleted by the core.
type RepetitionRecord struct {
	LearnerID       int64            `json:"learner_id"`
	ListID          int64            `json:"list_id"`
	VocabularyID    int64            `json:"vocabulary_id"` // 0 for list-level records
	LastReviewedAt  time.Time        `json:"last_reviewed_at"`
	NextReviewAt    *time.Time       `json:"next_review_at,omitempty"`
	ReviewCount     int              `json:"review_count"`
	IntervalDays    int              `json:"interval_days"`
	Status          RepetitionStatus `json:"status"`
	BestQuizScore   *float64         `json:"best_quiz_score,omitempty"`
	LastQuizScore   *float64         `json:"last_quiz_score,omitempty"`
	LastQuizAt      *time.Time       `json:"last_quiz_at,omitempty"`
	TotalQuizCount  int              `json:"total_quiz_count"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewRepetitionRecord creates a fresh record due for its first review
// tomorrow, matching the scheduler's shortest interval.
func NewRepetitionRecord(learnerID, listID, vocabularyID int64, now time.Time) (*RepetitionRecord, error) {
	next := now.AddDate(0, 0, 1)
	record := &RepetitionRecord{
		LearnerID:      learnerID,
		ListID:         listID,
		VocabularyID:   vocabularyID,
		LastReviewedAt: now,
		NextReviewAt:   &next,
		IntervalDays:   1,
		Status:         RepetitionStatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the RepetitionRecord has valid data.
func (r *RepetitionRecord) Validate() error {
	if r.LearnerID == 0 {
		return ErrEmptyRepetitionLearner
	}
	if r.ListID == 0 {
		return ErrEmptyRepetitionList
	}
	if r.IntervalDays < 0 {
		return ErrInvalidIntervalDays
	}
	if r.ReviewCount < 0 {
		return ErrNegativeReviewCount
	}
	return nil
}

// Clone returns a deep copy of the record. The scheduler follows the
// immutable update pattern and returns new instances.
func (r *RepetitionRecord) Clone() *RepetitionRecord {
	clone := *r
	if r.NextReviewAt != nil {
		t := *r.NextReviewAt
		clone.NextReviewAt = &t
	}
	if r.BestQuizScore != nil {
		v := *r.BestQuizScore
		clone.BestQuizScore = &v
	}
	if r.LastQuizScore != nil {
		v := *r.LastQuizScore
		clone.LastQuizScore = &v
	}
	if r.LastQuizAt != nil {
		t := *r.LastQuizAt
		clone.LastQuizAt = &t
	}
	return &clone
}
