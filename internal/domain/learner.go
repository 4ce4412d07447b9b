package domain

import (
	"errors"
	"time"
)

// Common validation errors for LearnerState.
var (
	ErrEmptyLearnerID  = errors.New("learner ID cannot be empty")
	ErrNegativeCounter = errors.New("counters cannot be negative")
	ErrNegativeStreak  = errors.New("streak values cannot be negative")
	ErrNegativeTokens  = errors.New("freeze tokens cannot be negative")
)

// LearnerState holds the per-learner counters owned by the quota gate
// and the streak tracker. All other components treat it as read-only.
//
// LongestStreak is a monotone historical maximum: it is raised whenever
// CurrentStreak exceeds it and never lowered, so CurrentStreak may be
// well below it after a reset.
type LearnerState struct {
	LearnerID                int64      `json:"learner_id"`
	MonthlyReadingAttempts   int        `json:"monthly_reading_attempts"`
	MonthlyListeningAttempts int        `json:"monthly_listening_attempts"`
	LastQuotaReset           time.Time  `json:"last_quota_reset"`
	CurrentStreak            int        `json:"current_streak"`
	LongestStreak            int        `json:"longest_streak"`
	FreezeTokens             int        `json:"freeze_tokens"`
	LastPracticeDate         *time.Time `json:"last_practice_date,omitempty"` // date precision, UTC midnight
	IsActive                 bool       `json:"is_active"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// NewLearnerState creates the initial state for a learner with zeroed
// counters. The quota reset stamp starts at now so the first lazy check
// only fires on a real month boundary.
func NewLearnerState(learnerID int64, now time.Time) (*LearnerState, error) {
	state := &LearnerState{
		LearnerID:      learnerID,
		LastQuotaReset: now,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}

	return state, nil
}

// Validate checks if the LearnerState has valid data.
func (s *LearnerState) Validate() error {
	if s.LearnerID == 0 {
		return ErrEmptyLearnerID
	}
	if s.MonthlyReadingAttempts < 0 || s.MonthlyListeningAttempts < 0 {
		return ErrNegativeCounter
	}
	if s.CurrentStreak < 0 || s.LongestStreak < 0 {
		return ErrNegativeStreak
	}
	if s.FreezeTokens < 0 {
		return ErrNegativeTokens
	}
	return nil
}

// Clone returns a deep copy of the state. Streak and quota updates
// follow the immutable update pattern and operate on copies.
func (s *LearnerState) Clone() *LearnerState {
	clone := *s
	if s.LastPracticeDate != nil {
		d := *s.LastPracticeDate
		clone.LastPracticeDate = &d
	}
	return &clone
}
