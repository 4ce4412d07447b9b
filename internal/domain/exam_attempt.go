package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AttemptStatus represents the lifecycle state of an exam attempt.
type AttemptStatus string

// Possible attempt status values. Completed is terminal.
const (
	AttemptStatusDoing     AttemptStatus = "Doing"
	AttemptStatusCompleted AttemptStatus = "Completed"
)

// AttemptType distinguishes standalone practice from multi-part mock
// test sittings, which are grouped by a shared session key.
type AttemptType string

// Possible attempt type values.
const (
	AttemptTypePractice AttemptType = "practice"
	AttemptTypeMockTest AttemptType = "mock_test"
)

// Common validation errors for ExamAttempt.
var (
	ErrEmptyAttemptLearner = errors.New("exam attempt learner ID cannot be empty")
	ErrEmptyAttemptExam    = errors.New("exam attempt exam ID cannot be empty")
	ErrInvalidAttemptSkill = errors.New("exam attempt skill is not valid")
	ErrMissingSessionKey   = errors.New("mock test attempts require a session key")
)

// ExamAttempt is one timed sitting of an exam or exam part by a
// learner. Multiple in-progress attempts for the same exam are legal;
// callers wanting resume semantics query for an existing Doing attempt
// first.
type ExamAttempt struct {
	ID         uuid.UUID     `json:"id"`
	LearnerID  int64         `json:"learner_id"`
	ExamID     int64         `json:"exam_id"`
	PartID     *int64        `json:"part_id,omitempty"`
	Skill      Skill         `json:"skill"`
	Type       AttemptType   `json:"attempt_type"`
	SessionKey *string       `json:"session_key,omitempty"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    *time.Time    `json:"end_time,omitempty"`
	Score      *float64      `json:"score,omitempty"`
	Status     AttemptStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewExamAttempt creates a new attempt in the Doing state.
func NewExamAttempt(
	learnerID, examID int64,
	partID *int64,
	skill Skill,
	attemptType AttemptType,
	sessionKey *string,
	startTime time.Time,
) (*ExamAttempt, error) {
	attempt := &ExamAttempt{
		ID:         uuid.New(),
		LearnerID:  learnerID,
		ExamID:     examID,
		PartID:     partID,
		Skill:      skill,
		Type:       attemptType,
		SessionKey: sessionKey,
		StartTime:  startTime,
		Status:     AttemptStatusDoing,
		CreatedAt:  startTime,
		UpdatedAt:  startTime,
	}

	if err := attempt.Validate(); err != nil {
		return nil, err
	}

	return attempt, nil
}

// Validate checks if the ExamAttempt has valid data.
func (a *ExamAttempt) Validate() error {
	if a.LearnerID == 0 {
		return ErrEmptyAttemptLearner
	}
	if a.ExamID == 0 {
		return ErrEmptyAttemptExam
	}
	if !a.Skill.IsValid() {
		return ErrInvalidAttemptSkill
	}
	if a.Type == AttemptTypeMockTest && (a.SessionKey == nil || *a.SessionKey == "") {
		return ErrMissingSessionKey
	}
	return nil
}

// IsCompleted reports whether the attempt has reached its terminal
// state. Completed attempts accept no further answer submissions.
func (a *ExamAttempt) IsCompleted() bool {
	return a.Status == AttemptStatusCompleted
}

// Complete transitions the attempt to Completed, setting the end time
// and final score. Ending is a one-way transition: a second call fails
// with ErrInvalidState.
func (a *ExamAttempt) Complete(endTime time.Time, score float64) error {
	if a.IsCompleted() {
		return fmt.Errorf("%w: attempt %s already completed", ErrInvalidState, a.ID)
	}

	a.Status = AttemptStatusCompleted
	a.EndTime = &endTime
	a.Score = &score
	a.UpdatedAt = endTime
	return nil
}
