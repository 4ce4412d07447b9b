package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AnswerKind tags the variant of an answer record. Multiple-choice,
// speaking and writing answers share one upsert contract: exactly one
// record per (attempt, question), later submissions overwriting earlier
// ones in place.
type AnswerKind string

// Possible answer kind values.
const (
	AnswerKindChoice   AnswerKind = "choice"
	AnswerKindSpeaking AnswerKind = "speaking"
	AnswerKindWriting  AnswerKind = "writing"
)

// Common validation errors for AnswerRecord.
var (
	ErrEmptyAnswerAttempt  = errors.New("answer record attempt ID cannot be empty")
	ErrEmptyAnswerQuestion = errors.New("answer record question ID cannot be empty")
	ErrInvalidAnswerKind   = errors.New("answer record kind is not valid")
	ErrMissingOption       = errors.New("choice answers require a selected option")
	ErrMissingResponseText = errors.New("free-form answers require response text")
	ErrNegativeScore       = errors.New("answer score cannot be negative")
)

// AnswerRecord is the graded submission for one question within one
// attempt. Choice answers carry the selected option and correctness;
// speaking and writing answers carry free-form content plus an opaque,
// externally supplied feedback payload.
type AnswerRecord struct {
	AttemptID        uuid.UUID       `json:"attempt_id"`
	QuestionID       int64           `json:"question_id"`
	Kind             AnswerKind      `json:"kind"`
	SelectedOptionID *int64          `json:"selected_option_id,omitempty"`
	ResponseText     string          `json:"response_text,omitempty"`
	Feedback         json.RawMessage `json:"feedback,omitempty"`
	IsCorrect        *bool           `json:"is_correct,omitempty"`
	Score            float64         `json:"score"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Validate checks if the AnswerRecord has valid data.
func (r *AnswerRecord) Validate() error {
	if r.AttemptID == uuid.Nil {
		return ErrEmptyAnswerAttempt
	}
	if r.QuestionID == 0 {
		return ErrEmptyAnswerQuestion
	}
	if r.Score < 0 {
		return ErrNegativeScore
	}

	switch r.Kind {
	case AnswerKindChoice:
		if r.SelectedOptionID == nil {
			return ErrMissingOption
		}
	case AnswerKindSpeaking, AnswerKindWriting:
		if r.ResponseText == "" {
			return ErrMissingResponseText
		}
	default:
		return ErrInvalidAnswerKind
	}

	return nil
}
