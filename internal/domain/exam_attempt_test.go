package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewExamAttemptValidation(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	if _, err := NewExamAttempt(0, 1, nil, SkillReading, AttemptTypePractice, nil, start); !errors.Is(err, ErrEmptyAttemptLearner) {
		t.Errorf("Expected ErrEmptyAttemptLearner, got %v", err)
	}
	if _, err := NewExamAttempt(1, 1, nil, Skill("juggling"), AttemptTypePractice, nil, start); !errors.Is(err, ErrInvalidAttemptSkill) {
		t.Errorf("Expected ErrInvalidAttemptSkill, got %v", err)
	}
	if _, err := NewExamAttempt(1, 1, nil, SkillReading, AttemptTypeMockTest, nil, start); !errors.Is(err, ErrMissingSessionKey) {
		t.Errorf("Expected ErrMissingSessionKey, got %v", err)
	}
}

func TestExamAttemptCompleteIsOneWay(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	attempt, err := NewExamAttempt(1, 1, nil, SkillReading, AttemptTypePractice, nil, start)
	if err != nil {
		t.Fatalf("NewExamAttempt failed: %v", err)
	}
	if attempt.IsCompleted() {
		t.Error("Expected a fresh attempt to be in the Doing state")
	}

	if err := attempt.Complete(end, 8.5); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if attempt.Status != AttemptStatusCompleted {
		t.Errorf("Expected status Completed, got %s", attempt.Status)
	}
	if attempt.EndTime == nil || !attempt.EndTime.Equal(end) {
		t.Errorf("Expected end time %v, got %v", end, attempt.EndTime)
	}
	if attempt.Score == nil || *attempt.Score != 8.5 {
		t.Errorf("Expected score 8.5, got %v", attempt.Score)
	}

	err = attempt.Complete(end.Add(time.Minute), 9)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState on second completion, got %v", err)
	}
	if *attempt.Score != 8.5 {
		t.Errorf("Expected the first score to stand, got %v", *attempt.Score)
	}
}
