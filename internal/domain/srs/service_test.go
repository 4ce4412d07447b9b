package srs

import (
	"errors"
	"testing"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
)

func TestServiceReview(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	t.Run("Nil record is rejected", func(t *testing.T) {
		_, err := service.Review(nil, 4, now)
		if !errors.Is(err, ErrNilRecord) {
			t.Errorf("Expected ErrNilRecord, got %v", err)
		}
	})

	t.Run("Out-of-range quality is rejected", func(t *testing.T) {
		record, err := domain.NewRepetitionRecord(1, 2, 0, now)
		if err != nil {
			t.Fatalf("Failed to create record: %v", err)
		}

		for _, quality := range []int{-1, 6, 100} {
			_, err := service.Review(record, quality, now)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("quality %d: expected ErrInvalidInput, got %v", quality, err)
			}
		}
	})

	t.Run("Valid review returns an updated copy", func(t *testing.T) {
		record, err := domain.NewRepetitionRecord(1, 2, 0, now.AddDate(0, 0, -5))
		if err != nil {
			t.Fatalf("Failed to create record: %v", err)
		}
		record.IntervalDays = 4
		record.ReviewCount = 1

		updated, err := service.Review(record, 5, now)
		if err != nil {
			t.Fatalf("Review failed: %v", err)
		}
		if updated == record {
			t.Fatal("Expected a new record instance")
		}
		if updated.IntervalDays != 10 { // round(4 * 2.5)
			t.Errorf("Expected interval 10, got %d", updated.IntervalDays)
		}
		if updated.ReviewCount != 2 {
			t.Errorf("Expected review count 2, got %d", updated.ReviewCount)
		}
	})
}

func TestServiceWithCustomParams(t *testing.T) {
	t.Parallel()
	params := NewParams(ParamsConfig{
		PerfectFactor:   3.0,
		MaxIntervalDays: 30,
	})
	service := NewServiceWithParams(params)
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	record, err := domain.NewRepetitionRecord(1, 2, 0, now.AddDate(0, 0, -12))
	if err != nil {
		t.Fatalf("Failed to create record: %v", err)
	}
	record.IntervalDays = 12
	record.ReviewCount = 3

	updated, err := service.Review(record, 5, now)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if updated.IntervalDays != 30 { // round(12 * 3.0) = 36 -> capped
		t.Errorf("Expected interval capped at 30, got %d", updated.IntervalDays)
	}
}
