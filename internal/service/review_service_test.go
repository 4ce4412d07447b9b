package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReviewService(t *testing.T, repetitions *fakeRepetitionStore, content *fakeContentStore) ReviewService {
	t.Helper()
	svc, err := NewReviewService(newStubDB(t), repetitions, content, nil, nil)
	require.NoError(t, err)
	return svc
}

func TestNewReviewServiceValidation(t *testing.T) {
	t.Parallel()

	repetitions := newFakeRepetitionStore()
	content := newFakeContentStore()

	tests := []struct {
		name string
		fn   func() (ReviewService, error)
	}{
		{"nil db", func() (ReviewService, error) {
			return NewReviewService(nil, repetitions, content, nil, nil)
		}},
		{"nil repetition store", func() (ReviewService, error) {
			return NewReviewService(new(sql.DB), nil, content, nil, nil)
		}},
		{"nil content store", func() (ReviewService, error) {
			return NewReviewService(new(sql.DB), repetitions, nil, nil, nil)
		}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := tc.fn()
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	t.Run("nil scheduler selects default", func(t *testing.T) {
		t.Parallel()
		svc, err := NewReviewService(new(sql.DB), repetitions, content, nil, nil)
		require.NoError(t, err)
		impl := svc.(*reviewServiceImpl)
		assert.NotNil(t, impl.scheduler)
	})
}

func TestReviewVocabularyQualityBounds(t *testing.T) {
	t.Parallel()

	svc := newTestReviewService(t, newFakeRepetitionStore(), newFakeContentStore())
	now := time.Now().UTC()

	for _, quality := range []int{-1, 6, 100} {
		_, err := svc.ReviewVocabulary(context.Background(), 1, ReviewRequest{
			ListID:  10,
			Quality: quality,
		}, now)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "quality %d", quality)
	}
}

func TestReviewVocabularyFirstReview(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	repetitions := newFakeRepetitionStore()
	content := newFakeContentStore()
	content.lists[10] = true
	svc := newTestReviewService(t, repetitions, content)

	updated, err := svc.ReviewVocabulary(context.Background(), 1, ReviewRequest{
		ListID:       10,
		VocabularyID: 3,
		Quality:      5,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ReviewCount)
	require.NotNil(t, updated.NextReviewAt)
	assert.True(t, updated.NextReviewAt.After(now))

	stored, err := repetitions.Get(context.Background(), 1, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, updated.ReviewCount, stored.ReviewCount)
}

func TestReviewVocabularyUnknownList(t *testing.T) {
	t.Parallel()

	svc := newTestReviewService(t, newFakeRepetitionStore(), newFakeContentStore())

	_, err := svc.ReviewVocabulary(context.Background(), 1, ReviewRequest{
		ListID:  999,
		Quality: 4,
	}, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("empty mode defaults to all", func(t *testing.T) {
		t.Parallel()
		repetitions := newFakeRepetitionStore()
		svc := newTestReviewService(t, repetitions, newFakeContentStore())

		_, err := svc.GetDue(context.Background(), 1, "", now)
		require.NoError(t, err)
		assert.Equal(t, store.DueModeAll, repetitions.gotMode)
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		t.Parallel()
		svc := newTestReviewService(t, newFakeRepetitionStore(), newFakeContentStore())

		_, err := svc.GetDue(context.Background(), 1, store.DueMode("overdue"), now)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		repetitions := newFakeRepetitionStore()
		repetitions.findErr = assert.AnError
		svc := newTestReviewService(t, repetitions, newFakeContentStore())

		_, err := svc.GetDue(context.Background(), 1, store.DueModeAll, now)
		require.Error(t, err)
		var svcErr *ServiceError
		assert.ErrorAs(t, err, &svcErr)
	})
}

func TestGetDueStruggleIsSubsetOfAll(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	repetitions := newFakeRepetitionStore()
	ctx := context.Background()

	seed := func(vocabularyID int64, reviewCount, intervalDays int, nextReview time.Time) {
		record, err := domain.NewRepetitionRecord(1, 10, vocabularyID, now.AddDate(0, 0, -30))
		require.NoError(t, err)
		record.ReviewCount = reviewCount
		record.IntervalDays = intervalDays
		record.NextReviewAt = &nextReview
		require.NoError(t, repetitions.Create(ctx, record))
	}
	seed(1, 0, 1, now.AddDate(0, 0, -1)) // due, never reviewed
	seed(2, 3, 1, now.AddDate(0, 0, -2)) // due, stuck at the shortest interval
	seed(3, 5, 6, now.AddDate(0, 0, -1)) // due, progressing normally
	seed(4, 2, 1, now.AddDate(0, 0, 2))  // struggling but not due yet

	svc := newTestReviewService(t, repetitions, newFakeContentStore())

	all, err := svc.GetDue(ctx, 1, store.DueModeAll, now)
	require.NoError(t, err)
	struggle, err := svc.GetDue(ctx, 1, store.DueModeStruggle, now)
	require.NoError(t, err)

	allIDs := make(map[int64]bool, len(all))
	for _, record := range all {
		allIDs[record.VocabularyID] = true
	}
	assert.Len(t, all, 3)
	require.Len(t, struggle, 1)
	assert.Equal(t, int64(2), struggle[0].VocabularyID)
	for _, record := range struggle {
		assert.True(t, allIDs[record.VocabularyID], "struggle record %d missing from the all-due set", record.VocabularyID)
	}
}

func TestSaveQuizResultScoreBounds(t *testing.T) {
	t.Parallel()

	svc := newTestReviewService(t, newFakeRepetitionStore(), newFakeContentStore())
	now := time.Now().UTC()

	for _, score := range []float64{-0.01, 1.01} {
		_, err := svc.SaveQuizResult(context.Background(), 1, 10, score, now)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "score %.2f", score)
	}
}

func TestSaveQuizResultTracksBestScore(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	repetitions := newFakeRepetitionStore()
	content := newFakeContentStore()
	content.lists[10] = true
	svc := newTestReviewService(t, repetitions, content)
	ctx := context.Background()

	first, err := svc.SaveQuizResult(ctx, 1, 10, 0.8, now)
	require.NoError(t, err)
	require.NotNil(t, first.BestQuizScore)
	assert.InDelta(t, 0.8, *first.BestQuizScore, 1e-9)
	assert.Equal(t, 1, first.TotalQuizCount)
	assert.Zero(t, first.VocabularyID)

	// A worse follow-up updates the last score but keeps the best.
	second, err := svc.SaveQuizResult(ctx, 1, 10, 0.6, now.Add(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 0.6, *second.LastQuizScore, 1e-9)
	assert.InDelta(t, 0.8, *second.BestQuizScore, 1e-9)
	assert.Equal(t, 2, second.TotalQuizCount)
}

func TestSaveQuizResultUnknownList(t *testing.T) {
	t.Parallel()

	svc := newTestReviewService(t, newFakeRepetitionStore(), newFakeContentStore())

	_, err := svc.SaveQuizResult(context.Background(), 1, 999, 0.5, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
