package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExamService(t *testing.T, attempts *fakeAttemptStore, answers *fakeAnswerStore, content *fakeContentStore, quota QuotaService) ExamService {
	t.Helper()
	svc, err := NewExamService(newStubDB(t), attempts, answers, content, quota, nil, nil)
	require.NoError(t, err)
	return svc
}

func readingQuestion() *domain.Question {
	return &domain.Question{
		ID:          5,
		Skill:       domain.SkillReading,
		ScoreWeight: 2,
		Options: []domain.Option{
			{ID: 51, IsCorrect: false},
			{ID: 52, IsCorrect: true},
		},
	}
}

func doingAttempt(t *testing.T, learnerID int64, start time.Time) *domain.ExamAttempt {
	t.Helper()
	attempt, err := domain.NewExamAttempt(learnerID, 1, nil, domain.SkillReading, domain.AttemptTypePractice, nil, start)
	require.NoError(t, err)
	return attempt
}

func TestNewExamServiceValidation(t *testing.T) {
	t.Parallel()

	attempts := newFakeAttemptStore()
	answers := newFakeAnswerStore()
	content := newFakeContentStore()
	quota := &stubQuotaService{}

	tests := []struct {
		name string
		fn   func() (ExamService, error)
	}{
		{"nil db", func() (ExamService, error) {
			return NewExamService(nil, attempts, answers, content, quota, nil, nil)
		}},
		{"nil attempt store", func() (ExamService, error) {
			return NewExamService(new(sql.DB), nil, answers, content, quota, nil, nil)
		}},
		{"nil answer store", func() (ExamService, error) {
			return NewExamService(new(sql.DB), attempts, nil, content, quota, nil, nil)
		}},
		{"nil content store", func() (ExamService, error) {
			return NewExamService(new(sql.DB), attempts, answers, nil, quota, nil, nil)
		}},
		{"nil quota service", func() (ExamService, error) {
			return NewExamService(new(sql.DB), attempts, answers, content, nil, nil, nil)
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
}

func TestStartAnExamQuotaGate(t *testing.T) {
	t.Parallel()

	startTime := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("premium-only skill", func(t *testing.T) {
		t.Parallel()
		quota := &stubQuotaService{result: &QuotaCheckResult{RequiresUpgrade: true}}
		svc := newTestExamService(t, newFakeAttemptStore(), newFakeAnswerStore(), newFakeContentStore(), quota)

		_, err := svc.StartAnExam(context.Background(), 1, StartExamRequest{
			ExamID:      10,
			Skill:       domain.SkillSpeaking,
			AttemptType: domain.AttemptTypePractice,
		}, startTime)
		assert.ErrorIs(t, err, ErrPremiumRequired)
	})

	t.Run("quota exhausted", func(t *testing.T) {
		t.Parallel()
		quota := &stubQuotaService{result: &QuotaCheckResult{Remaining: 0}}
		svc := newTestExamService(t, newFakeAttemptStore(), newFakeAnswerStore(), newFakeContentStore(), quota)

		_, err := svc.StartAnExam(context.Background(), 1, StartExamRequest{
			ExamID:      10,
			Skill:       domain.SkillReading,
			AttemptType: domain.AttemptTypePractice,
		}, startTime)
		assert.ErrorIs(t, err, ErrQuotaExceeded)
	})
}

func TestStartAnExamCreatesAttempt(t *testing.T) {
	t.Parallel()

	startTime := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	attempts := newFakeAttemptStore()
	quota := &stubQuotaService{result: &QuotaCheckResult{CanAccess: true, Remaining: 5}}
	svc := newTestExamService(t, attempts, newFakeAnswerStore(), newFakeContentStore(), quota)

	attempt, err := svc.StartAnExam(context.Background(), 42, StartExamRequest{
		ExamID:      10,
		Skill:       domain.SkillReading,
		AttemptType: domain.AttemptTypePractice,
	}, startTime)
	require.NoError(t, err)

	assert.Equal(t, int64(42), attempt.LearnerID)
	assert.Equal(t, domain.AttemptStatusDoing, attempt.Status)
	assert.Equal(t, startTime, attempt.StartTime)

	stored, err := attempts.GetByID(context.Background(), attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, attempt.ID, stored.ID)

	assert.Equal(t, []domain.Skill{domain.SkillReading}, quota.incremented)
}

func TestStartAnExamInvalidAttempt(t *testing.T) {
	t.Parallel()

	quota := &stubQuotaService{result: &QuotaCheckResult{CanAccess: true, Remaining: 5}}
	svc := newTestExamService(t, newFakeAttemptStore(), newFakeAnswerStore(), newFakeContentStore(), quota)

	// A mock test attempt without a session key fails domain validation.
	_, err := svc.StartAnExam(context.Background(), 42, StartExamRequest{
		ExamID:      10,
		Skill:       domain.SkillReading,
		AttemptType: domain.AttemptTypeMockTest,
	}, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStartAnExamSurvivesQuotaIncrementFailure(t *testing.T) {
	t.Parallel()

	quota := &stubQuotaService{
		result:       &QuotaCheckResult{CanAccess: true, Remaining: 5},
		incrementErr: assert.AnError,
	}
	svc := newTestExamService(t, newFakeAttemptStore(), newFakeAnswerStore(), newFakeContentStore(), quota)

	attempt, err := svc.StartAnExam(context.Background(), 42, StartExamRequest{
		ExamID:      10,
		Skill:       domain.SkillListening,
		AttemptType: domain.AttemptTypePractice,
	}, time.Now().UTC())
	require.NoError(t, err)
	assert.NotNil(t, attempt)
}

func TestSubmitAnswerQuestionLookup(t *testing.T) {
	t.Parallel()

	content := newFakeContentStore()
	content.questions[5] = &domain.Question{
		ID:          5,
		Skill:       domain.SkillReading,
		ScoreWeight: 2,
		Options: []domain.Option{
			{ID: 51, IsCorrect: false},
			{ID: 52, IsCorrect: true},
		},
	}
	quota := &stubQuotaService{result: &QuotaCheckResult{CanAccess: true}}
	svc := newTestExamService(t, newFakeAttemptStore(), newFakeAnswerStore(), content, quota)
	now := time.Now().UTC()

	t.Run("unknown question", func(t *testing.T) {
		t.Parallel()
		_, err := svc.SubmitAnswer(context.Background(), uuid.New(), 999, 51, now)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("option from another question", func(t *testing.T) {
		t.Parallel()
		_, err := svc.SubmitAnswer(context.Background(), uuid.New(), 5, 777, now)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSubmitAnswerResubmissionOverwrites(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	attempt := doingAttempt(t, 42, start)
	attempts := newFakeAttemptStore(attempt)
	answers := newFakeAnswerStore()
	content := newFakeContentStore()
	content.questions[5] = readingQuestion()
	quota := &stubQuotaService{result: &QuotaCheckResult{CanAccess: true}}
	svc := newTestExamService(t, attempts, answers, content, quota)
	ctx := context.Background()

	first, err := svc.SubmitAnswer(ctx, attempt.ID, 5, 51, start.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, first.IsCorrect)
	assert.False(t, *first.IsCorrect)
	assert.Zero(t, first.Score)

	second, err := svc.SubmitAnswer(ctx, attempt.ID, 5, 52, start.Add(2*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, second.IsCorrect)
	assert.True(t, *second.IsCorrect)
	assert.InDelta(t, 2, second.Score, 1e-9)

	// One record per (attempt, question); the resubmission prevails.
	recorded, err := answers.FindByAttempt(ctx, attempt.ID)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, int64(52), *recorded[0].SelectedOptionID)
	assert.True(t, *recorded[0].IsCorrect)
}

func TestSubmitAnswerCompletedAttemptRejected(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	attempt := doingAttempt(t, 42, start)
	require.NoError(t, attempt.Complete(start.Add(30*time.Minute), 10))

	content := newFakeContentStore()
	content.questions[5] = readingQuestion()
	quota := &stubQuotaService{result: &QuotaCheckResult{CanAccess: true}}
	svc := newTestExamService(t, newFakeAttemptStore(attempt), newFakeAnswerStore(), content, quota)

	_, err := svc.SubmitAnswer(context.Background(), attempt.ID, 5, 52, start.Add(31*time.Minute))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestEndAnExamIsOneWay(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	attempt := doingAttempt(t, 42, start)
	attempts := newFakeAttemptStore(attempt)
	quota := &stubQuotaService{result: &QuotaCheckResult{CanAccess: true}}
	svc := newTestExamService(t, attempts, newFakeAnswerStore(), newFakeContentStore(), quota)
	ctx := context.Background()

	ended, err := svc.EndAnExam(ctx, attempt.ID, end, 7.5)
	require.NoError(t, err)
	assert.Equal(t, domain.AttemptStatusCompleted, ended.Status)
	require.NotNil(t, ended.EndTime)
	assert.Equal(t, end, *ended.EndTime)
	require.NotNil(t, ended.Score)
	assert.InDelta(t, 7.5, *ended.Score, 1e-9)

	_, err = svc.EndAnExam(ctx, attempt.ID, end.Add(time.Minute), 9)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestFinalizeAttemptSumsAnswers(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	now := start.Add(40 * time.Minute)
	attempt := doingAttempt(t, 42, start)
	attempts := newFakeAttemptStore(attempt)
	answers := newFakeAnswerStore()
	ctx := context.Background()
	require.NoError(t, answers.Upsert(ctx, choiceAnswer(t, attempt, 1, true, 2)))
	require.NoError(t, answers.Upsert(ctx, choiceAnswer(t, attempt, 2, true, 2)))
	require.NoError(t, answers.Upsert(ctx, choiceAnswer(t, attempt, 3, false, 0)))

	quota := &stubQuotaService{result: &QuotaCheckResult{CanAccess: true}}
	svc := newTestExamService(t, attempts, answers, newFakeContentStore(), quota)

	summary, err := svc.FinalizeAttempt(ctx, attempt.ID, now)
	require.NoError(t, err)
	assert.InDelta(t, 4, summary.TotalScore, 1e-9)
	assert.Equal(t, 2, summary.CorrectAnswers)
	assert.Equal(t, 3, summary.TotalAnswers)
	assert.InDelta(t, 100.0*2/3, summary.Percent, 1e-9)
	assert.Equal(t, 40*time.Minute, summary.Duration)

	stored, err := attempts.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AttemptStatusCompleted, stored.Status)

	_, err = svc.FinalizeAttempt(ctx, attempt.ID, now.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSubmitResponseAnswerFractionBounds(t *testing.T) {
	t.Parallel()

	quota := &stubQuotaService{result: &QuotaCheckResult{CanAccess: true}}
	svc := newTestExamService(t, newFakeAttemptStore(), newFakeAnswerStore(), newFakeContentStore(), quota)
	now := time.Now().UTC()

	for _, fraction := range []float64{-0.1, 1.1} {
		_, err := svc.SubmitResponseAnswer(context.Background(), uuid.New(), 5, "my response", nil, fraction, now)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "fraction %.1f", fraction)
	}
}

func TestGetAttempt(t *testing.T) {
	t.Parallel()

	sessionKey := "session-1"
	attempt, err := domain.NewExamAttempt(7, 1, nil, domain.SkillReading, domain.AttemptTypeMockTest, &sessionKey, time.Now().UTC())
	require.NoError(t, err)

	quota := &stubQuotaService{result: &QuotaCheckResult{CanAccess: true}}
	svc := newTestExamService(t, newFakeAttemptStore(attempt), newFakeAnswerStore(), newFakeContentStore(), quota)

	got, err := svc.GetAttempt(context.Background(), attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, attempt.ID, got.ID)

	_, err = svc.GetAttempt(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
