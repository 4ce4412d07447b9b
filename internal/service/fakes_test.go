package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/store"
	"github.com/stretchr/testify/require"
)

// In-memory store fakes for service tests. WithTx returns the fake
// itself so transactional code paths see the same state.

// stubDriver backs newStubDB with transactions that always begin,
// commit and roll back cleanly. Store fakes ignore the *sql.Tx they are
// handed, so no statement support is needed.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("statements not supported")
}
func (stubConn) Close() error              { return nil }
func (stubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func init() {
	sql.Register("servicetest", stubDriver{})
}

// newStubDB returns a *sql.DB whose transactions succeed without a
// database, so code paths behind RunInTransaction run against the
// in-memory fakes.
func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("servicetest", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fakeAttemptStore struct {
	attempts  map[uuid.UUID]*domain.ExamAttempt
	createErr error
	findErr   error
}

var _ store.ExamAttemptStore = (*fakeAttemptStore)(nil)

func newFakeAttemptStore(attempts ...*domain.ExamAttempt) *fakeAttemptStore {
	s := &fakeAttemptStore{attempts: make(map[uuid.UUID]*domain.ExamAttempt)}
	for _, a := range attempts {
		s.attempts[a.ID] = a
	}
	return s
}

func (s *fakeAttemptStore) Create(_ context.Context, attempt *domain.ExamAttempt) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.attempts[attempt.ID]; ok {
		return store.ErrDuplicate
	}
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *fakeAttemptStore) GetByID(_ context.Context, id uuid.UUID) (*domain.ExamAttempt, error) {
	attempt, ok := s.attempts[id]
	if !ok {
		return nil, store.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *fakeAttemptStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.ExamAttempt, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeAttemptStore) Update(_ context.Context, attempt *domain.ExamAttempt) error {
	if _, ok := s.attempts[attempt.ID]; !ok {
		return store.ErrAttemptNotFound
	}
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *fakeAttemptStore) FindBySessionKey(_ context.Context, learnerID int64, sessionKey string) ([]*domain.ExamAttempt, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var matched []*domain.ExamAttempt
	for _, a := range s.attempts {
		if a.LearnerID == learnerID && a.SessionKey != nil && *a.SessionKey == sessionKey {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartTime.Before(matched[j].StartTime)
	})
	return matched, nil
}

func (s *fakeAttemptStore) FindByLearner(_ context.Context, learnerID int64, limit, offset int) ([]*domain.ExamAttempt, error) {
	var matched []*domain.ExamAttempt
	for _, a := range s.attempts {
		if a.LearnerID == learnerID {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *fakeAttemptStore) WithTx(*sql.Tx) store.ExamAttemptStore { return s }

type fakeAnswerStore struct {
	answers map[uuid.UUID][]*domain.AnswerRecord
	findErr error
}

var _ store.AnswerStore = (*fakeAnswerStore)(nil)

func newFakeAnswerStore() *fakeAnswerStore {
	return &fakeAnswerStore{answers: make(map[uuid.UUID][]*domain.AnswerRecord)}
}

func (s *fakeAnswerStore) Upsert(_ context.Context, answer *domain.AnswerRecord) error {
	if err := answer.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	existing := s.answers[answer.AttemptID]
	for i, a := range existing {
		if a.QuestionID == answer.QuestionID {
			existing[i] = answer
			return nil
		}
	}
	s.answers[answer.AttemptID] = append(existing, answer)
	return nil
}

func (s *fakeAnswerStore) FindByAttempt(_ context.Context, attemptID uuid.UUID) ([]*domain.AnswerRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.answers[attemptID], nil
}

func (s *fakeAnswerStore) WithTx(*sql.Tx) store.AnswerStore { return s }

type fakeContentStore struct {
	questions map[int64]*domain.Question
	lists     map[int64]bool
	listErr   error
}

var _ store.ContentStore = (*fakeContentStore)(nil)

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{
		questions: make(map[int64]*domain.Question),
		lists:     make(map[int64]bool),
	}
}

func (s *fakeContentStore) GetQuestion(_ context.Context, questionID int64) (*domain.Question, error) {
	question, ok := s.questions[questionID]
	if !ok {
		return nil, store.ErrQuestionNotFound
	}
	return question, nil
}

func (s *fakeContentStore) ListExists(_ context.Context, listID int64) (bool, error) {
	if s.listErr != nil {
		return false, s.listErr
	}
	return s.lists[listID], nil
}

type fakeSubscriptionStore struct {
	premium  map[int64]bool
	checkErr error
}

var _ store.SubscriptionStore = (*fakeSubscriptionStore)(nil)

func (s *fakeSubscriptionStore) HasActiveSubscription(_ context.Context, learnerID int64, _ time.Time) (bool, error) {
	if s.checkErr != nil {
		return false, s.checkErr
	}
	return s.premium[learnerID], nil
}

type fakeLearnerStateStore struct {
	states   map[int64]*domain.LearnerState
	getErr   error
	resetErr error
	topErr   error
}

var _ store.LearnerStateStore = (*fakeLearnerStateStore)(nil)

func newFakeLearnerStateStore(states ...*domain.LearnerState) *fakeLearnerStateStore {
	s := &fakeLearnerStateStore{states: make(map[int64]*domain.LearnerState)}
	for _, state := range states {
		s.states[state.LearnerID] = state
	}
	return s
}

func (s *fakeLearnerStateStore) Create(_ context.Context, state *domain.LearnerState) error {
	if _, ok := s.states[state.LearnerID]; ok {
		return store.ErrDuplicate
	}
	s.states[state.LearnerID] = state.Clone()
	return nil
}

func (s *fakeLearnerStateStore) GetByID(_ context.Context, learnerID int64) (*domain.LearnerState, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	state, ok := s.states[learnerID]
	if !ok {
		return nil, store.ErrLearnerNotFound
	}
	return state.Clone(), nil
}

func (s *fakeLearnerStateStore) GetForUpdate(ctx context.Context, learnerID int64) (*domain.LearnerState, error) {
	return s.GetByID(ctx, learnerID)
}

func (s *fakeLearnerStateStore) Update(_ context.Context, state *domain.LearnerState) error {
	if _, ok := s.states[state.LearnerID]; !ok {
		return store.ErrLearnerNotFound
	}
	s.states[state.LearnerID] = state.Clone()
	return nil
}

func (s *fakeLearnerStateStore) FindReminderCandidates(context.Context, time.Time) ([]*domain.LearnerState, error) {
	return nil, nil
}

func (s *fakeLearnerStateStore) TopStreaks(_ context.Context, n int) ([]*domain.LearnerState, error) {
	if s.topErr != nil {
		return nil, s.topErr
	}
	states := make([]*domain.LearnerState, 0, len(s.states))
	for _, state := range s.states {
		states = append(states, state.Clone())
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].CurrentStreak > states[j].CurrentStreak
	})
	if n < len(states) {
		states = states[:n]
	}
	return states, nil
}

func (s *fakeLearnerStateStore) ResetAllQuotas(_ context.Context, now time.Time) (int64, error) {
	if s.resetErr != nil {
		return 0, s.resetErr
	}
	for _, state := range s.states {
		state.MonthlyReadingAttempts = 0
		state.MonthlyListeningAttempts = 0
		state.LastQuotaReset = now
	}
	return int64(len(s.states)), nil
}

func (s *fakeLearnerStateStore) WithTx(*sql.Tx) store.LearnerStateStore { return s }

type repetitionKey struct {
	learnerID, listID, vocabularyID int64
}

type fakeRepetitionStore struct {
	records map[repetitionKey]*domain.RepetitionRecord
	gotMode store.DueMode
	findErr error
}

var _ store.RepetitionStore = (*fakeRepetitionStore)(nil)

func newFakeRepetitionStore() *fakeRepetitionStore {
	return &fakeRepetitionStore{records: make(map[repetitionKey]*domain.RepetitionRecord)}
}

func (s *fakeRepetitionStore) Create(_ context.Context, record *domain.RepetitionRecord) error {
	key := repetitionKey{record.LearnerID, record.ListID, record.VocabularyID}
	if _, ok := s.records[key]; ok {
		return store.ErrDuplicate
	}
	s.records[key] = record
	return nil
}

func (s *fakeRepetitionStore) Get(_ context.Context, learnerID, listID, vocabularyID int64) (*domain.RepetitionRecord, error) {
	record, ok := s.records[repetitionKey{learnerID, listID, vocabularyID}]
	if !ok {
		return nil, store.ErrRepetitionNotFound
	}
	return record, nil
}

func (s *fakeRepetitionStore) GetForUpdate(ctx context.Context, learnerID, listID, vocabularyID int64) (*domain.RepetitionRecord, error) {
	return s.Get(ctx, learnerID, listID, vocabularyID)
}

func (s *fakeRepetitionStore) Update(_ context.Context, record *domain.RepetitionRecord) error {
	key := repetitionKey{record.LearnerID, record.ListID, record.VocabularyID}
	if _, ok := s.records[key]; !ok {
		return store.ErrRepetitionNotFound
	}
	s.records[key] = record
	return nil
}

func (s *fakeRepetitionStore) FindDue(_ context.Context, learnerID int64, now time.Time, mode store.DueMode) ([]*domain.RepetitionRecord, error) {
	s.gotMode = mode
	if s.findErr != nil {
		return nil, s.findErr
	}
	var due []*domain.RepetitionRecord
	for _, record := range s.records {
		if record.LearnerID != learnerID || record.NextReviewAt == nil || record.NextReviewAt.After(now) {
			continue
		}
		if mode == store.DueModeStruggle && (record.ReviewCount == 0 || record.IntervalDays != 1) {
			continue
		}
		due = append(due, record)
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextReviewAt.Before(*due[j].NextReviewAt)
	})
	return due, nil
}

func (s *fakeRepetitionStore) WithTx(*sql.Tx) store.RepetitionStore { return s }

// stubQuotaService scripts the quota gate's verdict and records
// increment calls.
type stubQuotaService struct {
	result       *QuotaCheckResult
	checkErr     error
	incrementErr error
	incremented  []domain.Skill
}

var _ QuotaService = (*stubQuotaService)(nil)

func (s *stubQuotaService) CheckQuota(context.Context, int64, domain.Skill, time.Time) (*QuotaCheckResult, error) {
	if s.checkErr != nil {
		return nil, s.checkErr
	}
	return s.result, nil
}

func (s *stubQuotaService) IncrementQuota(_ context.Context, _ int64, skill domain.Skill, _ time.Time) error {
	s.incremented = append(s.incremented, skill)
	return s.incrementErr
}

func (s *stubQuotaService) ResetAllQuotas(context.Context, time.Time) (int64, error) {
	return 0, nil
}
