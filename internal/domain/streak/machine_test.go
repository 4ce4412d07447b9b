package streak

import (
	"testing"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newState(t *testing.T, streak, longest, tokens int, last *time.Time) *domain.LearnerState {
	t.Helper()
	state, err := domain.NewLearnerState(42, day(2025, 6, 1))
	if err != nil {
		t.Fatalf("Failed to create learner state: %v", err)
	}
	state.CurrentStreak = streak
	state.LongestStreak = longest
	state.FreezeTokens = tokens
	state.LastPracticeDate = last
	return state
}

func eventTypes(events []domain.StreakEvent) []domain.StreakEventType {
	types := make([]domain.StreakEventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func assertEventTypes(t *testing.T, events []domain.StreakEvent, want ...domain.StreakEventType) {
	t.Helper()
	got := eventTypes(events)
	if len(got) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected events %v, got %v", want, got)
		}
	}
}

func TestAdvanceFirstEverCompletion(t *testing.T) {
	t.Parallel()
	config := NewDefaultConfig()
	state := newState(t, 0, 0, 0, nil)

	next, events := Advance(state, day(2025, 6, 10), config)

	if next.CurrentStreak != 1 {
		t.Errorf("Expected streak 1, got %d", next.CurrentStreak)
	}
	if next.LongestStreak != 1 {
		t.Errorf("Expected longest 1, got %d", next.LongestStreak)
	}
	if next.FreezeTokens != config.StarterTokens {
		t.Errorf("Expected %d starter tokens, got %d", config.StarterTokens, next.FreezeTokens)
	}
	assertEventTypes(t, events,
		domain.StreakEventCompleteDay,
		domain.StreakEventFreezeTokenAwarded,
	)
	if next.LastPracticeDate == nil || !next.LastPracticeDate.Equal(day(2025, 6, 10)) {
		t.Errorf("Expected last practice date set to completion day, got %v", next.LastPracticeDate)
	}
}

func TestAdvanceSameDayIsIdempotent(t *testing.T) {
	t.Parallel()
	config := NewDefaultConfig()
	last := day(2025, 6, 10)
	state := newState(t, 5, 5, 2, &last)

	next, events := Advance(state, day(2025, 6, 10), config)

	if next.CurrentStreak != 5 {
		t.Errorf("Expected streak unchanged at 5, got %d", next.CurrentStreak)
	}
	if next.FreezeTokens != 2 {
		t.Errorf("Expected tokens unchanged at 2, got %d", next.FreezeTokens)
	}
	assertEventTypes(t, events, domain.StreakEventMaintainDay)
}

func TestAdvanceConsecutiveDay(t *testing.T) {
	t.Parallel()
	config := NewDefaultConfig()
	last := day(2025, 6, 10)
	state := newState(t, 5, 9, 0, &last)

	next, events := Advance(state, day(2025, 6, 11), config)

	if next.CurrentStreak != 6 {
		t.Errorf("Expected streak 6, got %d", next.CurrentStreak)
	}
	if next.LongestStreak != 9 {
		t.Errorf("Expected longest unchanged at 9, got %d", next.LongestStreak)
	}
	assertEventTypes(t, events, domain.StreakEventCompleteDay)
}

func TestAdvanceConsecutiveDaysAccumulate(t *testing.T) {
	t.Parallel()
	config := &Config{} // no milestones, keeps the event stream plain
	state := newState(t, 0, 0, 0, nil)

	current := state
	for i := 0; i < 10; i++ {
		current, _ = Advance(current, day(2025, 6, 10+i), config)
	}

	if current.CurrentStreak != 10 {
		t.Errorf("Expected streak 10 after 10 consecutive days, got %d", current.CurrentStreak)
	}
	if current.LongestStreak != 10 {
		t.Errorf("Expected longest 10, got %d", current.LongestStreak)
	}
}

func TestAdvanceGapBridgedByFreezeTokens(t *testing.T) {
	t.Parallel()
	config := NewDefaultConfig()
	last := day(2025, 6, 10)
	state := newState(t, 12, 12, 3, &last)

	// Two missed days (11th and 12th), completing on the 13th.
	next, events := Advance(state, day(2025, 6, 13), config)

	if next.CurrentStreak != 13 {
		t.Errorf("Expected streak 13, got %d", next.CurrentStreak)
	}
	if next.FreezeTokens != 1 {
		t.Errorf("Expected 2 tokens consumed leaving 1, got %d", next.FreezeTokens)
	}
	assertEventTypes(t, events,
		domain.StreakEventFreezeUsed,
		domain.StreakEventCompleteDay,
	)
	if events[0].TokenCount != 2 {
		t.Errorf("Expected FreezeUsed count 2, got %d", events[0].TokenCount)
	}
}

func TestAdvanceGapExceedsTokens(t *testing.T) {
	t.Parallel()
	config := NewDefaultConfig()
	last := day(2025, 6, 10)
	state := newState(t, 12, 12, 1, &last)

	// Two missed days but only one token: the streak is lost.
	next, events := Advance(state, day(2025, 6, 13), config)

	if next.CurrentStreak != 1 {
		t.Errorf("Expected streak reset to 1, got %d", next.CurrentStreak)
	}
	if next.FreezeTokens != 1 {
		t.Errorf("Expected tokens untouched at 1, got %d", next.FreezeTokens)
	}
	if next.LongestStreak != 12 {
		t.Errorf("Expected longest preserved at 12, got %d", next.LongestStreak)
	}
	assertEventTypes(t, events,
		domain.StreakEventStreakLost,
		domain.StreakEventResetStreak,
	)
	if events[0].Streak != 12 {
		t.Errorf("Expected StreakLost to carry the lost streak 12, got %d", events[0].Streak)
	}
	if next.LastPracticeDate == nil || !next.LastPracticeDate.Equal(day(2025, 6, 13)) {
		t.Errorf("Expected last practice date set even on reset, got %v", next.LastPracticeDate)
	}
}

func TestAdvanceMilestoneReached(t *testing.T) {
	t.Parallel()
	config := &Config{
		Milestones: []int{7, 14, 30},
		Rewards:    map[int]int{7: 1},
	}
	last := day(2025, 6, 10)
	state := newState(t, 6, 6, 0, &last)

	next, events := Advance(state, day(2025, 6, 11), config)

	if next.CurrentStreak != 7 {
		t.Errorf("Expected streak 7, got %d", next.CurrentStreak)
	}
	assertEventTypes(t, events,
		domain.StreakEventCompleteDay,
		domain.StreakEventMilestoneReached,
		domain.StreakEventFreezeTokenAwarded,
	)
	if events[1].Milestone != 7 {
		t.Errorf("Expected milestone 7, got %d", events[1].Milestone)
	}
	if next.FreezeTokens != 1 {
		t.Errorf("Expected 1 reward token, got %d", next.FreezeTokens)
	}
}

func TestAdvanceBridgedGapCanLandOnMilestone(t *testing.T) {
	t.Parallel()
	config := NewDefaultConfig()
	last := day(2025, 6, 10)
	state := newState(t, 13, 13, 1, &last)

	// One missed day bridged by a token, landing exactly on 14.
	next, events := Advance(state, day(2025, 6, 12), config)

	if next.CurrentStreak != 14 {
		t.Errorf("Expected streak 14, got %d", next.CurrentStreak)
	}
	assertEventTypes(t, events,
		domain.StreakEventFreezeUsed,
		domain.StreakEventCompleteDay,
		domain.StreakEventMilestoneReached,
		domain.StreakEventFreezeTokenAwarded,
	)
	// One consumed, one awarded back.
	if next.FreezeTokens != 1 {
		t.Errorf("Expected net token balance 1, got %d", next.FreezeTokens)
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	config := NewDefaultConfig()
	last := day(2025, 6, 10)
	state := newState(t, 5, 5, 2, &last)

	_, _ = Advance(state, day(2025, 6, 11), config)

	if state.CurrentStreak != 5 || state.FreezeTokens != 2 {
		t.Errorf("Input state was mutated: streak=%d tokens=%d",
			state.CurrentStreak, state.FreezeTokens)
	}
	if !state.LastPracticeDate.Equal(last) {
		t.Errorf("Input last practice date was mutated: %v", state.LastPracticeDate)
	}
}

func TestConfigMilestoneLookups(t *testing.T) {
	t.Parallel()
	config := NewDefaultConfig()

	testCases := []struct {
		streak   int
		wantNext int
		wantLast int
	}{
		{streak: 0, wantNext: 3, wantLast: 0},
		{streak: 3, wantNext: 7, wantLast: 3},
		{streak: 10, wantNext: 14, wantLast: 7},
		{streak: 365, wantNext: 0, wantLast: 365},
		{streak: 400, wantNext: 0, wantLast: 365},
	}

	for _, tc := range testCases {
		if got := config.NextMilestone(tc.streak); got != tc.wantNext {
			t.Errorf("NextMilestone(%d): expected %d, got %d", tc.streak, tc.wantNext, got)
		}
		if got := config.LastMilestone(tc.streak); got != tc.wantLast {
			t.Errorf("LastMilestone(%d): expected %d, got %d", tc.streak, tc.wantLast, got)
		}
	}
}
