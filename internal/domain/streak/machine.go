package streak

import (
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
)

// NormalizeDay truncates a timestamp to midnight UTC. The streak
// machine operates on whole days only.
func NormalizeDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of whole days from a to b. Both
// inputs must already be normalized.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// Advance applies one qualifying practice completion at the given day
// and returns the updated learner state together with the events the
// transition produced, in emission order. The input state is not
// mutated.
//
// Transitions, keyed by the gap between the last counted day and the
// completion day:
//
//	same day        MaintainDay, no counter change
//	next day        streak+1, CompleteDay
//	gap of g days   freezeTokens >= g: consume g (FreezeUsed), streak+1,
//	                CompleteDay; otherwise StreakLost then ResetStreak
//	first ever      streak 1, CompleteDay, starter FreezeTokenAwarded
//
// A streak that grew is then checked against the milestone ladder:
// landing exactly on a milestone emits MilestoneReached plus a
// FreezeTokenAwarded for its reward, if any.
func Advance(state *domain.LearnerState, day time.Time, config *Config) (*domain.LearnerState, []domain.StreakEvent) {
	day = NormalizeDay(day)
	next := state.Clone()

	var events []domain.StreakEvent
	emit := func(eventType domain.StreakEventType, milestone, tokens int) {
		events = append(events, domain.StreakEvent{
			Type:       eventType,
			LearnerID:  state.LearnerID,
			OccurredAt: day,
			Streak:     next.CurrentStreak,
			Milestone:  milestone,
			TokenCount: tokens,
		})
	}

	grew := false

	switch {
	case state.LastPracticeDate == nil:
		next.CurrentStreak = 1
		grew = true
		emit(domain.StreakEventCompleteDay, 0, 0)
		if config.StarterTokens > 0 {
			next.FreezeTokens += config.StarterTokens
			emit(domain.StreakEventFreezeTokenAwarded, 0, config.StarterTokens)
		}

	default:
		gap := daysBetween(NormalizeDay(*state.LastPracticeDate), day)
		switch {
		case gap <= 0:
			// Already counted; repeat completions on the same day (or a
			// backdated one) change nothing.
			emit(domain.StreakEventMaintainDay, 0, 0)
			return next, events

		case gap == 1:
			next.CurrentStreak++
			grew = true
			emit(domain.StreakEventCompleteDay, 0, 0)

		default:
			missed := gap - 1
			if state.FreezeTokens >= missed {
				next.FreezeTokens -= missed
				emit(domain.StreakEventFreezeUsed, 0, missed)
				next.CurrentStreak++
				grew = true
				emit(domain.StreakEventCompleteDay, 0, 0)
			} else {
				emit(domain.StreakEventStreakLost, 0, 0)
				next.CurrentStreak = 1
				emit(domain.StreakEventResetStreak, 0, 0)
			}
		}
	}

	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	practiced := day
	next.LastPracticeDate = &practiced

	if grew {
		for _, milestone := range config.Milestones {
			if next.CurrentStreak == milestone {
				emit(domain.StreakEventMilestoneReached, milestone, 0)
				if reward := config.Rewards[milestone]; reward > 0 {
					next.FreezeTokens += reward
					emit(domain.StreakEventFreezeTokenAwarded, milestone, reward)
				}
				break
			}
		}
	}

	return next, events
}
