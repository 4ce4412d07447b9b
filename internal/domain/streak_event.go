package domain

import "time"

// StreakEventType classifies the outcome of advancing the streak state
// machine by one qualifying practice day.
type StreakEventType string

// Possible streak event values.
const (
	// StreakEventCompleteDay marks a counted practice day: the streak
	// grew by one.
	StreakEventCompleteDay StreakEventType = "CompleteDay"

	// StreakEventMaintainDay marks a repeat completion on an already
	// counted day; the counter is unchanged.
	StreakEventMaintainDay StreakEventType = "MaintainDay"

	// StreakEventResetStreak marks the counter restarting at one after
	// an unbridgeable gap.
	StreakEventResetStreak StreakEventType = "ResetStreak"

	// StreakEventFreezeUsed marks freeze tokens consumed to bridge
	// missed days; TokenCount carries how many.
	StreakEventFreezeUsed StreakEventType = "FreezeUsed"

	// StreakEventStreakLost marks a streak that could not be bridged.
	StreakEventStreakLost StreakEventType = "StreakLost"

	// StreakEventMilestoneReached marks the streak crossing a
	// configured milestone; Milestone carries the value.
	StreakEventMilestoneReached StreakEventType = "MilestoneReached"

	// StreakEventFreezeTokenAwarded marks tokens granted as a milestone
	// or starter reward; TokenCount carries how many.
	StreakEventFreezeTokenAwarded StreakEventType = "FreezeTokenAwarded"
)

// StreakEvent is emitted by the streak tracker for every observable
// transition. Events describe the resulting state; they are not the
// source of truth and need not be persisted.
type StreakEvent struct {
	Type       StreakEventType `json:"type"`
	LearnerID  int64           `json:"learner_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Streak     int             `json:"streak"`
	Milestone  int             `json:"milestone,omitempty"`
	TokenCount int             `json:"token_count,omitempty"`
}
