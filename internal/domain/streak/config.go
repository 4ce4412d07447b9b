package streak

// Config defines the milestone and reward tables for the streak
// tracker.
type Config struct {
	// Milestones lists the streak lengths that trigger a
	// MilestoneReached event, in ascending order.
	Milestones []int

	// Rewards maps a milestone to the number of freeze tokens awarded
	// when it is reached. Milestones absent from the map award none.
	Rewards map[int]int

	// StarterTokens is the number of freeze tokens granted on a
	// learner's first-ever completed practice day.
	StarterTokens int
}

// NewDefaultConfig creates a Config with the standard milestone ladder.
func NewDefaultConfig() *Config {
	return &Config{
		Milestones: []int{3, 7, 14, 30, 60, 100, 180, 365},
		Rewards: map[int]int{
			3:   1,
			7:   1,
			14:  1,
			30:  1,
			60:  2,
			100: 3,
			180: 5,
			365: 5,
		},
		StarterTokens: 1,
	}
}

// NextMilestone returns the smallest configured milestone greater than
// the given streak, or 0 when the streak is past the last one.
func (c *Config) NextMilestone(streak int) int {
	for _, m := range c.Milestones {
		if m > streak {
			return m
		}
	}
	return 0
}

// LastMilestone returns the largest configured milestone the given
// streak has reached, or 0 when none has been.
func (c *Config) LastMilestone(streak int) int {
	last := 0
	for _, m := range c.Milestones {
		if m <= streak {
			last = m
		}
	}
	return last
}
