package domain

// Skill identifies one of the four practiced exam skills.
type Skill string

// Possible skill values.
const (
	SkillReading   Skill = "reading"
	SkillListening Skill = "listening"
	SkillSpeaking  Skill = "speaking"
	SkillWriting   Skill = "writing"
)

// IsValid reports whether the skill is one of the known values.
func (s Skill) IsValid() bool {
	switch s {
	case SkillReading, SkillListening, SkillSpeaking, SkillWriting:
		return true
	default:
		return false
	}
}

// IsObjective reports whether the skill is scored from multiple-choice
// answers. Speaking and writing are scored externally and reported as
// level labels in mock results.
func (s Skill) IsObjective() bool {
	return s == SkillReading || s == SkillListening
}

// IsQuotaLimited reports whether monthly usage counters apply to the
// skill. Speaking and writing are gated by subscription tier instead.
func (s Skill) IsQuotaLimited() bool {
	return s == SkillReading || s == SkillListening
}
