package domain

// The content store is an external collaborator: questions, options and
// vocabulary lists are authored elsewhere and read-only to this core.

// Option is one selectable choice of a multiple-choice question.
type Option struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is the gradable unit supplied by the content store.
// ScoreWeight is the maximum score a correct answer earns.
type Question struct {
	ID          int64    `json:"id"`
	PartID      int64    `json:"part_id"`
	Skill       Skill    `json:"skill"`
	ScoreWeight float64  `json:"score_weight"`
	Options     []Option `json:"options,omitempty"`
}

// OptionByID returns the option with the given ID, or nil when the
// option does not belong to this question.
func (q *Question) OptionByID(optionID int64) *Option {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i]
		}
	}
	return nil
}

// VocabularyList is the list-level metadata supplied by the content
// store for spaced-repetition reviews.
type VocabularyList struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
