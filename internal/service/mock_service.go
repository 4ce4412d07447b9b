package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/store"
)

// Default analysis thresholds, as fractions of the per-skill maximum.
const (
	DefaultWeaknessThreshold = 0.5
	DefaultStrengthThreshold = 0.8
)

// Proficiency level labels for speaking and writing, derived from the
// 100-point grading scale.
const (
	LevelExcellent  = "Excellent"
	LevelGood       = "Good"
	LevelAdequate   = "Adequate"
	LevelLimited    = "Limited"
	LevelMinimal    = "Minimal"
	LevelNoResponse = "No Response"
)

// skillRecommendations is the deterministic per-skill advice table.
var skillRecommendations = map[domain.Skill]string{
	domain.SkillReading:   "Practice timed reading passages and review incorrect answers to build comprehension speed.",
	domain.SkillListening: "Listen to varied audio materials daily and replay sections you missed.",
	domain.SkillSpeaking:  "Record short spoken responses on a schedule and compare them against model answers.",
	domain.SkillWriting:   "Write one structured response per day and review the feedback on organization and grammar.",
}

// MockSkillResult is the per-skill slice of a mock test result.
type MockSkillResult struct {
	Skill   domain.Skill `json:"skill"`
	Score   float64      `json:"score"`
	Correct int          `json:"correct"`
	Total   int          `json:"total"`
	// Level is set for speaking and writing instead of a numeric
	// contribution to the total.
	Level string `json:"level,omitempty"`
}

// MockTestResult aggregates the completed attempts of one mock-test
// sitting.
type MockTestResult struct {
	SessionKey      string            `json:"session_key"`
	Skills          []MockSkillResult `json:"skills"`
	TotalScore      float64           `json:"total_score"`
	CompletionTime  time.Duration     `json:"completion_time"`
	Weaknesses      []string          `json:"weaknesses"`
	Strengths       []string          `json:"strengths"`
	Recommendations []string          `json:"recommendations"`
}

// MockService assembles mock-test results from completed attempts.
type MockService interface {
	// GetMockResult groups the learner's completed attempts sharing the
	// session key into one result. Returns domain.ErrNotFound when the
	// session has no completed attempts.
	GetMockResult(ctx context.Context, learnerID int64, sessionKey string) (*MockTestResult, error)
}

// mockServiceImpl implements the MockService interface
type mockServiceImpl struct {
	attempts          store.ExamAttemptStore
	answers           store.AnswerStore
	weaknessThreshold float64
	strengthThreshold float64
	logger            *slog.Logger
}

// NewMockService creates a new MockService. Threshold arguments of 0
// select the defaults.
// It returns an error if any of the required dependencies are nil.
func NewMockService(
	attempts store.ExamAttemptStore,
	answers store.AnswerStore,
	weaknessThreshold, strengthThreshold float64,
	logger *slog.Logger,
) (MockService, error) {
	if attempts == nil {
		return nil, domain.NewValidationError("attempts", "cannot be nil", domain.ErrValidation)
	}
	if answers == nil {
		return nil, domain.NewValidationError("answers", "cannot be nil", domain.ErrValidation)
	}
	if weaknessThreshold == 0 {
		weaknessThreshold = DefaultWeaknessThreshold
	}
	if strengthThreshold == 0 {
		strengthThreshold = DefaultStrengthThreshold
	}
	if weaknessThreshold < 0 || strengthThreshold > 1 || weaknessThreshold >= strengthThreshold {
		return nil, domain.NewValidationError("thresholds", "must satisfy 0 <= weakness < strength <= 1", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &mockServiceImpl{
		attempts:          attempts,
		answers:           answers,
		weaknessThreshold: weaknessThreshold,
		strengthThreshold: strengthThreshold,
		logger:            logger.With(slog.String("component", "mock_service")),
	}, nil
}

// levelFor converts a 100-point speaking or writing score to its
// proficiency label.
func levelFor(score float64) string {
	switch {
	case score > 90:
		return LevelExcellent
	case score > 70:
		return LevelGood
	case score > 50:
		return LevelAdequate
	case score > 30:
		return LevelLimited
	case score > 10:
		return LevelMinimal
	default:
		return LevelNoResponse
	}
}

// GetMockResult implements MockService.GetMockResult
func (s *mockServiceImpl) GetMockResult(
	ctx context.Context,
	learnerID int64,
	sessionKey string,
) (*MockTestResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if sessionKey == "" {
		return nil, fmt.Errorf("%w: session key is required", domain.ErrInvalidInput)
	}

	attempts, err := s.attempts.FindBySessionKey(ctx, learnerID, sessionKey)
	if err != nil {
		log.Error("failed to load session attempts",
			slog.String("error", err.Error()),
			slog.Int64("learner_id", learnerID),
			slog.String("session_key", sessionKey))
		return nil, NewServiceError("mock", "get_result", "failed to load attempts", err)
	}

	var completed []*domain.ExamAttempt
	for _, attempt := range attempts {
		if attempt.IsCompleted() {
			completed = append(completed, attempt)
		}
	}
	if len(completed) == 0 {
		return nil, fmt.Errorf("%w: no completed attempts for session %s",
			domain.ErrNotFound, sessionKey)
	}

	result := &MockTestResult{SessionKey: sessionKey}

	// fraction of the per-skill maximum achieved, for analysis
	fractions := make(map[domain.Skill]float64)

	earliest := completed[0].StartTime
	latest := *completed[0].EndTime
	for _, attempt := range completed {
		if attempt.StartTime.Before(earliest) {
			earliest = attempt.StartTime
		}
		if attempt.EndTime.After(latest) {
			latest = *attempt.EndTime
		}

		skillResult := MockSkillResult{Skill: attempt.Skill}

		if attempt.Skill.IsObjective() {
			answers, err := s.answers.FindByAttempt(ctx, attempt.ID)
			if err != nil {
				log.Error("failed to load attempt answers",
					slog.String("error", err.Error()),
					slog.String("attempt_id", attempt.ID.String()))
				return nil, NewServiceError("mock", "get_result", "failed to load answers", err)
			}

			for _, answer := range answers {
				skillResult.Score += answer.Score
				skillResult.Total++
				if answer.IsCorrect != nil && *answer.IsCorrect {
					skillResult.Correct++
				}
			}

			result.TotalScore += skillResult.Score
			if skillResult.Total > 0 {
				fractions[attempt.Skill] = float64(skillResult.Correct) / float64(skillResult.Total)
			}
		} else {
			// Speaking and writing report a proficiency level instead of
			// contributing to the numeric total.
			score := 0.0
			if attempt.Score != nil {
				score = *attempt.Score
			}
			skillResult.Score = score
			skillResult.Level = levelFor(score)
			fractions[attempt.Skill] = score / 100
		}

		result.Skills = append(result.Skills, skillResult)
	}

	result.CompletionTime = latest.Sub(earliest)

	// Deterministic output order for the analysis lists.
	skills := make([]domain.Skill, 0, len(fractions))
	for skill := range fractions {
		skills = append(skills, skill)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i] < skills[j] })

	for _, skill := range skills {
		fraction := fractions[skill]
		switch {
		case fraction < s.weaknessThreshold:
			result.Weaknesses = append(result.Weaknesses, string(skill))
			if advice, ok := skillRecommendations[skill]; ok {
				result.Recommendations = append(result.Recommendations, advice)
			}
		case fraction >= s.strengthThreshold:
			result.Strengths = append(result.Strengths, string(skill))
		}
	}

	log.Info("mock result assembled",
		slog.Int64("learner_id", learnerID),
		slog.String("session_key", sessionKey),
		slog.Int("skill_count", len(result.Skills)),
		slog.Float64("total_score", result.TotalScore))
	return result, nil
}
