package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumalearn/luma-api/internal/api/shared"
	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/redact"
	"github.com/lumalearn/luma-api/internal/service"
)

// AttemptResponse represents the response data for an exam attempt
type AttemptResponse struct {
	ID         string     `json:"id"`
	LearnerID  int64      `json:"learner_id"`
	ExamID     int64      `json:"exam_id"`
	PartID     *int64     `json:"part_id,omitempty"`
	Skill      string     `json:"skill"`
	Type       string     `json:"attempt_type"`
	SessionKey *string    `json:"session_key,omitempty"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	Score      *float64   `json:"score,omitempty"`
	Status     string     `json:"status"`
}

// AnswerResponse represents the response data for a recorded answer
type AnswerResponse struct {
	AttemptID        string  `json:"attempt_id"`
	QuestionID       int64   `json:"question_id"`
	Kind             string  `json:"kind"`
	SelectedOptionID *int64  `json:"selected_option_id,omitempty"`
	IsCorrect        *bool   `json:"is_correct,omitempty"`
	Score            float64 `json:"score"`
}

// ExamHandler handles exam attempt HTTP requests
type ExamHandler struct {
	examService service.ExamService
	logger      *slog.Logger
}

// NewExamHandler creates a new ExamHandler
func NewExamHandler(examService service.ExamService, logger *slog.Logger) *ExamHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ExamHandler")
	}
	return &ExamHandler{
		examService: examService,
		logger:      logger.With(slog.String("component", "exam_handler")),
	}
}

// StartExam handles POST /attempts requests
func (h *ExamHandler) StartExam(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := shared.LearnerIDFromContext(r.Context())
	if !ok {
		log.Warn("learner ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found")
		return
	}

	var req service.StartExamRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	attempt, err := h.examService.StartAnExam(r.Context(), learnerID, req, time.Now().UTC())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to start exam attempt"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("exam attempt started",
		slog.Int64("learner_id", learnerID),
		slog.String("attempt_id", attempt.ID.String()),
		slog.String("skill", string(attempt.Skill)))
	shared.RespondWithJSON(w, r, http.StatusCreated, attemptToResponse(attempt))
}

// SubmitAnswerRequest represents the request body for a choice answer
type SubmitAnswerRequest struct {
	QuestionID       int64 `json:"question_id" validate:"required,gt=0"`
	SelectedOptionID int64 `json:"selected_option_id" validate:"required,gt=0"`
}

// SubmitAnswer handles POST /attempts/{id}/answers requests
func (h *ExamHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	attemptID, learnerID, ok := h.attemptRequest(w, r)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if !h.authorizeAttempt(w, r, attemptID, learnerID) {
		return
	}

	answer, err := h.examService.SubmitAnswer(r.Context(), attemptID, req.QuestionID, req.SelectedOptionID, time.Now().UTC())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to submit answer"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("answer submitted",
		slog.String("attempt_id", attemptID.String()),
		slog.Int64("question_id", req.QuestionID))
	shared.RespondWithJSON(w, r, http.StatusOK, answerToResponse(answer))
}

// SubmitResponseRequest represents the request body for a speaking or
// writing response graded externally as a fraction of full credit.
type SubmitResponseRequest struct {
	QuestionID    int64           `json:"question_id" validate:"required,gt=0"`
	ResponseText  string          `json:"response_text" validate:"required"`
	Feedback      json.RawMessage `json:"feedback,omitempty"`
	ScoreFraction float64         `json:"score_fraction" validate:"gte=0,lte=1"`
}

// SubmitResponse handles POST /attempts/{id}/responses requests
func (h *ExamHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	attemptID, learnerID, ok := h.attemptRequest(w, r)
	if !ok {
		return
	}

	var req SubmitResponseRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if !h.authorizeAttempt(w, r, attemptID, learnerID) {
		return
	}

	answer, err := h.examService.SubmitResponseAnswer(
		r.Context(), attemptID, req.QuestionID, req.ResponseText, req.Feedback, req.ScoreFraction, time.Now().UTC())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to submit response"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, answerToResponse(answer))
}

// EndExamRequest represents the request body for ending an attempt
// with an externally supplied final score.
type EndExamRequest struct {
	FinalScore float64 `json:"final_score" validate:"gte=0"`
}

// EndExam handles POST /attempts/{id}/end requests
func (h *ExamHandler) EndExam(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	attemptID, learnerID, ok := h.attemptRequest(w, r)
	if !ok {
		return
	}

	var req EndExamRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if !h.authorizeAttempt(w, r, attemptID, learnerID) {
		return
	}

	attempt, err := h.examService.EndAnExam(r.Context(), attemptID, time.Now().UTC(), req.FinalScore)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to end exam attempt"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("exam attempt ended", slog.String("attempt_id", attemptID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, attemptToResponse(attempt))
}

// FinalizeExam handles POST /attempts/{id}/finalize requests. It ends
// the attempt with a score computed from its recorded answers.
func (h *ExamHandler) FinalizeExam(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	attemptID, learnerID, ok := h.attemptRequest(w, r)
	if !ok {
		return
	}

	if !h.authorizeAttempt(w, r, attemptID, learnerID) {
		return
	}

	summary, err := h.examService.FinalizeAttempt(r.Context(), attemptID, time.Now().UTC())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to finalize exam attempt"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("exam attempt finalized", slog.String("attempt_id", attemptID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// GetAttempt handles GET /attempts/{id} requests
func (h *ExamHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, learnerID, ok := h.attemptRequest(w, r)
	if !ok {
		return
	}

	attempt, err := h.examService.GetAttempt(r.Context(), attemptID)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to get exam attempt"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}
	if attempt.LearnerID != learnerID {
		shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, GetSafeErrorMessage(service.ErrNotOwned), service.ErrNotOwned)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, attemptToResponse(attempt))
}

// attemptRequest extracts the attempt ID from the URL and the learner
// ID from the context, writing the error response itself on failure.
func (h *ExamHandler) attemptRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, int64, bool) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	pathID := chi.URLParam(r, "id")
	if pathID == "" {
		log.Warn("attempt ID not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Attempt ID is required")
		return uuid.Nil, 0, false
	}

	attemptID, err := uuid.Parse(pathID)
	if err != nil {
		log.Warn("invalid attempt ID format", slog.String("attempt_id", pathID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid attempt ID format")
		return uuid.Nil, 0, false
	}

	learnerID, ok := shared.LearnerIDFromContext(r.Context())
	if !ok {
		log.Warn("learner ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found")
		return uuid.Nil, 0, false
	}

	return attemptID, learnerID, true
}

// authorizeAttempt verifies the attempt belongs to the learner before a
// mutation, writing the error response itself on failure.
func (h *ExamHandler) authorizeAttempt(w http.ResponseWriter, r *http.Request, attemptID uuid.UUID, learnerID int64) bool {
	attempt, err := h.examService.GetAttempt(r.Context(), attemptID)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, statusCode, GetSafeErrorMessage(err), err)
		return false
	}
	if attempt.LearnerID != learnerID {
		shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, GetSafeErrorMessage(service.ErrNotOwned), service.ErrNotOwned)
		return false
	}
	return true
}

// attemptToResponse converts a domain.ExamAttempt to an AttemptResponse
func attemptToResponse(attempt *domain.ExamAttempt) AttemptResponse {
	return AttemptResponse{
		ID:         attempt.ID.String(),
		LearnerID:  attempt.LearnerID,
		ExamID:     attempt.ExamID,
		PartID:     attempt.PartID,
		Skill:      string(attempt.Skill),
		Type:       string(attempt.Type),
		SessionKey: attempt.SessionKey,
		StartTime:  attempt.StartTime,
		EndTime:    attempt.EndTime,
		Score:      attempt.Score,
		Status:     string(attempt.Status),
	}
}

// answerToResponse converts a domain.AnswerRecord to an AnswerResponse
func answerToResponse(answer *domain.AnswerRecord) AnswerResponse {
	return AnswerResponse{
		AttemptID:        answer.AttemptID.String(),
		QuestionID:       answer.QuestionID,
		Kind:             string(answer.Kind),
		SelectedOptionID: answer.SelectedOptionID,
		IsCorrect:        answer.IsCorrect,
		Score:            answer.Score,
	}
}
