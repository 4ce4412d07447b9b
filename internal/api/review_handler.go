package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lumalearn/luma-api/internal/api/shared"
	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/redact"
	"github.com/lumalearn/luma-api/internal/service"
	"github.com/lumalearn/luma-api/internal/store"
)

// RepetitionResponse represents the response data for a spaced
// repetition record
type RepetitionResponse struct {
	LearnerID      int64      `json:"learner_id"`
	ListID         int64      `json:"list_id"`
	VocabularyID   int64      `json:"vocabulary_id"`
	LastReviewedAt time.Time  `json:"last_reviewed_at"`
	NextReviewAt   *time.Time `json:"next_review_at,omitempty"`
	ReviewCount    int        `json:"review_count"`
	IntervalDays   int        `json:"interval_days"`
	Status         string     `json:"status"`
	BestQuizScore  *float64   `json:"best_quiz_score,omitempty"`
	LastQuizScore  *float64   `json:"last_quiz_score,omitempty"`
	TotalQuizCount int        `json:"total_quiz_count"`
}

// ReviewHandler handles spaced repetition HTTP requests
type ReviewHandler struct {
	reviewService service.ReviewService
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService service.ReviewService, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// SubmitReview handles POST /reviews requests. It records one recall
// quality rating and reschedules the vocabulary item.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := shared.LearnerIDFromContext(r.Context())
	if !ok {
		log.Warn("learner ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found")
		return
	}

	var req service.ReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	record, err := h.reviewService.ReviewVocabulary(r.Context(), learnerID, req, time.Now().UTC())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to record review"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("review recorded",
		slog.Int64("learner_id", learnerID),
		slog.Int64("list_id", record.ListID),
		slog.Int64("vocabulary_id", record.VocabularyID),
		slog.Int("interval_days", record.IntervalDays))
	shared.RespondWithJSON(w, r, http.StatusOK, repetitionToResponse(record))
}

// GetDue handles GET /reviews/due requests. The optional mode query
// parameter narrows results to struggling items.
func (h *ReviewHandler) GetDue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := shared.LearnerIDFromContext(r.Context())
	if !ok {
		log.Warn("learner ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found")
		return
	}

	mode := store.DueMode(r.URL.Query().Get("mode"))

	records, err := h.reviewService.GetDue(r.Context(), learnerID, mode, time.Now().UTC())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to get due reviews"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	responses := make([]RepetitionResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, repetitionToResponse(record))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// QuizResultRequest represents the request body for a list quiz score
type QuizResultRequest struct {
	Score float64 `json:"score" validate:"gte=0,lte=1"`
}

// SaveQuizResult handles POST /lists/{listID}/quiz-result requests
func (h *ReviewHandler) SaveQuizResult(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := shared.LearnerIDFromContext(r.Context())
	if !ok {
		log.Warn("learner ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found")
		return
	}

	listID, err := strconv.ParseInt(chi.URLParam(r, "listID"), 10, 64)
	if err != nil || listID <= 0 {
		log.Warn("invalid list ID in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid list ID")
		return
	}

	var req QuizResultRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	record, err := h.reviewService.SaveQuizResult(r.Context(), learnerID, listID, req.Score, time.Now().UTC())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to save quiz result"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, repetitionToResponse(record))
}

// repetitionToResponse converts a domain.RepetitionRecord to a
// RepetitionResponse
func repetitionToResponse(record *domain.RepetitionRecord) RepetitionResponse {
	return RepetitionResponse{
		LearnerID:      record.LearnerID,
		ListID:         record.ListID,
		VocabularyID:   record.VocabularyID,
		LastReviewedAt: record.LastReviewedAt,
		NextReviewAt:   record.NextReviewAt,
		ReviewCount:    record.ReviewCount,
		IntervalDays:   record.IntervalDays,
		Status:         string(record.Status),
		BestQuizScore:  record.BestQuizScore,
		LastQuizScore:  record.LastQuizScore,
		TotalQuizCount: record.TotalQuizCount,
	}
}
