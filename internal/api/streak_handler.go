package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lumalearn/luma-api/internal/api/shared"
	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/redact"
	"github.com/lumalearn/luma-api/internal/service"
)

const defaultLeaderboardSize = 10

// StreakEventResponse represents one streak event produced by a
// completed practice day
type StreakEventResponse struct {
	Type       string `json:"type"`
	Streak     int    `json:"streak,omitempty"`
	Milestone  int    `json:"milestone,omitempty"`
	TokenCount int    `json:"token_count,omitempty"`
}

// StreakHandler handles streak HTTP requests
type StreakHandler struct {
	streakService service.StreakService
	logger        *slog.Logger
}

// NewStreakHandler creates a new StreakHandler
func NewStreakHandler(streakService service.StreakService, logger *slog.Logger) *StreakHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StreakHandler")
	}
	return &StreakHandler{
		streakService: streakService,
		logger:        logger.With(slog.String("component", "streak_handler")),
	}
}

// CompletePracticeDayRequest represents the request body for marking a
// practice day done. Day defaults to today (UTC) when omitted.
type CompletePracticeDayRequest struct {
	Day string `json:"day,omitempty"`
}

// CompletePracticeDay handles POST /streaks/complete requests
func (h *StreakHandler) CompletePracticeDay(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := shared.LearnerIDFromContext(r.Context())
	if !ok {
		log.Warn("learner ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found")
		return
	}

	day := time.Now().UTC()
	if r.ContentLength > 0 {
		var req CompletePracticeDayRequest
		if err := shared.DecodeJSON(r, &req); err != nil {
			log.Warn("invalid request format", slog.String("error", redact.Error(err)))
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		if req.Day != "" {
			parsed, err := time.Parse("2006-01-02", req.Day)
			if err != nil {
				log.Warn("invalid day format", slog.String("day", req.Day))
				shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid day format, expected YYYY-MM-DD")
				return
			}
			day = parsed
		}
	}

	events, err := h.streakService.CompletePracticeDay(r.Context(), learnerID, day)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to complete practice day"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	responses := make([]StreakEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, streakEventToResponse(event))
	}

	log.Debug("practice day completed",
		slog.Int64("learner_id", learnerID),
		slog.Int("events", len(responses)))
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetSummary handles GET /streaks/summary requests
func (h *StreakHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := shared.LearnerIDFromContext(r.Context())
	if !ok {
		log.Warn("learner ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found")
		return
	}

	summary, err := h.streakService.GetStreakSummary(r.Context(), learnerID, time.Now().UTC())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to get streak summary"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// GetLeaderboard handles GET /streaks/leaderboard requests
func (h *StreakHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit, expected 1-100")
			return
		}
		limit = parsed
	}

	entries, err := h.streakService.TopStreaks(r.Context(), limit)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to get leaderboard"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// streakEventToResponse converts a domain.StreakEvent to a
// StreakEventResponse
func streakEventToResponse(event domain.StreakEvent) StreakEventResponse {
	return StreakEventResponse{
		Type:       string(event.Type),
		Streak:     event.Streak,
		Milestone:  event.Milestone,
		TokenCount: event.TokenCount,
	}
}
