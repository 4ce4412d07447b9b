package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumalearn/luma-api/internal/api/shared"
	"github.com/lumalearn/luma-api/internal/platform/logger"
	"github.com/lumalearn/luma-api/internal/service"
)

// MockHandler handles mock test result HTTP requests
type MockHandler struct {
	mockService service.MockService
	logger      *slog.Logger
}

// NewMockHandler creates a new MockHandler
func NewMockHandler(mockService service.MockService, logger *slog.Logger) *MockHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for MockHandler")
	}
	return &MockHandler{
		mockService: mockService,
		logger:      logger.With(slog.String("component", "mock_handler")),
	}
}

// GetResult handles GET /mock-tests/{sessionKey}/result requests. It
// assembles the per-skill results of one mock test sitting.
func (h *MockHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := shared.LearnerIDFromContext(r.Context())
	if !ok {
		log.Warn("learner ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found")
		return
	}

	sessionKey := chi.URLParam(r, "sessionKey")
	if sessionKey == "" {
		log.Warn("session key not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Session key is required")
		return
	}

	result, err := h.mockService.GetMockResult(r.Context(), learnerID, sessionKey)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to get mock test result"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("mock test result assembled",
		slog.Int64("learner_id", learnerID),
		slog.String("session_key", sessionKey),
		slog.Int("skills", len(result.Skills)))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
