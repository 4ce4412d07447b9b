package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apiMiddleware "github.com/lumalearn/luma-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Exam attempt endpoints
			r.Post("/attempts", app.examHandler.StartExam)
			r.Get("/attempts/{id}", app.examHandler.GetAttempt)
			r.Post("/attempts/{id}/answers", app.examHandler.SubmitAnswer)
			r.Post("/attempts/{id}/responses", app.examHandler.SubmitResponse)
			r.Post("/attempts/{id}/end", app.examHandler.EndExam)
			r.Post("/attempts/{id}/finalize", app.examHandler.FinalizeExam)

			// Mock test endpoints
			r.Get("/mock-tests/{sessionKey}/result", app.mockHandler.GetResult)

			// Spaced repetition endpoints
			r.Post("/reviews", app.reviewHandler.SubmitReview)
			r.Get("/reviews/due", app.reviewHandler.GetDue)
			r.Post("/lists/{listID}/quiz-result", app.reviewHandler.SaveQuizResult)

			// Streak endpoints
			r.Post("/streaks/complete", app.streakHandler.CompletePracticeDay)
			r.Get("/streaks/summary", app.streakHandler.GetSummary)
			r.Get("/streaks/leaderboard", app.streakHandler.GetLeaderboard)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
