package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lumalearn/luma-api/internal/api"
	"github.com/lumalearn/luma-api/internal/config"
	"github.com/lumalearn/luma-api/internal/domain/streak"
	"github.com/lumalearn/luma-api/internal/events"
	"github.com/lumalearn/luma-api/internal/platform/postgres"
	"github.com/lumalearn/luma-api/internal/service"
	"github.com/lumalearn/luma-api/internal/service/auth"
	"github.com/lumalearn/luma-api/internal/task"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jwtService    auth.JWTService
	quotaService  service.QuotaService
	streakService service.StreakService
	examService   service.ExamService
	reviewService service.ReviewService
	mockService   service.MockService

	examHandler   *api.ExamHandler
	reviewHandler *api.ReviewHandler
	streakHandler *api.StreakHandler
	mockHandler   *api.MockHandler

	scheduler *task.Scheduler
}

// newApplication opens the database, runs migrations, and wires
// stores, services, handlers, and batch jobs.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := runMigrations(db, logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	// Stores
	learnerStore := postgres.NewPostgresLearnerStore(db, logger)
	attemptStore := postgres.NewPostgresAttemptStore(db, logger)
	answerStore := postgres.NewPostgresAnswerStore(db, logger)
	repetitionStore := postgres.NewPostgresRepetitionStore(db, logger)
	contentStore := postgres.NewPostgresContentStore(db, logger)

	// Events
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewLoggingEventHandler(logger))

	// Services
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("creating jwt service: %w", err)
	}

	quotaService, err := service.NewQuotaService(db, learnerStore, contentStore, cfg.Quota.FreeTierLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("creating quota service: %w", err)
	}

	streakService, err := service.NewStreakService(db, learnerStore, streak.NewDefaultConfig(), emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("creating streak service: %w", err)
	}

	examService, err := service.NewExamService(db, attemptStore, answerStore, contentStore, quotaService, streakService, logger)
	if err != nil {
		return nil, fmt.Errorf("creating exam service: %w", err)
	}

	reviewService, err := service.NewReviewService(db, repetitionStore, contentStore, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("creating review service: %w", err)
	}

	mockService, err := service.NewMockService(attemptStore, answerStore, 0, 0, logger)
	if err != nil {
		return nil, fmt.Errorf("creating mock service: %w", err)
	}

	// Batch jobs
	scheduler := task.NewScheduler(logger)

	reminderJob, err := task.NewReminderSweepJob(learnerStore, task.NewLogNotifier(logger), logger)
	if err != nil {
		return nil, fmt.Errorf("creating reminder sweep job: %w", err)
	}
	if err := scheduler.Register(cfg.Task.ReminderSchedule, reminderJob); err != nil {
		return nil, err
	}

	quotaResetJob, err := task.NewQuotaResetJob(quotaService, logger)
	if err != nil {
		return nil, fmt.Errorf("creating quota reset job: %w", err)
	}
	if err := scheduler.Register(cfg.Task.QuotaResetSchedule, quotaResetJob); err != nil {
		return nil, err
	}

	return &application{
		config:        cfg,
		logger:        logger,
		db:            db,
		jwtService:    jwtService,
		quotaService:  quotaService,
		streakService: streakService,
		examService:   examService,
		reviewService: reviewService,
		mockService:   mockService,
		examHandler:   api.NewExamHandler(examService, logger),
		reviewHandler: api.NewReviewHandler(reviewService, logger),
		streakHandler: api.NewStreakHandler(streakService, logger),
		mockHandler:   api.NewMockHandler(mockService, logger),
		scheduler:     scheduler,
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
}
