// Package main implements the entry point for the Luma API server,
// which tracks learner progress: exam attempts and scoring, spaced
// repetition scheduling, daily streaks, and monthly quota gating.
package main

import (
	"context"
	"log"

	"github.com/lumalearn/luma-api/internal/config"
	"github.com/lumalearn/luma-api/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	router := app.setupRouter()
	if err := app.startHTTPServer(context.Background(), router); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
