package events

import (
	"context"
	"log/slog"

	"github.com/lumalearn/luma-api/internal/domain"
)

// LoggingEventHandler records every streak event in the structured
// log. It is the default handler wired at startup so milestone and
// reset activity is always observable.
type LoggingEventHandler struct {
	logger *slog.Logger
}

// NewLoggingEventHandler creates a new LoggingEventHandler.
func NewLoggingEventHandler(logger *slog.Logger) *LoggingEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventHandler{
		logger: logger.With("component", "streak_event_log"),
	}
}

// Ensure LoggingEventHandler implements StreakEventHandler
var _ StreakEventHandler = (*LoggingEventHandler)(nil)

// HandleStreakEvent implements StreakEventHandler. It never fails.
func (h *LoggingEventHandler) HandleStreakEvent(ctx context.Context, event domain.StreakEvent) error {
	attrs := []any{
		"event_type", string(event.Type),
		"learner_id", event.LearnerID,
		"streak", event.Streak,
	}
	if event.Milestone > 0 {
		attrs = append(attrs, "milestone", event.Milestone)
	}
	if event.TokenCount > 0 {
		attrs = append(attrs, "token_count", event.TokenCount)
	}
	h.logger.Info("streak event", attrs...)
	return nil
}
