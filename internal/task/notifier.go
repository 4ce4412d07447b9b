package task

import (
	"context"
	"log/slog"
)

// LogNotifier writes reminders to the structured log instead of an
// external channel. It stands in until a push or email gateway is
// configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed Notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{
		logger: logger.With(slog.String("component", "log_notifier")),
	}
}

var _ Notifier = (*LogNotifier)(nil)

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, reminder Reminder) error {
	n.logger.Info("streak reminder",
		slog.Int64("learner_id", reminder.LearnerID),
		slog.Int("streak", reminder.Streak),
		slog.Int("freeze_tokens", reminder.FreezeTokens),
		slog.String("message", reminder.Message))
	return nil
}
