package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lumalearn/luma-api/internal/domain"
)

// InMemoryEventEmitter is a simple implementation of the
// StreakEventEmitter interface that stores registered handlers in
// memory and dispatches events to them synchronously.
type InMemoryEventEmitter struct {
	handlers []StreakEventHandler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	return &InMemoryEventEmitter{
		handlers: make([]StreakEventHandler, 0),
		logger:   logger.With("component", "in_memory_event_emitter"),
	}
}

// Ensure InMemoryEventEmitter implements StreakEventEmitter
var _ StreakEventEmitter = (*InMemoryEventEmitter)(nil)

// RegisterHandler adds a new event handler to receive events.
func (e *InMemoryEventEmitter) RegisterHandler(handler StreakEventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new event handler", "handler_count", len(e.handlers))
}

// EmitStreakEvents publishes the given events to all registered handlers.
// If any handler returns an error, the events are still sent to all other
// handlers, and the first error encountered is returned.
func (e *InMemoryEventEmitter) EmitStreakEvents(ctx context.Context, streakEvents []domain.StreakEvent) error {
	e.mu.RLock()
	handlers := make([]StreakEventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	if len(streakEvents) == 0 {
		return nil
	}

	e.logger.Debug("emitting streak events",
		"event_count", len(streakEvents),
		"handler_count", len(handlers))

	if len(handlers) == 0 {
		e.logger.Warn("no handlers registered for streak events",
			"event_count", len(streakEvents))
		return nil
	}

	var firstErr error
	for _, event := range streakEvents {
		for i, handler := range handlers {
			if err := handler.HandleStreakEvent(ctx, event); err != nil {
				e.logger.Error("handler failed to process event",
					"error", err,
					"handler_index", i,
					"event_type", string(event.Type),
					"learner_id", event.LearnerID)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}

	return firstErr
}
