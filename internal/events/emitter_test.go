package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

// MockEventHandler records the events it receives and can be configured
// to fail.
type MockEventHandler struct {
	HandledCount int
	LastEvent    domain.StreakEvent
	HandlerError error
}

func (h *MockEventHandler) HandleStreakEvent(ctx context.Context, event domain.StreakEvent) error {
	h.HandledCount++
	h.LastEvent = event
	return h.HandlerError
}

func testEvents() []domain.StreakEvent {
	return []domain.StreakEvent{
		{
			Type:       domain.StreakEventCompleteDay,
			LearnerID:  42,
			OccurredAt: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			Streak:     7,
		},
		{
			Type:       domain.StreakEventMilestoneReached,
			LearnerID:  42,
			OccurredAt: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			Streak:     7,
			Milestone:  7,
		},
	}
}

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		err := emitter.EmitStreakEvents(context.Background(), testEvents())
		assert.NoError(t, err)
	})

	t.Run("emit with no events", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		handler := &MockEventHandler{}
		emitter.RegisterHandler(handler)

		err := emitter.EmitStreakEvents(context.Background(), nil)
		assert.NoError(t, err)
		assert.Equal(t, 0, handler.HandledCount)
	})

	t.Run("all handlers receive all events in order", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		streakEvents := testEvents()
		err := emitter.EmitStreakEvents(context.Background(), streakEvents)
		assert.NoError(t, err)

		assert.Equal(t, 2, handler1.HandledCount)
		assert.Equal(t, 2, handler2.HandledCount)
		assert.Equal(t, streakEvents[1], handler1.LastEvent)
		assert.Equal(t, streakEvents[1], handler2.LastEvent)
	})

	t.Run("failing handler does not block others", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		failing := &MockEventHandler{HandlerError: errors.New("handler error")}
		succeeding := &MockEventHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(succeeding)

		err := emitter.EmitStreakEvents(context.Background(), testEvents())
		assert.Error(t, err)

		assert.Equal(t, 2, failing.HandledCount)
		assert.Equal(t, 2, succeeding.HandledCount)
	})
}
