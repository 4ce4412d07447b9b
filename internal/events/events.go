package events

import (
	"context"

	"github.com/lumalearn/luma-api/internal/domain"
)

// StreakEventHandler defines an interface for components that consume
// streak events. Handlers take appropriate actions (notifications,
// analytics) and must tolerate redelivery.
type StreakEventHandler interface {
	// HandleStreakEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleStreakEvent(ctx context.Context, event domain.StreakEvent) error
}

// StreakEventEmitter defines an interface for components that emit
// streak events. This allows the streak service to publish transitions
// without direct knowledge of handlers.
type StreakEventEmitter interface {
	// EmitStreakEvents publishes the given events, in order, to all
	// registered handlers. Returns an error if emission fails.
	EmitStreakEvents(ctx context.Context, events []domain.StreakEvent) error
}
