// Package ports define the EventBus interface for event-driven communication.
package ports

import (
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// The playback session publishes transport events; the queue scheduler, the
// controller and the UI presenter consume them without knowing about each other.
//
// Thread-safety: Implementations must be thread-safe as events may be published and
// subscribed from multiple goroutines simultaneously.
//
// Example usage:
//
//	// In the session: publish an event
//	bus.Publish(domain.NewTrackEndedEvent(track, token))
//
//	// In the scheduler: react to it
//	subID := bus.Subscribe(domain.EventTrackEnded, func(event domain.Event) {
//	    _ = scheduler.Advance()
//	})
//
//	// Later: Unsubscribe
//	bus.Unsubscribe(subID)
type EventBus interface {
	// Publish publishes an event to all subscribers of that event type.
	// Handlers run in subscription order. Handlers must not block for long.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// Each subscription gets a unique SubscriptionID. Subscribing to a closed
	// bus returns an empty ID and the handler is never called.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered event handler.
	// If the subscription ID is invalid or already unsubscribed, this is a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	// This is useful for logging and debugging.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers returns true if there are any active subscriptions for the given event type.
	// Publishers use it to skip building high-frequency events nobody listens to.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and drops all subscriptions.
	Close() error
}
