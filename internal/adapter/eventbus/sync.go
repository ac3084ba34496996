// Package eventbus provides implementations of the EventBus interface.
package eventbus

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// SyncEventBus delivers events synchronously on the publisher's goroutine,
// in the order handlers subscribed.
//
// Thread-safety: Multiple goroutines can publish events and subscribe or
// unsubscribe handlers concurrently. The subscriber list is copied before
// delivery, so handlers may subscribe or unsubscribe from inside a callback.
type SyncEventBus struct {
	logger *slog.Logger

	// subscribers map event types to their subscriptions
	subscribers map[domain.EventType][]subscription

	// allSubscribers contains handlers that receive all events
	allSubscribers []subscription

	mu        sync.RWMutex
	idCounter atomic.Uint64
	closed    bool
}

type subscription struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
// A nil logger disables delivery logging.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SyncEventBus{
		logger:      logger,
		subscribers: make(map[domain.EventType][]subscription),
	}
}

// Publish delivers an event to type subscribers first, then to wildcard subscribers.
// Publishing on a closed bus is a no-op. A panicking handler is logged and skipped.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	eventType := event.Type()
	targets := make([]subscription, 0, len(bus.subscribers[eventType])+len(bus.allSubscribers))
	targets = append(targets, bus.subscribers[eventType]...)
	targets = append(targets, bus.allSubscribers...)
	bus.mu.RUnlock()

	for _, sub := range targets {
		bus.deliver(sub, event)
	}
}

func (bus *SyncEventBus) deliver(sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(sub.id)))
		}
	}()

	if event.Type() != domain.EventTrackProgress {
		bus.logger.Debug("event delivered",
			slog.String("event_type", string(event.Type())),
			slog.String("subscription", string(sub.id)))
	}
	sub.handler(event)
}

// Subscribe registers a handler for events of the specified type.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, false, handler)
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("", true, handler)
}

func (bus *SyncEventBus) add(eventType domain.EventType, wildcard bool, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		bus.logger.Warn("subscribe on closed event bus ignored",
			slog.String("event_type", string(eventType)))
		return ""
	}

	n := bus.idCounter.Add(1)
	if wildcard {
		id := domain.SubscriptionID(fmt.Sprintf("sub-all-%d", n))
		bus.allSubscribers = append(bus.allSubscribers, subscription{id: id, handler: handler})
		return id
	}

	id := domain.SubscriptionID(fmt.Sprintf("sub-%d", n))
	bus.subscribers[eventType] = append(bus.subscribers[eventType], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a previously registered handler, keeping the order of the rest.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	if id == "" {
		return
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	match := func(s subscription) bool { return s.id == id }

	for eventType, subs := range bus.subscribers {
		if i := slices.IndexFunc(subs, match); i >= 0 {
			bus.subscribers[eventType] = slices.Delete(slices.Clone(subs), i, i+1)
			return
		}
	}

	if i := slices.IndexFunc(bus.allSubscribers, match); i >= 0 {
		bus.allSubscribers = slices.Delete(slices.Clone(bus.allSubscribers), i, i+1)
	}
}

// HasSubscribers returns true if a type or wildcard subscription would receive the event type.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	return len(bus.subscribers[eventType]) > 0 || len(bus.allSubscribers) > 0
}

// Close drops all subscriptions. Calling Close twice is harmless.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return nil
	}
	bus.closed = true
	bus.subscribers = make(map[domain.EventType][]subscription)
	bus.allSubscribers = nil
	return nil
}

// SubscriberCount returns the number of active subscriptions, wildcard ones included.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := len(bus.allSubscribers)
	for _, subs := range bus.subscribers {
		count += len(subs)
	}
	return count
}

var _ ports.EventBus = (*SyncEventBus)(nil)
