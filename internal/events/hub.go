package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Hub fans events out to in-process subscribers such as live admin feeds.
// Publishing never blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscription]struct{}
	logger      zerolog.Logger
}

type subscription struct {
	events chan Event
	once   sync.Once
}

// NewHub constructs an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*subscription]struct{}),
		logger:      logger.With().Str("component", "event_hub").Logger(),
	}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel function unregisters it and closes the channel; it is safe to call
// more than once.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	sub := &subscription{events: make(chan Event, buffer)}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	return sub.events, func() {
		sub.once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, sub)
			h.mu.Unlock()
			close(sub.events)
		})
	}
}

// Subscribers reports how many subscribers are registered.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Publish delivers event to every subscriber with room in its buffer.
func (h *Hub) Publish(_ context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub.events <- event:
		default:
			h.logger.Warn().Str("type", event.Type).Msg("dropping event for slow subscriber")
		}
	}
	return nil
}

type fanout []Publisher

// Fanout publishes every event to each non-nil publisher in turn. Failures are
// joined; one failing publisher does not stop the others.
func Fanout(publishers ...Publisher) Publisher {
	targets := make(fanout, 0, len(publishers))
	for _, publisher := range publishers {
		if publisher != nil {
			targets = append(targets, publisher)
		}
	}
	return targets
}

func (f fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, publisher := range f {
		if err := publisher.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
