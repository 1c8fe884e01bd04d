// internal/bus/bus.go
// Package bus implements the in-process notification bus: synchronous,
// topic-keyed publish/subscribe with no payload. Views that mutate a
// collection publish the matching topic; views that render derived data
// subscribe on mount and re-read the collection store when notified.
// The bus is an explicit instance owned by the application root, not an
// ambient signal namespace.
package bus

import (
	"log/slog"
	"sync"

	"github.com/cliphaven/cliphaven-go/internal/metrics"
)

// Topic identifies what kind of change occurred.
type Topic string

// The three change topics that make up the cross-view wire protocol.
const (
	TopicContentChanged       Topic = "content-changed"
	TopicSubscriptionsChanged Topic = "subscriptions-changed"
	TopicPlaylistsChanged     Topic = "playlists-changed"
)

// Handler is invoked synchronously on the publishing goroutine. It carries
// no payload: subscribers re-read the collection store to discover what
// changed (push invalidation, pull data).
type Handler func(topic Topic)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a single-process synchronous publish/subscribe hub.
type Bus struct {
	mu     sync.Mutex
	subs   map[Topic][]subscription
	nextID uint64
	log    *slog.Logger
	m      *metrics.Metrics
}

// New creates an empty bus.
func New(log *slog.Logger) *Bus {
	return &Bus{
		subs: make(map[Topic][]subscription),
		log:  log,
		m:    metrics.NewMetrics(),
	}
}

// Subscribe registers a handler for a topic and returns an unsubscribe
// token. Handlers run in registration order.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.subs[topic]
		for i, sub := range subs {
			if sub.id == id {
				b.subs[topic] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish invokes all currently registered subscribers for the topic, in
// registration order, on the calling goroutine, before returning.
func (b *Bus) Publish(topic Topic) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.Unlock()

	b.m.BusPublishTotal.WithLabelValues(string(topic)).Inc()
	b.log.Debug("publishing change topic", "topic", topic, "subscribers", len(subs))

	for _, sub := range subs {
		sub.handler(topic)
	}
}
