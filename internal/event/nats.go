// internal/event/nats.go
// Package event mirrors local change notifications onto NATS JetStream so
// other processes (sync agents, indexers) can observe collection changes.
// The in-process bus stays authoritative; this mirror is best-effort.
package event

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/cliphaven/cliphaven-go/internal/bus"
)

// Publisher mirrors a bus topic onto an external stream.
type Publisher interface {
	// PublishChange emits a change notification for a topic.
	PublishChange(topic bus.Topic) error

	// Close closes the publisher connection.
	Close() error
}

// noop is the Publisher used when NATS is not configured. All methods do
// nothing and return nil.
type noop struct{}

func (n *noop) PublishChange(topic bus.Topic) error { return nil }
func (n *noop) Close() error                        { return nil }

// natsPub is the NATS JetStream implementation of Publisher.
type natsPub struct {
	nc *nats.Conn
	js nats.JetStreamContext

	// Collapse bursts of identical topic publishes.
	lastPublish map[bus.Topic]time.Time
	mutex       sync.Mutex
}

// NewPublisherFromEnv creates a publisher based on environment configuration.
// It reads CH_NATS_URL; when unset, or when the connection fails, it returns
// a no-op publisher so the client keeps working offline.
func NewPublisherFromEnv() Publisher {
	url := os.Getenv("CH_NATS_URL")
	if url == "" {
		return &noop{}
	}

	nc, err := nats.Connect(url)
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", "error", err)
		return &noop{}
	}

	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("NATS JetStream context creation failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	if err := initStream(js); err != nil {
		slog.Warn("NATS stream initialization failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	return &natsPub{
		nc:          nc,
		js:          js,
		lastPublish: make(map[bus.Topic]time.Time),
	}
}

// initStream creates the CH_CHANGES stream that carries all change
// notifications.
func initStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      "CH_CHANGES",
		Subjects:  []string{"cliphaven.changes.*"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create CH_CHANGES stream: %w", err)
	}
	return nil
}

// ChangeEnvelope is the wire form of a mirrored change notification. Like
// the in-process bus it carries no payload, only which topic changed.
type ChangeEnvelope struct {
	Type          string    `json:"type"`
	Version       string    `json:"version"`
	OccurredAt    time.Time `json:"occurredAt"`
	CorrelationID string    `json:"correlationId"`
}

// Close closes the NATS connection.
func (p *natsPub) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// PublishChange mirrors a topic change onto the stream. Publishes of the
// same topic within one second are collapsed; subscribers only care that
// the collection changed, not how many times.
func (p *natsPub) PublishChange(topic bus.Topic) error {
	p.mutex.Lock()
	if last, ok := p.lastPublish[topic]; ok && time.Since(last) < time.Second {
		p.mutex.Unlock()
		return nil
	}
	p.lastPublish[topic] = time.Now()
	p.mutex.Unlock()

	subject := fmt.Sprintf("cliphaven.changes.%s", topic)
	envelope := ChangeEnvelope{
		Type:          subject,
		Version:       "1.0.0",
		OccurredAt:    time.Now().UTC(),
		CorrelationID: uuid.New().String(),
	}

	b, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, b)
	return err
}

// Mirror subscribes the publisher to every bus topic so local changes are
// echoed to the stream. It returns a function that detaches the mirror.
func Mirror(b *bus.Bus, p Publisher, log *slog.Logger) func() {
	topics := []bus.Topic{
		bus.TopicContentChanged,
		bus.TopicSubscriptionsChanged,
		bus.TopicPlaylistsChanged,
	}
	unsubs := make([]func(), 0, len(topics))
	for _, topic := range topics {
		unsubs = append(unsubs, b.Subscribe(topic, func(t bus.Topic) {
			if err := p.PublishChange(t); err != nil {
				log.Warn("failed to mirror change notification", "topic", string(t), "error", err)
			}
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
