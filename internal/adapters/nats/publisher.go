package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/sketchroute/internal/core/domain"
)

// SubjectPrefix roots every session subject.
const SubjectPrefix = "sketchroute.session"

// SessionSubject is the subject an event of eventType for a session goes to.
func SessionSubject(sessionID, eventType string) string {
	return SubjectPrefix + "." + sessionID + "." + eventType
}

// SessionWildcard matches every event of one session.
func SessionWildcard(sessionID string) string {
	return SubjectPrefix + "." + sessionID + ".>"
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure stream exists
	cfg := nats.StreamConfig{
		Name:      "SKETCHROUTE_SESSIONS",
		Subjects:  []string{SubjectPrefix + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.MemoryStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishSessionEvent publishes the event under the session's subject tree.
func (p *Publisher) PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SessionSubject(event.SessionID, event.Type), data, nats.Context(ctx))
	return err
}

// Conn exposes the connection for readiness checks and relays.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("sketchroute"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
