package natsadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/sketchroute/internal/core/domain"
)

// Subscriber fans session events out to in-process listeners such as
// WebSocket connections. It uses core NATS subscriptions, which also receive
// messages published through JetStream.
type Subscriber struct {
	conn *nats.Conn

	mu   sync.Mutex
	subs map[*nats.Subscription]struct{}
}

// NewSubscriber creates a subscriber on an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn, subs: make(map[*nats.Subscription]struct{})}
}

// SubscribeSession delivers every event of one session to handler until the
// returned cancel func is called. Undecodable messages are dropped.
func (s *Subscriber) SubscribeSession(sessionID string, handler func(domain.SessionEvent)) (func(), error) {
	sub, err := s.conn.Subscribe(SessionWildcard(sessionID), func(msg *nats.Msg) {
		var evt domain.SessionEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			slog.Warn("drop malformed session event", slog.String("subject", msg.Subject), slog.Any("error", err))
			return
		}
		handler(evt)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", sessionID, err)
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
		_ = sub.Unsubscribe()
	}, nil
}

// Close unsubscribes everything still registered.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = make(map[*nats.Subscription]struct{})
}
