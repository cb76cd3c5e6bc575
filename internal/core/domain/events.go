package domain

import "time"

// Session event types published to subscribers of a session.
const (
	EventFlyTo           = "map.fly_to"
	EventViewportUpdated = "viewport.updated"
	EventSearchResults   = "search.results"
	EventRouteCompleted  = "route.completed"
	EventRouteFailed     = "route.failed"
	EventSessionClosed   = "session.closed"
)

// SessionEvent is a command or notification addressed to a session's clients.
type SessionEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Payload   any       `json:"payload,omitempty"`
	At        time.Time `json:"at"`
}
