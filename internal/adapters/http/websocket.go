package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/pkg/metrics"
)

// wsMessage is a command sent by the client over the socket.
type wsMessage struct {
	Action string `json:"action"` // "input" | "select" | "ping"
	Query  string `json:"query"`
	ID     string `json:"id"`
}

// WebSocketUpgrade only lets upgrade requests for a live session through.
func WebSocketUpgrade(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		id := c.Query("session")
		if id == "" {
			return errBadRequest(c, "session query parameter is required")
		}
		if _, err := deps.Sessions.Get(id); err != nil {
			return errFromDomain(c, err)
		}
		if deps.Events == nil {
			return errUnavailable(c, "event relay is not configured")
		}
		c.Locals("session_id", id)
		return c.Next()
	}
}

// WebSocketHandler relays a session's events (fly-to commands, search
// results, route outcomes) to the client. Clients may also type into the
// search box through it:
//
//	{"action":"input","query":"irvine"}
//	{"action":"select","id":"123"}
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID, _ := c.Locals("session_id").(string)
		logger := slog.Default().With("session_id", sessionID, "remote", c.RemoteAddr().String())
		logger.Info("ws client connected")

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		var closeOnce sync.Once
		done := make(chan struct{})
		stop := func() { closeOnce.Do(func() { close(done) }) }

		cancel, err := deps.Events.SubscribeSession(sessionID, func(evt domain.SessionEvent) {
			_ = writeJSON(evt)
			if evt.Type == domain.EventSessionClosed {
				stop()
				mu.Lock()
				_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				mu.Unlock()
			}
		})
		if err != nil {
			logger.Error("ws subscribe failed", "error", err)
			_ = writeJSON(map[string]string{"error": "subscribe failed"})
			return
		}
		defer cancel()

		engine, err := deps.Sessions.Get(sessionID)
		if err != nil {
			_ = writeJSON(map[string]string{"error": err.Error()})
			return
		}
		_ = writeJSON(domain.SessionEvent{
			Type:      "session.snapshot",
			SessionID: sessionID,
			Payload:   engine.Snapshot(),
			At:        time.Now().UTC(),
		})

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch m.Action {
			case "input":
				if len(m.Query) > 200 {
					_ = writeJSON(map[string]string{"error": "query too long"})
					continue
				}
				engine.SearchInput(m.Query)
			case "select":
				if _, err := engine.Select(engine.Context(), m.ID); err != nil {
					_ = writeJSON(map[string]string{"error": err.Error()})
				}
			case "ping":
				_ = writeJSON(map[string]string{"status": "pong"})
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		stop()
		logger.Info("ws client disconnected")
	}
}
