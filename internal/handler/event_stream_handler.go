package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/events"
)

const (
	eventStreamBuffer    = 32
	eventStreamKeepalive = 30 * time.Second
)

// EventStreamHandler pushes domain events to administrators over a websocket.
type EventStreamHandler struct {
	hub    *events.Hub
	logger zerolog.Logger
}

// NewEventStreamHandler constructs the handler.
func NewEventStreamHandler(hub *events.Hub, logger zerolog.Logger) *EventStreamHandler {
	return &EventStreamHandler{
		hub:    hub,
		logger: logger.With().Str("component", "event_stream_handler").Logger(),
	}
}

// Register binds the websocket endpoint under the provided router group.
func (h *EventStreamHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.stream))
}

func (h *EventStreamHandler) stream(conn *websocket.Conn) {
	username, _ := conn.Locals("user_id").(string)
	feed, cancel := h.hub.Subscribe(eventStreamBuffer)
	defer cancel()
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info().Str("actor", username).Msg("event stream connected")
	defer h.logger.Info().Str("actor", username).Msg("event stream disconnected")

	ticker := time.NewTicker(eventStreamKeepalive)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-feed:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Msg("event stream write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				h.logger.Debug().Err(err).Msg("event stream ping failed")
				return
			}
		case <-closed:
			return
		}
	}
}
