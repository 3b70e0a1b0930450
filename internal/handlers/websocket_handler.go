package handlers

import (
	"log"
	"time"

	"github.com/Dylan-Floyd/effe81/internal/presence"
	"github.com/gofiber/websocket/v2"
)

const (
	pingInterval = 30 * time.Second
	pongTimeout  = 90 * time.Second
)

type WebSocketHandler struct {
	registry *presence.Registry
}

func NewWebSocketHandler(registry *presence.Registry) *WebSocketHandler {
	return &WebSocketHandler{registry: registry}
}

// HandleWebSocket owns one connection's lifecycle: register in the presence
// registry, announce presence-online, keep the socket alive with ping/pong,
// and on exit unregister and announce presence-offline. Clients never push
// mutations over the socket; it is a server-to-client event stream only.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)

	h.registry.Register(userID, c)
	h.registry.Broadcast(presence.EventPresenceOnline, presence.PresencePayload{UserID: userID}, userID)

	defer func() {
		h.registry.Unregister(userID, c)
		// A reconnect supersedes this connection; only announce offline
		// when the user really has no connection left.
		if !h.registry.IsOnline(userID) {
			h.registry.Broadcast(presence.EventPresenceOffline, presence.PresencePayload{UserID: userID})
		}
	}()

	c.SetReadDeadline(time.Now().Add(pongTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	stop := make(chan struct{})
	defer close(stop)
	go h.pingLoop(c, userID, stop)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			log.Printf("WebSocket closed for user %d: %v", userID, err)
			return
		}
		// Inbound frames are ignored; mutations go through REST.
	}
}

func (h *WebSocketHandler) pingLoop(c *websocket.Conn, userID uint, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				log.Printf("Ping failed for user %d: %v", userID, err)
				return
			}
		}
	}
}
