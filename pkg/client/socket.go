package client

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dylan-Floyd/effe81/internal/presence"
)

// Socket consumes the server's push stream and folds every event into the
// Store. The stream is receive-only; all mutations go through the REST API.
type Socket struct {
	store *Store
	conn  *websocket.Conn
}

// Dial connects to the /ws endpoint with the bearer token from login.
// url is the websocket form of the server address, e.g. ws://host:8080/ws.
func Dial(ctx context.Context, url, token string, store *Store) (*Socket, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	if resp != nil {
		resp.Body.Close()
	}

	return &Socket{store: store, conn: conn}, nil
}

// Run reads events until the connection drops, then returns the read error.
// Pushes are at-most-once: after a drop the caller must refetch the snapshot
// before (or instead of) reconnecting, because missed events are not replayed.
func (s *Socket) Run() error {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}
		s.dispatch(data)
	}
}

func (s *Socket) Close() error {
	return s.conn.Close()
}

func (s *Socket) dispatch(data []byte) {
	var envelope presence.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Printf("malformed push envelope: %v", err)
		return
	}

	switch envelope.Type {
	case presence.EventNewMessage:
		var p presence.NewMessagePayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			log.Printf("malformed new-message payload: %v", err)
			return
		}
		s.store.ApplyNewMessage(p)

	case presence.EventReadReceipt:
		var p presence.ReadReceiptPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			log.Printf("malformed read-receipt payload: %v", err)
			return
		}
		s.store.ApplyReadReceipt(p)

	case presence.EventPresenceOnline, presence.EventPresenceOffline:
		var p presence.PresencePayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			log.Printf("malformed presence payload: %v", err)
			return
		}
		s.store.ApplyPresence(p.UserID, envelope.Type == presence.EventPresenceOnline)

	default:
		// Unknown event types are ignored for forward compatibility.
	}
}
