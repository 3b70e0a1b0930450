package presence

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// Conn is the minimal write surface the registry needs from a connection.
// *websocket.Conn satisfies it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
}

// client pairs a connection with its write lock. Websocket connections
// forbid concurrent writers, and pushes originate from independent units of
// work (REST handlers, connection lifecycles), so every write to one
// connection goes through this mutex.
type client struct {
	mu   sync.Mutex
	conn Conn
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Registry is the process-wide mapping from user ID to an active real-time
// connection. It is constructed once at startup and shared by reference; it
// carries no persistence and is rebuilt empty on restart.
//
// Register/Unregister/IsOnline/SendTo race across concurrent connection
// lifecycles, so every map mutation goes through one mutex, and each
// connection additionally carries its own write lock.
type Registry struct {
	mu      sync.RWMutex
	clients map[uint]*client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[uint]*client)}
}

// Register records that userID is reachable at conn. A second registration
// for the same user silently supersedes the first (reconnect); there is no
// multi-connection fan-out.
func (r *Registry) Register(userID uint, conn Conn) {
	r.mu.Lock()
	r.clients[userID] = &client{conn: conn}
	count := len(r.clients)
	r.mu.Unlock()
	log.Printf("User %d connected (online: %d)", userID, count)
}

// Unregister removes the mapping. Unregistering an absent user is a no-op.
// If conn is non-nil the mapping is only removed while it still points at
// that connection, so a stale disconnect cannot evict a fresh reconnect.
func (r *Registry) Unregister(userID uint, conn Conn) {
	r.mu.Lock()
	current, exists := r.clients[userID]
	if exists && (conn == nil || current.conn == conn) {
		delete(r.clients, userID)
	}
	count := len(r.clients)
	r.mu.Unlock()
	if exists {
		log.Printf("User %d disconnected (online: %d)", userID, count)
	}
}

func (r *Registry) IsOnline(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.clients[userID]
	return exists
}

// SendTo delivers one event to userID. Offline recipients are a silent no-op:
// pushes are hints, the authoritative state is always re-derivable from a
// full fetch. A failed write evicts the dead connection.
func (r *Registry) SendTo(userID uint, event string, payload interface{}) {
	r.mu.RLock()
	cl, exists := r.clients[userID]
	r.mu.RUnlock()
	if !exists {
		return
	}

	data, err := marshalEnvelope(event, payload)
	if err != nil {
		log.Printf("Error marshaling %s event for user %d: %v", event, userID, err)
		return
	}

	if err := cl.write(data); err != nil {
		log.Printf("Error sending %s to user %d: %v", event, userID, err)
		r.Unregister(userID, cl.conn)
	}
}

// Broadcast delivers one event to every connected user except those in skip.
func (r *Registry) Broadcast(event string, payload interface{}, skip ...uint) {
	data, err := marshalEnvelope(event, payload)
	if err != nil {
		log.Printf("Error marshaling %s broadcast: %v", event, err)
		return
	}

	r.mu.RLock()
	clients := make(map[uint]*client, len(r.clients))
	for id, cl := range r.clients {
		clients[id] = cl
	}
	r.mu.RUnlock()

	for userID, cl := range clients {
		if skipped(skip, userID) {
			continue
		}
		if err := cl.write(data); err != nil {
			log.Printf("Error broadcasting %s to user %d: %v", event, userID, err)
			r.Unregister(userID, cl.conn)
		}
	}
}

// OnlineUserIDs returns the currently connected user IDs.
func (r *Registry) OnlineUserIDs() []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func marshalEnvelope(event string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: event, Payload: raw})
}

func skipped(skip []uint, userID uint) bool {
	for _, id := range skip {
		if id == userID {
			return true
		}
	}
	return false
}
