package presence

import (
	"encoding/json"

	"github.com/Dylan-Floyd/effe81/internal/models"
)

// Push event vocabulary. Delivery is best-effort, at-most-once per connection
// epoch; a reconnect does not replay missed events. Clients recover by
// refetching the conversation snapshot.
const (
	EventPresenceOnline  = "presence-online"
	EventPresenceOffline = "presence-offline"
	EventNewMessage      = "new-message"
	EventReadReceipt     = "read-receipt"
)

// Envelope is the wire wrapper around every push event.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	UserID uint `json:"user_id"`
}

// NewMessagePayload announces a persisted message. Sender is attached only
// when this is the first message of a brand-new conversation from the
// recipient's perspective, so the client can synthesize the entry.
type NewMessagePayload struct {
	Message models.MessageResponse `json:"message"`
	Sender  *models.UserResponse   `json:"sender,omitempty"`
}

// ReadReceiptPayload reports one or more messages marked read. The bulk path
// fills ReadMessageIDs plus LatestReadID; the single-message path fills
// ReadMessageID.
type ReadReceiptPayload struct {
	ConversationID uint   `json:"conversation_id"`
	ReadMessageID  *uint  `json:"read_message_id,omitempty"`
	ReadMessageIDs []uint `json:"read_message_ids,omitempty"`
	LatestReadID   *uint  `json:"latest_read_id,omitempty"`
}
