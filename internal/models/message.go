package models

import (
	"time"

	"gorm.io/gorm"
)

// Message belongs to exactly one conversation. WasRead transitions
// false -> true exactly once and only the recipient may flip it.
// Within a conversation messages are ordered by (created_at, id);
// the id is the stable tie-breaker when timestamps collide.
type Message struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// ClientID is a client-generated UUID used to deduplicate
	// push deliveries and retried sends.
	ClientID string `gorm:"type:varchar(36);uniqueIndex:idx_client_sender" json:"client_id"`

	ConversationID uint `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint `gorm:"not null;uniqueIndex:idx_client_sender;index" json:"sender_id"`
	Sender         User `gorm:"foreignKey:SenderID" json:"-"`

	Text string `gorm:"type:text;not null" json:"text"`

	WasRead bool       `gorm:"default:false" json:"was_read"`
	ReadAt  *time.Time `json:"read_at"`
}

type MessageResponse struct {
	ID             uint      `json:"id"`
	ClientID       string    `json:"client_id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       uint      `json:"sender_id"`
	Text           string    `json:"text"`
	WasRead        bool      `json:"was_read"`
	CreatedAt      time.Time `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ClientID:       m.ClientID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		WasRead:        m.WasRead,
		CreatedAt:      m.CreatedAt,
	}
}
