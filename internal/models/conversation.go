package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation binds exactly two participants. The user1/user2 slots are an
// arbitrary storage order with no semantic difference; every accessor is
// symmetric. Each slot carries that participant's last-read pointer: the most
// recent message sent by the *other* participant that this participant has
// acknowledged. Pointers are advanced monotonically and never regress.
type Conversation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User1ID uint `gorm:"not null;index:idx_conv_pair" json:"user1_id"`
	User1   User `gorm:"foreignKey:User1ID" json:"-"`
	User2ID uint `gorm:"not null;index:idx_conv_pair" json:"user2_id"`
	User2   User `gorm:"foreignKey:User2ID" json:"-"`

	User1LastReadID *uint `json:"user1_last_read_id"`
	User2LastReadID *uint `json:"user2_last_read_id"`

	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages"`
}

func (c *Conversation) HasParticipant(userID uint) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// OtherParticipantID returns the counterpart of userID. The caller must have
// verified participation first.
func (c *Conversation) OtherParticipantID(userID uint) uint {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// LastReadID returns userID's own last-read pointer.
func (c *Conversation) LastReadID(userID uint) *uint {
	if c.User1ID == userID {
		return c.User1LastReadID
	}
	return c.User2LastReadID
}

// OtherLastReadID returns the counterpart's last-read pointer, i.e. the most
// recent message of userID's own that the other side has seen.
func (c *Conversation) OtherLastReadID(userID uint) *uint {
	if c.User1ID == userID {
		return c.User2LastReadID
	}
	return c.User1LastReadID
}

// Participant returns the loaded User record for userID, when preloaded.
func (c *Conversation) Participant(userID uint) *User {
	if c.User1ID == userID {
		return &c.User1
	}
	return &c.User2
}

// ConversationSummary is the derived, never-stored view of one conversation
// from a single viewer's perspective.
type ConversationSummary struct {
	ID                      uint              `json:"id"`
	OtherUser               UserResponse      `json:"other_user"`
	Messages                []MessageResponse `json:"messages"`
	LatestMessage           *MessageResponse  `json:"latest_message"`
	UnreadCount             int               `json:"unread_count"`
	OthersLatestReadMessage *MessageResponse  `json:"others_latest_read_message"`
	UsersLatestReadMessage  *MessageResponse  `json:"users_latest_read_message"`
}
