package repository

import (
	"github.com/Dylan-Floyd/effe81/internal/models"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByID(id uint) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	SearchUsers(query string, excludeID uint, limit int) ([]models.User, error)
}

// ConversationRepositoryInterface defines the contract for conversation
// repository operations. FindBetween and FindLatestFrom return (nil, nil)
// when no row exists.
type ConversationRepositoryInterface interface {
	Create(conversation *models.Conversation) error
	FindByID(id uint) (*models.Conversation, error)
	FindBetween(userA, userB uint) (*models.Conversation, error)
	ListForUser(userID uint) ([]models.Conversation, error)
	// SetLastRead advances userID's last-read pointer to messageID.
	// The update is monotonic: a smaller messageID never overwrites a
	// larger one.
	SetLastRead(conversationID, userID, messageID uint) error
}

// MessageRepositoryInterface defines the contract for message repository
// operations
type MessageRepositoryInterface interface {
	Create(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	ListByConversation(conversationID uint) ([]models.Message, error)
	// MarkConversationRead flips was_read on every unread message in the
	// conversation sent by senderID, returning the IDs it flipped.
	// Repeated calls return an empty slice.
	MarkConversationRead(conversationID, senderID uint) ([]uint, error)
	MarkAsRead(messageID uint) error
	FindLatestFrom(conversationID, senderID uint) (*models.Message, error)
}
