package repository

import (
	"errors"

	"github.com/Dylan-Floyd/effe81/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) ListByConversation(conversationID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// MarkConversationRead flips every unread message from senderID in the
// conversation and reports which IDs changed. The select-then-update pair
// runs in one transaction so a concurrent send cannot be half-counted.
func (r *MessageRepository) MarkConversationRead(conversationID, senderID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id = ? AND was_read = ?", conversationID, senderID, false).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&models.Message{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"was_read": true,
				"read_at":  gorm.Expr("NOW()"),
			}).Error
	})
	return ids, err
}

func (r *MessageRepository) MarkAsRead(messageID uint) error {
	return r.db.Model(&models.Message{}).Where("id = ?", messageID).
		Updates(map[string]interface{}{
			"was_read": true,
			"read_at":  gorm.Expr("NOW()"),
		}).Error
}

// FindLatestFrom returns the most recent message senderID sent in the
// conversation, or (nil, nil) when they have sent none.
func (r *MessageRepository) FindLatestFrom(conversationID, senderID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("conversation_id = ? AND sender_id = ?", conversationID, senderID).
		Order("created_at DESC, id DESC").
		First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}
