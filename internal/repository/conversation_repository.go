package repository

import (
	"errors"

	"github.com/Dylan-Floyd/effe81/internal/models"
	"gorm.io/gorm"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(conversation *models.Conversation) error {
	return r.db.Create(conversation).Error
}

func (r *ConversationRepository) FindByID(id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.First(&conversation, id).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// FindBetween looks up the conversation bound to the given pair regardless of
// which slot either user landed in. Returns (nil, nil) when none exists.
func (r *ConversationRepository) FindBetween(userA, userB uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.Where(
		"(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)",
		userA, userB, userB, userA,
	).First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepository) ListForUser(userID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.
		Preload("User1").
		Preload("User2").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Find(&conversations).Error
	return conversations, err
}

// SetLastRead advances userID's last-read pointer. GREATEST keeps the update
// monotonic under concurrent or reordered acknowledgements.
func (r *ConversationRepository) SetLastRead(conversationID, userID, messageID uint) error {
	res := r.db.Model(&models.Conversation{}).
		Where("id = ? AND user1_id = ?", conversationID, userID).
		Update("user1_last_read_id", gorm.Expr("GREATEST(COALESCE(user1_last_read_id, 0), ?)", messageID))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	res = r.db.Model(&models.Conversation{}).
		Where("id = ? AND user2_id = ?", conversationID, userID).
		Update("user2_last_read_id", gorm.Expr("GREATEST(COALESCE(user2_last_read_id, 0), ?)", messageID))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
