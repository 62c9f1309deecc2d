package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"chatrelay/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create stores one message and bumps the owning conversation's last_updated.
// The conversation is not required to exist.
func (r *MessageRepository) Create(conversationID uint, role, content string) (*model.Message, error) {
	now := time.Now()
	message := &model.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ?", conversationID).
			Update("last_updated", now).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create message failed: %w", err)
	}
	return message, nil
}

func (r *MessageRepository) ListByConversationID(conversationID uint) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	if err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) CountByConversationID(conversationID uint) (int64, error) {
	var total int64
	if err := r.db.Model(&model.Message{}).Where("conversation_id = ?", conversationID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count messages failed: %w", err)
	}
	return total, nil
}
