package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chatrelay/internal/model"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(firstMessage string) (*model.Conversation, error) {
	now := time.Now()
	conversation := &model.Conversation{
		Title:       model.TitleFromMessage(firstMessage),
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := r.db.Create(conversation).Error; err != nil {
		return nil, fmt.Errorf("create conversation failed: %w", err)
	}
	return conversation, nil
}

func (r *ConversationRepository) GetByID(id uint) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.First(&conversation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation failed: %w", err)
	}
	return &conversation, nil
}

// List returns the most recently updated conversations with their message counts.
func (r *ConversationRepository) List(limit int) ([]model.ConversationSummary, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}

	var conversations []model.Conversation
	if err := r.db.Order("last_updated DESC").Order("id DESC").Limit(limit).Find(&conversations).Error; err != nil {
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}
	if len(conversations) == 0 {
		return []model.ConversationSummary{}, nil
	}

	ids := make([]uint, 0, len(conversations))
	for _, item := range conversations {
		ids = append(ids, item.ID)
	}

	var counts []struct {
		ConversationID uint
		Total          int64
	}
	if err := r.db.Model(&model.Message{}).
		Select("conversation_id, COUNT(*) AS total").
		Where("conversation_id IN ?", ids).
		Group("conversation_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("count messages failed: %w", err)
	}
	byConversation := make(map[uint]int64, len(counts))
	for _, item := range counts {
		byConversation[item.ConversationID] = item.Total
	}

	summaries := make([]model.ConversationSummary, 0, len(conversations))
	for _, item := range conversations {
		summaries = append(summaries, model.ConversationSummary{
			ID:           item.ID,
			Title:        item.Title,
			CreatedAt:    item.CreatedAt,
			LastUpdated:  item.LastUpdated,
			MessageCount: byConversation[item.ID],
		})
	}
	return summaries, nil
}

func (r *ConversationRepository) Rename(id uint, title string) error {
	err := r.db.Model(&model.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":        title,
			"last_updated": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("rename conversation failed: %w", err)
	}
	return nil
}

// UpdateSummary replaces the stored summary only when the new one covers more
// messages than the current one. It reports whether the row was updated; a
// summary of an older, shorter history is discarded.
func (r *ConversationRepository) UpdateSummary(id uint, summary string, messageCount int) (bool, error) {
	now := time.Now()
	result := r.db.Model(&model.Conversation{}).
		Where("id = ? AND summary_message_count < ?", id, messageCount).
		Updates(map[string]interface{}{
			"summary":               summary,
			"summary_message_count": messageCount,
			"summary_updated_at":    &now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("update conversation summary failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes the conversation's messages and then the conversation itself.
func (r *ConversationRepository) Delete(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Conversation{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete conversation failed: %w", err)
	}
	return nil
}
