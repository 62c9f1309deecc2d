package app

import (
	"context"

	"go.uber.org/zap"

	"chatrelay/internal/model"
	"chatrelay/internal/repository"
)

type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, conversationID uint, messages []model.Message) error
	Invalidate(ctx context.Context, conversationID uint) error
	IsDirty(ctx context.Context, conversationID uint) (bool, error)
}

type ConversationService struct {
	conversations *repository.ConversationRepository
	messages      *repository.MessageRepository
	historyCache  HistoryCache
	logger        *zap.Logger
}

// NewConversationService wires the read/rename/delete operations. historyCache
// may be nil.
func NewConversationService(
	conversations *repository.ConversationRepository,
	messages *repository.MessageRepository,
	historyCache HistoryCache,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		historyCache:  historyCache,
		logger:        logger,
	}
}

func (s *ConversationService) List(limit int) ([]model.ConversationSummary, error) {
	return s.conversations.List(limit)
}

// GetMessages returns the ordered history; an unknown conversation yields an
// empty list.
func (s *ConversationService) GetMessages(ctx context.Context, conversationID uint) ([]model.Message, error) {
	if conversationID == 0 {
		return nil, ErrInvalidInput
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, conversationID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, conversationID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messages.ListByConversationID(conversationID)
	if err != nil {
		return nil, err
	}

	if s.historyCache != nil {
		if dirty, err := s.historyCache.IsDirty(ctx, conversationID); err == nil && !dirty {
			if err := s.historyCache.SetHistory(ctx, conversationID, messages); err != nil {
				s.logger.Warn("cache history failed", zap.Uint("conversation_id", conversationID), zap.Error(err))
			}
		}
	}
	return messages, nil
}

// Rename stores title verbatim. Only an empty title is rejected; renaming an
// unknown conversation is a no-op.
func (s *ConversationService) Rename(conversationID uint, title string) error {
	if conversationID == 0 {
		return ErrInvalidInput
	}
	if title == "" {
		return ErrTitleRequired
	}
	return s.conversations.Rename(conversationID, title)
}

// Delete is idempotent: deleting an unknown conversation succeeds.
func (s *ConversationService) Delete(ctx context.Context, conversationID uint) error {
	if conversationID == 0 {
		return ErrInvalidInput
	}
	if err := s.conversations.Delete(conversationID); err != nil {
		return err
	}
	invalidateHistory(ctx, s.historyCache, s.logger, conversationID)
	return nil
}

func invalidateHistory(ctx context.Context, historyCache HistoryCache, logger *zap.Logger, conversationID uint) {
	if historyCache == nil {
		return
	}
	if err := historyCache.Invalidate(ctx, conversationID); err != nil {
		logger.Warn("invalidate history cache failed", zap.Uint("conversation_id", conversationID), zap.Error(err))
	}
}
