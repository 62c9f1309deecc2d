package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chatrelay/internal/ai"
	"chatrelay/internal/conversation"
	"chatrelay/internal/model"
	"chatrelay/internal/repository"
)

// SummaryDispatcher schedules summarization of a conversation's history.
type SummaryDispatcher interface {
	Dispatch(ctx context.Context, task model.SummaryTask) error
}

type ChatService struct {
	conversations *repository.ConversationRepository
	messages      *repository.MessageRepository
	manager       *conversation.Manager
	completer     ai.Completer
	dispatcher    SummaryDispatcher
	historyCache  HistoryCache
	timeout       time.Duration
	logger        *zap.Logger
}

type ChatInput struct {
	Messages       []model.ChatMessage
	ConversationID uint
}

type ChatResult struct {
	Response       string
	ConversationID uint
	// SummaryDispatched is set when the full history was over budget and a
	// summary was requested for later turns.
	SummaryDispatched bool
}

func NewChatService(
	conversations *repository.ConversationRepository,
	messages *repository.MessageRepository,
	manager *conversation.Manager,
	completer ai.Completer,
	dispatcher SummaryDispatcher,
	historyCache HistoryCache,
	timeout time.Duration,
	logger *zap.Logger,
) *ChatService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		manager:       manager,
		completer:     completer,
		dispatcher:    dispatcher,
		historyCache:  historyCache,
		timeout:       timeout,
		logger:        logger,
	}
}

// Chat runs one turn: create the conversation if needed, compact the history
// with the conversation's stored summary, ask the completion API, and persist
// the last inbound message together with the reply.
func (s *ChatService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	conversationID := input.ConversationID
	messages := input.Messages

	if conversationID == 0 && len(messages) > 0 {
		created, err := s.conversations.Create(messages[len(messages)-1].Content)
		if err != nil {
			return nil, err
		}
		conversationID = created.ID
	}

	summary, err := s.storedSummary(conversationID)
	if err != nil {
		return nil, err
	}

	prepared := s.manager.PrepareMessages(messages, summary)

	result := &ChatResult{ConversationID: conversationID}
	if conversationID != 0 && s.manager.ShouldSummarize(messages) {
		result.SummaryDispatched = s.dispatchSummary(ctx, conversationID, messages)
	}

	completeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	reply, err := s.completer.Complete(completeCtx, prepared)
	if err != nil {
		return nil, err
	}
	result.Response = reply

	if conversationID != 0 && len(messages) > 0 {
		last := messages[len(messages)-1]
		if _, err := s.messages.Create(conversationID, last.Role, last.Content); err != nil {
			return nil, err
		}
		if _, err := s.messages.Create(conversationID, "assistant", reply); err != nil {
			return nil, err
		}
		invalidateHistory(ctx, s.historyCache, s.logger, conversationID)
	}

	return result, nil
}

func (s *ChatService) storedSummary(conversationID uint) (string, error) {
	if conversationID == 0 {
		return "", nil
	}
	stored, err := s.conversations.GetByID(conversationID)
	if err != nil {
		return "", err
	}
	if stored == nil {
		return "", nil
	}
	return stored.Summary, nil
}

func (s *ChatService) dispatchSummary(ctx context.Context, conversationID uint, messages []model.ChatMessage) bool {
	if s.dispatcher == nil {
		return false
	}

	task := model.SummaryTask{
		ConversationID: conversationID,
		Messages:       append([]model.ChatMessage(nil), messages...),
	}
	if err := s.dispatcher.Dispatch(ctx, task); err != nil {
		s.logger.Warn("summary dispatch failed",
			zap.Uint("conversation_id", conversationID),
			zap.Error(err),
		)
		return false
	}
	return true
}
