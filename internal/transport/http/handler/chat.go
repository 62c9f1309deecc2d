package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/internal/app"
	"chatrelay/internal/model"
	"chatrelay/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatRequest struct {
	Messages       []model.ChatMessage `json:"messages"`
	ConversationID *uint               `json:"conversation_id"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ChatError(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	input := app.ChatInput{Messages: req.Messages}
	if req.ConversationID != nil {
		input.ConversationID = *req.ConversationID
	}

	result, err := h.chatService.Chat(c.Request.Context(), input)
	if err != nil {
		_ = c.Error(err)
		response.ChatError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var conversationID *uint
	if result.ConversationID != 0 {
		conversationID = &result.ConversationID
	}
	response.Success(c, gin.H{
		"response":        result.Response,
		"conversation_id": conversationID,
	})
}
