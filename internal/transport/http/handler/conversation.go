package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatrelay/internal/app"
	"chatrelay/internal/model"
	"chatrelay/internal/repository"
	"chatrelay/internal/transport/http/response"
)

type ConversationHandler struct {
	conversationService *app.ConversationService
}

type RenameRequest struct {
	Title string `json:"title"`
}

func NewConversationHandler(conversationService *app.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func (h *ConversationHandler) List(c *gin.Context) {
	limit := repository.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > repository.MaxListLimit {
			response.Error(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	conversations, err := h.conversationService.List(limit)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "list conversations failed")
		return
	}
	c.JSON(http.StatusOK, conversations)
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	messages, err := h.conversationService.GetMessages(c.Request.Context(), conversationID)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "get messages failed")
		return
	}

	history := make([]model.ChatMessage, 0, len(messages))
	for _, message := range messages {
		history = append(history, model.ChatMessage{Role: message.Role, Content: message.Content})
	}
	c.JSON(http.StatusOK, history)
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	if err := h.conversationService.Delete(c.Request.Context(), conversationID); err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil)
}

func (h *ConversationHandler) Rename(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Title is required")
		return
	}

	if err := h.conversationService.Rename(conversationID, req.Title); err != nil {
		switch {
		case errors.Is(err, app.ErrTitleRequired):
			response.Error(c, http.StatusBadRequest, "Title is required")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, err.Error())
		}
		return
	}
	response.Success(c, nil)
}

func conversationIDParam(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		response.Error(c, http.StatusBadRequest, "invalid conversation id")
		return 0, false
	}
	return uint(id64), true
}
