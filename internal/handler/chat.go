package handler

import (
	"net/http"

	"backend/internal/models"
	"backend/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler interface {
	GetMyChats(c *gin.Context)
	GetChatWith(c *gin.Context)
	SendMessage(c *gin.Context)
}

type chatHandler struct {
	chatRepo repository.ChatRepository
	logger   *zap.Logger
}

func NewChatHandler(chatRepo repository.ChatRepository, logger *zap.Logger) ChatHandler {
	return &chatHandler{chatRepo: chatRepo, logger: logger}
}

// GetMyChats handles GET /api/chats
func (h *chatHandler) GetMyChats(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	chats, err := h.chatRepo.GetUserChats(userID)
	if err != nil {
		h.logger.Error("Failed to get chats", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetChatWith handles GET /api/chats/with/:id — the conversation between
// the caller and another user, messages included. Request-notification
// messages surface the live request status.
func (h *chatHandler) GetChatWith(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	otherID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	chat, err := h.chatRepo.GetBetweenUsers(userID, otherID)
	if err != nil {
		h.logger.Error("Failed to get chat", zap.Int64("user_id", userID), zap.Int64("other_id", otherID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve chat"})
		return
	}
	if chat == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}

	messages, err := h.chatRepo.GetMessages(chat.ID)
	if err != nil {
		h.logger.Error("Failed to get messages", zap.Int64("chat_id", chat.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}
	chat.Messages = messages

	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// SendMessage handles POST /api/chats/with/:id — appends a text message,
// creating the conversation when it does not exist yet.
func (h *chatHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	otherID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message := &models.Message{
		SenderID:    userID,
		Body:        req.Body,
		MessageType: models.MessageTypeText,
	}

	chat, err := h.chatRepo.AppendMessage(userID, otherID, message)
	if err != nil {
		h.logger.Error("Failed to send message", zap.Int64("user_id", userID), zap.Int64("other_id", otherID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"chat_id": chat.ID,
		"message": message,
	})
}
