package handler

import (
	"errors"
	"net/http"

	"Taskora/internal/hub"
	"Taskora/internal/repo"
	"Taskora/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler interface {
	GetConversations(c *gin.Context)
	CreateConversation(c *gin.Context)
	GetConversation(c *gin.Context)
	GetMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	MarkAllRead(c *gin.Context)
	SetFlag(c *gin.Context)
	AddReaction(c *gin.Context)
}

type chatHandler struct {
	service service.ChatService
	hub     *hub.Hub
	logger  *zap.Logger
}

func NewChatHandler(svc service.ChatService, h *hub.Hub, logger *zap.Logger) ChatHandler {
	return &chatHandler{
		service: svc,
		hub:     h,
		logger:  logger,
	}
}

func (h *chatHandler) GetConversations(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	conversations, err := h.service.Conversations(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		h.logger.Error("list conversations failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

type createConversationRequest struct {
	UserID      string `json:"userId" binding:"required"`
	RecipientID string `json:"recipientId" binding:"required"`
	JobID       string `json:"jobId"`
	JobTitle    string `json:"jobTitle"`
}

func (h *chatHandler) CreateConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.service.CreateOrGetConversation(c.Request.Context(), req.UserID, req.RecipientID, req.JobID, req.JobTitle)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("create conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

func (h *chatHandler) GetConversation(c *gin.Context) {
	conversationID := c.Param("conversationId")

	conv, err := h.service.ConversationByID(c.Request.Context(), conversationID)
	if err != nil {
		h.logger.Error("get conversation failed", zap.String("conversation_id", conversationID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get conversation"})
		return
	}
	if conv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

func (h *chatHandler) GetMessages(c *gin.Context) {
	conversationID := c.Param("conversationId")

	msgs, err := h.service.MessageSnapshot(c.Request.Context(), conversationID)
	if err != nil {
		h.logger.Error("get messages failed", zap.String("conversation_id", conversationID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type sendMessageRequest struct {
	SenderID    string `json:"senderId" binding:"required"`
	RecipientID string `json:"recipientId" binding:"required"`
	Content     string `json:"content" binding:"required"`
	ClientToken string `json:"clientToken"`
	ReplyTo     string `json:"replyTo"`
	JobID       string `json:"jobId"`
	JobTitle    string `json:"jobTitle"`
}

func (h *chatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, msg, err := h.service.SendMessage(c.Request.Context(), service.SendRequest{
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
		ClientToken: req.ClientToken,
		ReplyTo:     req.ReplyTo,
		JobID:       req.JobID,
		JobTitle:    req.JobTitle,
	})
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("send message failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	h.pushSnapshot(c, conv.ID.Hex())

	c.JSON(http.StatusOK, gin.H{
		"conversation": conv,
		"message":      msg,
	})
}

type markReadRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *chatHandler) MarkAllRead(c *gin.Context) {
	conversationID := c.Param("conversationId")

	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.MarkAllRead(c.Request.Context(), conversationID, req.UserID); err != nil {
		h.logger.Error("mark all read failed",
			zap.String("conversation_id", conversationID),
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark messages read"})
		return
	}

	h.pushSnapshot(c, conversationID)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type setFlagRequest struct {
	Flag  string `json:"flag" binding:"required"`
	Value *bool  `json:"value" binding:"required"`
}

func (h *chatHandler) SetFlag(c *gin.Context) {
	conversationID := c.Param("conversationId")

	var req setFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var flag string
	switch req.Flag {
	case "pinned":
		flag = repo.FlagPinned
	case "archived":
		flag = repo.FlagArchived
	case "muted":
		flag = repo.FlagMuted
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "flag must be pinned, archived or muted"})
		return
	}

	if err := h.service.SetFlag(c.Request.Context(), conversationID, flag, *req.Value); err != nil {
		if errors.Is(err, repo.ErrUnknownFlag) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("set flag failed", zap.String("conversation_id", conversationID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type addReactionRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Emoji          string `json:"emoji" binding:"required"`
	UserID         string `json:"userId" binding:"required"`
}

func (h *chatHandler) AddReaction(c *gin.Context) {
	messageID := c.Param("messageId")

	var req addReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.AddReaction(c.Request.Context(), messageID, req.Emoji, req.UserID); err != nil {
		h.logger.Error("add reaction failed", zap.String("message_id", messageID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add reaction"})
		return
	}

	h.pushSnapshot(c, req.ConversationID)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// pushSnapshot fans the fresh message list out to subscribers. Push
// failures never fail the HTTP request; the write already happened.
func (h *chatHandler) pushSnapshot(c *gin.Context, conversationID string) {
	msgs, err := h.service.MessageSnapshot(c.Request.Context(), conversationID)
	if err != nil {
		h.logger.Warn("snapshot fetch for push failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return
	}
	h.hub.PushSnapshot(conversationID, msgs)
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyContent) ||
		errors.Is(err, service.ErrEmptySender) ||
		errors.Is(err, service.ErrEmptyRecipient) ||
		errors.Is(err, service.ErrSelfConversation) ||
		errors.Is(err, repo.ErrInvalidUserID) ||
		errors.Is(err, repo.ErrInvalidConversationID)
}
