package handler

import (
	"net/http"

	"Taskora/internal/call"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CallHandler interface {
	IssueToken(c *gin.Context)
}

type callHandler struct {
	signer *call.TokenSigner
	logger *zap.Logger
}

func NewCallHandler(signer *call.TokenSigner, logger *zap.Logger) CallHandler {
	return &callHandler{
		signer: signer,
		logger: logger,
	}
}

type tokenRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
	UserID         string `json:"userId" binding:"required"`
	UserName       string `json:"userName"`
}

// IssueToken mints a room token for the conversation's call room. The
// room id is derived from the conversation so both parties land in the
// same room.
func (h *callHandler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := call.RoomID(req.ConversationID)
	token, err := h.signer.Mint(roomID, req.UserID, req.UserName)
	if err != nil {
		h.logger.Error("token mint failed",
			zap.String("room_id", roomID),
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue call token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomId": roomID,
		"token":  token,
	})
}
