package handler

import (
	"errors"
	"net/http"

	"Taskora/internal/model"
	"Taskora/internal/repo"
	"Taskora/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler interface {
	UpsertUser(c *gin.Context)
}

type userHandler struct {
	service service.ChatService
	logger  *zap.Logger
}

func NewUserHandler(svc service.ChatService, logger *zap.Logger) UserHandler {
	return &userHandler{
		service: svc,
		logger:  logger,
	}
}

type upsertUserRequest struct {
	UserID      string `json:"userId" binding:"required"`
	DisplayName string `json:"displayName" binding:"required"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar"`
}

// UpsertUser creates or refreshes a profile so new conversations can
// denormalize the display name.
func (h *userHandler) UpsertUser(c *gin.Context) {
	var req upsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &model.User{
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Avatar:      req.Avatar,
	}
	if err := h.service.SaveUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, repo.ErrInvalidUserID) || errors.Is(err, service.ErrEmptyDisplayName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("user upsert failed", zap.String("user_id", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
