package service

import (
	"context"
	"errors"
	"strings"

	"Taskora/internal/model"
	"Taskora/internal/repo"

	"go.uber.org/zap"
)

var (
	ErrEmptyContent     = errors.New("message content cannot be empty")
	ErrEmptySender      = errors.New("sender ID cannot be empty")
	ErrEmptyRecipient   = errors.New("recipient ID cannot be empty")
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
	ErrEmptyDisplayName = errors.New("display name cannot be empty")
)

// SendRequest carries everything needed to deliver one message. The
// conversation is resolved (or created) from the sender/recipient pair.
type SendRequest struct {
	SenderID    string
	RecipientID string
	Content     string
	ClientToken string
	ReplyTo     string
	JobID       string
	JobTitle    string
}

// ChatService is the application layer between HTTP handlers and the
// repositories.
type ChatService interface {
	Conversations(ctx context.Context, userID, query string) ([]model.Conversation, error)
	ConversationByID(ctx context.Context, conversationID string) (*model.Conversation, error)
	CreateOrGetConversation(ctx context.Context, initiatorID, recipientID, jobID, jobTitle string) (*model.Conversation, error)
	SendMessage(ctx context.Context, req SendRequest) (*model.Conversation, *model.Message, error)
	MarkAllRead(ctx context.Context, conversationID, readerID string) error
	SetFlag(ctx context.Context, conversationID, flag string, value bool) error
	AddReaction(ctx context.Context, messageID, emoji, userID string) error
	MessageSnapshot(ctx context.Context, conversationID string) ([]model.Message, error)
	SaveUser(ctx context.Context, user *model.User) error
}

type chatService struct {
	conversations repo.ConversationRepository
	messages      repo.MessageRepository
	users         repo.UserRepository
	logger        *zap.Logger
}

func NewChatService(
	conversations repo.ConversationRepository,
	messages repo.MessageRepository,
	users repo.UserRepository,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		logger:        logger,
	}
}

// Conversations lists userID's conversations, narrowed server-side when
// a query is given.
func (s *chatService) Conversations(ctx context.Context, userID, query string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, repo.ErrInvalidUserID
	}
	if strings.TrimSpace(query) != "" {
		return s.conversations.Search(ctx, userID, query)
	}
	return s.conversations.ByUser(ctx, userID)
}

func (s *chatService) ConversationByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	return s.conversations.ByID(ctx, conversationID)
}

// CreateOrGetConversation resolves the conversation for a participant
// pair, creating it on first contact. Display names are denormalized
// onto the document when known; absent entries are synthesized
// client-side.
func (s *chatService) CreateOrGetConversation(ctx context.Context, initiatorID, recipientID, jobID, jobTitle string) (*model.Conversation, error) {
	if initiatorID == "" {
		return nil, ErrEmptySender
	}
	if recipientID == "" {
		return nil, ErrEmptyRecipient
	}
	if initiatorID == recipientID {
		return nil, ErrSelfConversation
	}

	names := make(map[string]string)
	for _, id := range []string{initiatorID, recipientID} {
		user, err := s.users.GetUser(ctx, id)
		if err != nil {
			s.logger.Warn("participant lookup failed", zap.String("user_id", id), zap.Error(err))
			continue
		}
		if user != nil && user.DisplayName != "" {
			names[id] = user.DisplayName
		}
	}

	conv := &model.Conversation{
		ParticipantIDs:   []string{initiatorID, recipientID},
		ParticipantNames: names,
		JobID:            jobID,
		JobTitle:         jobTitle,
	}
	return s.conversations.CreateOrGet(ctx, conv)
}

// SendMessage validates, resolves the conversation, persists the message
// and updates the denormalized preview. Returns both so the caller can
// push a fresh snapshot to subscribers.
func (s *chatService) SendMessage(ctx context.Context, req SendRequest) (*model.Conversation, *model.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, nil, ErrEmptyContent
	}
	if req.SenderID == "" {
		return nil, nil, ErrEmptySender
	}
	if req.RecipientID == "" {
		return nil, nil, ErrEmptyRecipient
	}

	conv, err := s.CreateOrGetConversation(ctx, req.SenderID, req.RecipientID, req.JobID, req.JobTitle)
	if err != nil {
		return nil, nil, err
	}

	msg := &model.Message{
		ConversationID: conv.ID.Hex(),
		SenderID:       req.SenderID,
		Content:        content,
		ClientToken:    req.ClientToken,
		ReplyTo:        req.ReplyTo,
	}
	saved, err := s.messages.Insert(ctx, msg)
	if err != nil {
		return nil, nil, err
	}

	lm := model.LastMessage{
		Content:  saved.Content,
		SenderID: saved.SenderID,
		SentAt:   saved.SentAt,
		Read:     false,
	}
	if err := s.conversations.ApplyLastMessage(ctx, conv.ID.Hex(), lm); err != nil {
		// The message is durable; a stale preview self-heals on the
		// next send. Log and keep going.
		s.logger.Warn("last message update failed",
			zap.String("conversation_id", conv.ID.Hex()),
			zap.Error(err),
		)
	}
	conv.LastMessage = &lm
	conv.LastMessageAt = saved.SentAt

	return conv, saved, nil
}

func (s *chatService) MarkAllRead(ctx context.Context, conversationID, readerID string) error {
	if readerID == "" {
		return repo.ErrInvalidUserID
	}
	if _, err := s.messages.MarkAllRead(ctx, conversationID, readerID); err != nil {
		return err
	}
	return s.conversations.ResetUnread(ctx, conversationID, readerID)
}

func (s *chatService) SetFlag(ctx context.Context, conversationID, flag string, value bool) error {
	return s.conversations.SetFlag(ctx, conversationID, flag, value)
}

func (s *chatService) AddReaction(ctx context.Context, messageID, emoji, userID string) error {
	return s.messages.AddReaction(ctx, messageID, emoji, userID)
}

func (s *chatService) MessageSnapshot(ctx context.Context, conversationID string) ([]model.Message, error) {
	return s.messages.Snapshot(ctx, conversationID)
}

// SaveUser creates or refreshes the caller's profile. Display names
// stored here are what conversation documents denormalize on creation.
func (s *chatService) SaveUser(ctx context.Context, user *model.User) error {
	if user == nil || user.UserID == "" {
		return repo.ErrInvalidUserID
	}
	if strings.TrimSpace(user.DisplayName) == "" {
		return ErrEmptyDisplayName
	}
	return s.users.Upsert(ctx, user)
}
