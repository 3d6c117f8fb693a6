package chatclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"Taskora/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyDraft  = errors.New("draft is empty")
	ErrNoRecipient = errors.New("conversation has no other participant")
)

// Sender runs the optimistic send pipeline: the message appears in the
// stream immediately under a provisional id, the draft clears, and a
// failed delivery removes the provisional entry and puts the draft
// back. Successful sends are confirmed by the next snapshot, which
// replaces the provisional entry via its client token, and refresh the
// attached list store's preview so the conversation list reorders
// without waiting for a reload.
type Sender struct {
	backend Backend
	stream  *StreamController
	list    *ListStore
	userID  string
	logger  *zap.Logger

	mu     sync.Mutex
	drafts map[string]string
	typing map[string]bool
}

func NewSender(backend Backend, stream *StreamController, list *ListStore, userID string, logger *zap.Logger) *Sender {
	return &Sender{
		backend: backend,
		stream:  stream,
		list:    list,
		userID:  userID,
		logger:  logger,
		drafts:  make(map[string]string),
		typing:  make(map[string]bool),
	}
}

// SetDraft stores the in-progress text for a conversation.
func (s *Sender) SetDraft(conversationID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if text == "" {
		delete(s.drafts, conversationID)
		return
	}
	s.drafts[conversationID] = text
}

// Draft returns the stored draft for a conversation.
func (s *Sender) Draft(conversationID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[conversationID]
}

// SetTyping tracks whether the user is composing in a conversation.
func (s *Sender) SetTyping(conversationID string, typing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !typing {
		delete(s.typing, conversationID)
		return
	}
	s.typing[conversationID] = true
}

// Typing reports the composing state for a conversation.
func (s *Sender) Typing(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing[conversationID]
}

// Send delivers the current draft to the other participant of conv.
// The draft clears as soon as the provisional entry is appended; any
// failure after that point restores it.
func (s *Sender) Send(ctx context.Context, conv *model.Conversation) (*model.Message, error) {
	conversationID := conv.ID.Hex()

	s.mu.Lock()
	draft := s.drafts[conversationID]
	s.mu.Unlock()

	content := strings.TrimSpace(draft)
	if content == "" {
		return nil, ErrEmptyDraft
	}

	provisional := model.Message{
		MessageID:      fmt.Sprintf("%s%d", model.ProvisionalPrefix, time.Now().UnixNano()),
		ClientToken:    uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       s.userID,
		Content:        content,
		Type:           model.MessageTypeText,
		SentAt:         time.Now(),
	}

	s.stream.AppendProvisional(provisional)
	s.SetDraft(conversationID, "")
	s.SetTyping(conversationID, false)

	recipientID := conv.OtherParticipant(s.userID)
	if recipientID == "" {
		s.rollback(conversationID, provisional.MessageID, draft)
		return nil, ErrNoRecipient
	}

	sent, err := s.backend.SendMessage(ctx, SendRequest{
		RecipientID: recipientID,
		Content:     content,
		ClientToken: provisional.ClientToken,
		JobID:       conv.JobID,
		JobTitle:    conv.JobTitle,
	})
	if err != nil {
		s.logger.Warn("send failed, rolling back",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		s.rollback(conversationID, provisional.MessageID, draft)
		return nil, err
	}

	if s.list != nil {
		preview := *conv
		preview.LastMessage = &model.LastMessage{
			Content:  sent.Content,
			SenderID: s.userID,
			SentAt:   sent.SentAt,
		}
		preview.LastMessageAt = sent.SentAt
		s.list.Upsert(preview)
	}

	return sent, nil
}

// rollback removes the provisional entry and restores the draft so the
// user can retry without retyping.
func (s *Sender) rollback(conversationID, provisionalID, draft string) {
	s.stream.RemoveProvisional(provisionalID)
	s.SetDraft(conversationID, draft)
}
