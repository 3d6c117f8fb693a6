package chatclient

import (
	"context"
	"sort"
	"strings"
	"sync"

	"Taskora/internal/model"

	"go.uber.org/zap"
)

// ListStore caches the user's conversation list and serves filtered,
// sorted views of it. The backend is the source of truth; the store
// diverges only for short-lived optimistic updates that roll back when
// the backend rejects them.
type ListStore struct {
	backend  Backend
	resolver *ParticipantResolver
	userID   string
	logger   *zap.Logger

	mu            sync.RWMutex
	conversations []model.Conversation
}

func NewListStore(backend Backend, resolver *ParticipantResolver, userID string, logger *zap.Logger) *ListStore {
	return &ListStore{
		backend:  backend,
		resolver: resolver,
		userID:   userID,
		logger:   logger,
	}
}

// Load refreshes the list from the backend. On failure the cached list
// is emptied rather than left stale, so views degrade to "no
// conversations" instead of showing dead data.
func (s *ListStore) Load(ctx context.Context) error {
	conversations, err := s.backend.Conversations(ctx)
	if err != nil {
		s.logger.Error("failed to load conversations", zap.Error(err))
		s.Replace(nil)
		return err
	}

	s.Replace(conversations)
	return nil
}

// Replace swaps the cached list wholesale and drops memoized
// participant resolutions.
func (s *ListStore) Replace(conversations []model.Conversation) {
	s.mu.Lock()
	s.conversations = conversations
	s.mu.Unlock()

	s.resolver.Reset()
}

// Get returns a copy of one cached conversation, nil when absent.
func (s *ListStore) Get(conversationID string) *model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.conversations {
		if s.conversations[i].ID.Hex() == conversationID {
			conv := s.conversations[i]
			return &conv
		}
	}
	return nil
}

// Upsert inserts or refreshes one conversation in the cache. Used when
// a send creates a conversation that the last Load did not know about.
func (s *ListStore) Upsert(conv model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.conversations {
		if s.conversations[i].ID == conv.ID {
			s.conversations[i] = conv
			return
		}
	}
	s.conversations = append(s.conversations, conv)
}

// View returns the conversations matching query, sorted for display:
// pinned first, then conversations with an unread message from the
// other party, then most recent activity. Archived conversations are
// excluded. An empty query matches everything.
func (s *ListStore) View(query string) []model.Conversation {
	s.mu.RLock()
	conversations := make([]model.Conversation, len(s.conversations))
	copy(conversations, s.conversations)
	s.mu.RUnlock()

	visible := Filter(conversations, func(c model.Conversation) bool {
		return !c.IsArchived && s.matches(&c, query)
	})

	sort.SliceStable(visible, func(i, j int) bool {
		a, b := &visible[i], &visible[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		au, bu := a.UnreadFromOther(s.userID), b.UnreadFromOther(s.userID)
		if au != bu {
			return au
		}
		return a.LastMessageAt.After(b.LastMessageAt)
	})

	return visible
}

// matches implements the search box semantics: the query matches when
// it is a substring of the resolved name, the last message preview or
// the job title, or when every whitespace-separated token matches the
// resolved name. Matching is case-insensitive.
func (s *ListStore) matches(conv *model.Conversation, query string) bool {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return true
	}

	name := strings.ToLower(s.resolver.Resolve(conv, s.userID).DisplayName)
	if strings.Contains(name, query) {
		return true
	}
	if conv.LastMessage != nil && strings.Contains(strings.ToLower(conv.LastMessage.Content), query) {
		return true
	}
	if strings.Contains(strings.ToLower(conv.JobTitle), query) {
		return true
	}

	tokens := strings.Fields(query)
	if len(tokens) < 2 {
		return false
	}
	for _, token := range tokens {
		if !strings.Contains(name, token) {
			return false
		}
	}
	return true
}

// Select marks a conversation read when the user opens it. The unread
// state clears optimistically; if the backend rejects the change the
// previous state is restored.
func (s *ListStore) Select(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.conversations {
		if s.conversations[i].ID.Hex() == conversationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	prevUnread := s.conversations[idx].UnreadCount
	var prevRead bool
	s.conversations[idx].UnreadCount = 0
	if lm := s.conversations[idx].LastMessage; lm != nil && lm.SenderID != s.userID {
		prevRead = lm.Read
		lm.Read = true
	}
	s.mu.Unlock()

	if err := s.backend.MarkAllRead(ctx, conversationID); err != nil {
		s.logger.Warn("mark read failed, rolling back",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)

		s.mu.Lock()
		if idx < len(s.conversations) && s.conversations[idx].ID.Hex() == conversationID {
			s.conversations[idx].UnreadCount = prevUnread
			if lm := s.conversations[idx].LastMessage; lm != nil && lm.SenderID != s.userID {
				lm.Read = prevRead
			}
		}
		s.mu.Unlock()
		return err
	}
	return nil
}
