package chatclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Taskora/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeBackend is an in-memory Backend for tests. Snapshots are pushed
// manually via push; errors are injected per operation.
type fakeBackend struct {
	mu sync.Mutex

	conversations []model.Conversation
	messages      map[string][]model.Message
	subscribers   map[string][]func([]model.Message)

	conversationsErr error
	sendErr          error
	markReadErr      error
	subscribeErr     error

	sendCalls     []SendRequest
	markReadCalls []string
	releaseCalls  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		messages:    make(map[string][]model.Message),
		subscribers: make(map[string][]func([]model.Message)),
	}
}

func (f *fakeBackend) Conversations(_ context.Context) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conversationsErr != nil {
		return nil, f.conversationsErr
	}
	out := make([]model.Conversation, len(f.conversations))
	copy(out, f.conversations)
	return out, nil
}

func (f *fakeBackend) ConversationByID(_ context.Context, conversationID string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.conversations {
		if f.conversations[i].ID.Hex() == conversationID {
			conv := f.conversations[i]
			return &conv, nil
		}
	}
	return nil, nil
}

func (f *fakeBackend) CreateConversation(_ context.Context, recipientID, jobID, jobTitle string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv := model.Conversation{
		ID:             primitive.NewObjectID(),
		ParticipantIDs: []string{"me", recipientID},
		JobID:          jobID,
		JobTitle:       jobTitle,
	}
	f.conversations = append(f.conversations, conv)
	return &conv, nil
}

func (f *fakeBackend) SendMessage(_ context.Context, req SendRequest) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls = append(f.sendCalls, req)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	msg := model.Message{
		MessageID:   fmt.Sprintf("srv-%d", len(f.sendCalls)),
		ClientToken: req.ClientToken,
		Content:     req.Content,
		SentAt:      time.Now(),
	}
	return &msg, nil
}

func (f *fakeBackend) MarkAllRead(_ context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markReadErr != nil {
		return f.markReadErr
	}
	f.markReadCalls = append(f.markReadCalls, conversationID)

	msgs := f.messages[conversationID]
	for i := range msgs {
		if msgs[i].SenderID != "me" {
			msgs[i].Read = true
		}
	}
	return nil
}

func (f *fakeBackend) SubscribeMessages(_ context.Context, conversationID string, onSnapshot func([]model.Message)) (func(), error) {
	f.mu.Lock()
	if f.subscribeErr != nil {
		f.mu.Unlock()
		return nil, f.subscribeErr
	}
	f.subscribers[conversationID] = append(f.subscribers[conversationID], onSnapshot)
	initial := append([]model.Message(nil), f.messages[conversationID]...)
	f.mu.Unlock()

	onSnapshot(initial)

	return func() {
		f.mu.Lock()
		f.releaseCalls++
		f.mu.Unlock()
	}, nil
}

// push replaces the stored snapshot and fans it out to subscribers.
func (f *fakeBackend) push(conversationID string, msgs []model.Message) {
	f.mu.Lock()
	f.messages[conversationID] = msgs
	subs := make([]func([]model.Message), len(f.subscribers[conversationID]))
	copy(subs, f.subscribers[conversationID])
	f.mu.Unlock()

	for _, fn := range subs {
		fn(append([]model.Message(nil), msgs...))
	}
}

func (f *fakeBackend) markReadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.markReadCalls)
}

func (f *fakeBackend) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseCalls
}
