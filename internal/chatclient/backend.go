// Package chatclient implements the messaging client: the conversation
// list store, the per-conversation message stream, the optimistic send
// pipeline and the supporting resolvers. It talks to the server only
// through the Backend port, so tests and alternative transports plug in
// without touching the stores.
package chatclient

import (
	"context"

	"Taskora/internal/model"
)

// SendRequest is the client-side send payload. ClientToken is set by
// the sender pipeline; callers leave it empty.
type SendRequest struct {
	RecipientID string
	Content     string
	ClientToken string
	ReplyTo     string
	JobID       string
	JobTitle    string
}

// Backend is the client's view of the chat server. Implementations must
// be safe for concurrent use.
type Backend interface {
	// Conversations lists every conversation the user participates in.
	Conversations(ctx context.Context) ([]model.Conversation, error)

	// ConversationByID fetches one conversation, nil when absent.
	ConversationByID(ctx context.Context, conversationID string) (*model.Conversation, error)

	// CreateConversation resolves or creates the conversation with
	// recipientID, optionally scoped to a job.
	CreateConversation(ctx context.Context, recipientID, jobID, jobTitle string) (*model.Conversation, error)

	// SendMessage delivers one message and returns the stored copy.
	SendMessage(ctx context.Context, req SendRequest) (*model.Message, error)

	// MarkAllRead marks every message from the other party as read.
	MarkAllRead(ctx context.Context, conversationID string) error

	// SubscribeMessages attaches to the conversation's push feed. Each
	// delivery is a whole snapshot replacing all prior message state.
	// The returned release function detaches the subscription; it is
	// safe to call more than once.
	SubscribeMessages(ctx context.Context, conversationID string, onSnapshot func([]model.Message)) (release func(), err error)
}
