package event

import (
	"encoding/json"

	"Taskora/internal/model"
)

// Server-to-client events
const (
	// EventSnapshot carries the full message list of a conversation.
	// The feed delivers whole-snapshot replacements; clients never see
	// incremental diffs.
	EventSnapshot = "conversation:snapshot"

	// EventTyping relays a typing indicator to the other party.
	EventTyping = "typing"
)

// Client-to-server events
const (
	EventClientTyping = "client:typing"
)

// WsEvent is the wire envelope for everything crossing the socket.
type WsEvent struct {
	Event          string          `json:"event"`
	ConversationID string          `json:"conversationId,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// SnapshotPayload is the body of an EventSnapshot.
type SnapshotPayload struct {
	ConversationID string          `json:"conversationId"`
	Messages       []model.Message `json:"messages"`
}

// TypingPayload is the body of typing events in both directions.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

// NewSnapshot builds a ready-to-send snapshot event.
func NewSnapshot(conversationID string, messages []model.Message) (WsEvent, error) {
	payload, err := json.Marshal(SnapshotPayload{
		ConversationID: conversationID,
		Messages:       messages,
	})
	if err != nil {
		return WsEvent{}, err
	}
	return WsEvent{
		Event:          EventSnapshot,
		ConversationID: conversationID,
		Payload:        payload,
	}, nil
}

// NewTyping builds a typing indicator event for relay to the room.
func NewTyping(conversationID string, p TypingPayload) (WsEvent, error) {
	p.ConversationID = conversationID
	payload, err := json.Marshal(p)
	if err != nil {
		return WsEvent{}, err
	}
	return WsEvent{
		Event:          EventTyping,
		ConversationID: conversationID,
		Payload:        payload,
	}, nil
}
