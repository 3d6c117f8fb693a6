package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProvisionalPrefix marks client-synthesized message ids for sends that
// have not been confirmed by the backend. A provisional entry never
// persists: it is replaced once a snapshot carrying its client token
// arrives, or removed when the send fails.
const ProvisionalPrefix = "temp-"

// Message types
const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
)

// Message is a single chat message document. MessageID is the stable
// identifier exposed to clients; ClientToken is generated by the sending
// client and echoed back by the server so provisional entries reconcile
// deterministically instead of racing on snapshot timing.
type Message struct {
	ID             primitive.ObjectID  `json:"-" bson:"_id,omitempty"`
	MessageID      string              `json:"id" bson:"message_id"`
	ClientToken    string              `json:"clientToken,omitempty" bson:"client_token,omitempty"`
	ConversationID string              `json:"conversationId" bson:"conversation_id"`
	SenderID       string              `json:"senderId" bson:"sender_id"`
	Content        string              `json:"content" bson:"content"`
	Type           string              `json:"type,omitempty" bson:"type,omitempty"`
	ReplyTo        string              `json:"replyTo,omitempty" bson:"reply_to,omitempty"`
	Reactions      map[string][]string `json:"reactions,omitempty" bson:"reactions,omitempty"`
	Read           bool                `json:"read" bson:"read"`
	Edited         bool                `json:"edited,omitempty" bson:"edited,omitempty"`
	EditedAt       *time.Time          `json:"editedAt,omitempty" bson:"edited_at,omitempty"`
	SentAt         time.Time           `json:"sentAt" bson:"sent_at"`
}

// Provisional reports whether the message is a not-yet-confirmed send.
func (m *Message) Provisional() bool {
	return strings.HasPrefix(m.MessageID, ProvisionalPrefix)
}
