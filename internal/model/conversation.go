package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation represents a two-party chat between a customer and a
// provider, optionally attached to a job posting. The backend document is
// the source of truth; clients hold a cached mirror with short-lived
// optimistic divergence.
type Conversation struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ParticipantIDs   []string           `json:"participants" bson:"participant_ids"`
	ParticipantNames map[string]string  `json:"participantNames,omitempty" bson:"participant_names,omitempty"`
	JobID            string             `json:"jobId,omitempty" bson:"job_id,omitempty"`
	JobTitle         string             `json:"jobTitle,omitempty" bson:"job_title,omitempty"`
	LastMessage      *LastMessage       `json:"lastMessage,omitempty" bson:"last_message,omitempty"`
	LastMessageAt    time.Time          `json:"lastMessageAt" bson:"last_message_at"`
	UnreadCount      int                `json:"unreadCount" bson:"unread_count"`
	IsPinned         bool               `json:"isPinned" bson:"is_pinned"`
	IsArchived       bool               `json:"isArchived" bson:"is_archived"`
	IsMuted          bool               `json:"isMuted" bson:"is_muted"`
	CreatedAt        time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updated_at"`
}

// LastMessage stores the most recent message preview so conversation
// lists render without fetching full history.
type LastMessage struct {
	Content  string    `json:"content" bson:"content"`
	SenderID string    `json:"senderId" bson:"sender_id"`
	SentAt   time.Time `json:"sentAt" bson:"sent_at"`
	Read     bool      `json:"read" bson:"read"`
}

// OtherParticipant returns the participant id that is not userID, or ""
// when the conversation has no resolvable other party.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, id := range c.ParticipantIDs {
		if id != userID {
			return id
		}
	}
	return ""
}

// UnreadFromOther reports whether the latest message was sent by the
// other party and has not been read by userID.
func (c *Conversation) UnreadFromOther(userID string) bool {
	if c.LastMessage == nil {
		return false
	}
	return c.LastMessage.SenderID != userID && !c.LastMessage.Read
}
