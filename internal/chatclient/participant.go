package chatclient

import (
	"sync"

	"Taskora/internal/model"
)

// fallbackIDLen is how many id characters the synthesized display name
// keeps.
const fallbackIDLen = 8

// Resolved is a participant with a display name that is always safe to
// render.
type Resolved struct {
	ID          string
	DisplayName string
}

// ParticipantResolver resolves the "other party" of a conversation to a
// displayable identity. Lookups are memoized per conversation and
// participant; Reset drops the memo when a fresh conversation list
// arrives.
type ParticipantResolver struct {
	mu   sync.RWMutex
	memo map[string]Resolved
}

func NewParticipantResolver() *ParticipantResolver {
	return &ParticipantResolver{memo: make(map[string]Resolved)}
}

// Resolve returns the other participant of conv relative to userID. A
// participant with no known name gets a synthesized one derived from
// the id, so the result never has an empty DisplayName.
func (r *ParticipantResolver) Resolve(conv *model.Conversation, userID string) Resolved {
	otherID := conv.OtherParticipant(userID)
	if otherID == "" {
		return Resolved{DisplayName: fallbackName("")}
	}

	key := conv.ID.Hex() + "|" + otherID

	r.mu.RLock()
	cached, ok := r.memo[key]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	name := conv.ParticipantNames[otherID]
	if name == "" {
		name = fallbackName(otherID)
	}

	resolved := Resolved{ID: otherID, DisplayName: name}

	r.mu.Lock()
	r.memo[key] = resolved
	r.mu.Unlock()

	return resolved
}

// Reset clears the memo. Call it whenever conversation data is replaced
// wholesale.
func (r *ParticipantResolver) Reset() {
	r.mu.Lock()
	r.memo = make(map[string]Resolved)
	r.mu.Unlock()
}

func fallbackName(id string) string {
	if id == "" {
		return "Unknown User"
	}
	if len(id) > fallbackIDLen {
		id = id[:fallbackIDLen]
	}
	return "User " + id
}
