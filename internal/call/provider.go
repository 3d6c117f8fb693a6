package call

import "context"

// Type distinguishes audio-only calls from video calls.
type Type string

const (
	TypeAudio Type = "audio"
	TypeVideo Type = "video"
)

// Session is a live attachment to a call room. Destroy is idempotent on
// well-behaved providers but callers must tolerate an error either way.
type Session interface {
	Destroy() error
}

// JoinRequest carries everything a provider needs to place a user in a
// room.
type JoinRequest struct {
	RoomID   string
	Token    string
	UserID   string
	UserName string
	CameraOn bool
	Type     Type
}

// Provider abstracts the conferencing backend. Implementations wrap a
// vendor SDK; the adapter never touches one directly.
type Provider interface {
	Token(ctx context.Context, roomID, userID, userName string) (string, error)
	Join(ctx context.Context, req JoinRequest) (Session, error)
}
