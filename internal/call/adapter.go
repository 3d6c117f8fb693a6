package call

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrCallInProgress = errors.New("a call is already in progress")
	ErrNoActiveCall   = errors.New("no active call")
)

// State is a snapshot of the adapter's call state. Zero value means no
// call is active.
type State struct {
	Active        bool
	RoomID        string
	Type          Type
	Muted         bool
	CameraOn      bool
	ScreenSharing bool
	StartedAt     time.Time
}

// RoomID derives the deterministic room for a conversation. Both
// parties compute the same room without coordination.
func RoomID(conversationID string) string {
	return "room_" + conversationID
}

// Adapter manages one call at a time on top of a Provider. With a nil
// provider every operation is a logged no-op, so chat keeps working
// when calling is not configured.
type Adapter struct {
	provider Provider
	logger   *zap.Logger

	mu      sync.Mutex
	session Session
	state   State
}

func NewAdapter(provider Provider, logger *zap.Logger) *Adapter {
	return &Adapter{provider: provider, logger: logger}
}

// StartCall joins the conversation's room. Camera starts on only for
// video calls.
func (a *Adapter) StartCall(ctx context.Context, conversationID, userID, userName string, callType Type) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.provider == nil {
		a.logger.Info("call provider not configured, ignoring start",
			zap.String("conversation_id", conversationID),
		)
		return nil
	}
	if a.state.Active {
		return ErrCallInProgress
	}

	roomID := RoomID(conversationID)
	token, err := a.provider.Token(ctx, roomID, userID, userName)
	if err != nil {
		return fmt.Errorf("obtain room token: %w", err)
	}

	session, err := a.provider.Join(ctx, JoinRequest{
		RoomID:   roomID,
		Token:    token,
		UserID:   userID,
		UserName: userName,
		CameraOn: callType == TypeVideo,
		Type:     callType,
	})
	if err != nil {
		return fmt.Errorf("join room %s: %w", roomID, err)
	}

	a.session = session
	a.state = State{
		Active:    true,
		RoomID:    roomID,
		Type:      callType,
		CameraOn:  callType == TypeVideo,
		StartedAt: time.Now(),
	}

	a.logger.Info("call started",
		zap.String("room_id", roomID),
		zap.String("type", string(callType)),
	)
	return nil
}

// EndCall tears the session down. Local state is reset even when the
// provider fails to destroy the session, so the user is never stuck in
// a phantom call.
func (a *Adapter) EndCall() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		if err := a.session.Destroy(); err != nil {
			a.logger.Warn("session destroy failed", zap.String("room_id", a.state.RoomID), zap.Error(err))
		}
	}

	a.session = nil
	a.state = State{}
}

// State returns a copy of the current call state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Duration reports how long the active call has been running.
func (a *Adapter) Duration() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.Active {
		return 0
	}
	return time.Since(a.state.StartedAt)
}

// ToggleMute flips the microphone and returns the new muted state.
func (a *Adapter) ToggleMute() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.Active {
		return false, ErrNoActiveCall
	}
	a.state.Muted = !a.state.Muted
	return a.state.Muted, nil
}

// ToggleCamera flips the camera and returns the new camera state.
func (a *Adapter) ToggleCamera() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.Active {
		return false, ErrNoActiveCall
	}
	a.state.CameraOn = !a.state.CameraOn
	return a.state.CameraOn, nil
}

// ToggleScreenShare flips screen sharing and returns the new state.
func (a *Adapter) ToggleScreenShare() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.Active {
		return false, ErrNoActiveCall
	}
	a.state.ScreenSharing = !a.state.ScreenSharing
	return a.state.ScreenSharing, nil
}
