package call

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	destroyErr error
	destroyed  int
}

func (s *fakeSession) Destroy() error {
	s.destroyed++
	return s.destroyErr
}

type fakeProvider struct {
	session  *fakeSession
	tokenErr error
	joinErr  error
	joins    []JoinRequest
}

func (p *fakeProvider) Token(_ context.Context, roomID, userID, _ string) (string, error) {
	if p.tokenErr != nil {
		return "", p.tokenErr
	}
	return "token-" + roomID + "-" + userID, nil
}

func (p *fakeProvider) Join(_ context.Context, req JoinRequest) (Session, error) {
	p.joins = append(p.joins, req)
	if p.joinErr != nil {
		return nil, p.joinErr
	}
	return p.session, nil
}

func TestRoomIDIsDeterministic(t *testing.T) {
	assert.Equal(t, "room_abc123", RoomID("abc123"))
	assert.Equal(t, RoomID("abc123"), RoomID("abc123"),
		"both parties derive the same room without coordination")
}

func TestStartCall(t *testing.T) {
	provider := &fakeProvider{session: &fakeSession{}}
	adapter := NewAdapter(provider, zap.NewNop())

	require.NoError(t, adapter.StartCall(context.Background(), "c1", "me", "Me", TypeVideo))

	state := adapter.State()
	assert.True(t, state.Active)
	assert.Equal(t, "room_c1", state.RoomID)
	assert.Equal(t, TypeVideo, state.Type)
	assert.True(t, state.CameraOn, "video calls start with the camera on")
	assert.False(t, state.Muted)

	require.Len(t, provider.joins, 1)
	assert.Equal(t, "token-room_c1-me", provider.joins[0].Token)

	assert.ErrorIs(t, adapter.StartCall(context.Background(), "c2", "me", "Me", TypeAudio), ErrCallInProgress)
}

func TestStartAudioCallKeepsCameraOff(t *testing.T) {
	provider := &fakeProvider{session: &fakeSession{}}
	adapter := NewAdapter(provider, zap.NewNop())

	require.NoError(t, adapter.StartCall(context.Background(), "c1", "me", "Me", TypeAudio))
	assert.False(t, adapter.State().CameraOn)
	require.Len(t, provider.joins, 1)
	assert.False(t, provider.joins[0].CameraOn)
}

func TestEndCallResetsStateEvenWhenDestroyFails(t *testing.T) {
	session := &fakeSession{destroyErr: errors.New("vendor hiccup")}
	provider := &fakeProvider{session: session}
	adapter := NewAdapter(provider, zap.NewNop())

	require.NoError(t, adapter.StartCall(context.Background(), "c1", "me", "Me", TypeAudio))
	adapter.EndCall()

	assert.Equal(t, 1, session.destroyed)
	assert.Equal(t, State{}, adapter.State(), "local state resets no matter what the provider does")

	// A new call can start immediately.
	assert.NoError(t, adapter.StartCall(context.Background(), "c2", "me", "Me", TypeAudio))
}

func TestEndCallWithoutActiveCallIsANoOp(t *testing.T) {
	adapter := NewAdapter(&fakeProvider{session: &fakeSession{}}, zap.NewNop())
	adapter.EndCall()
	assert.Equal(t, State{}, adapter.State())
}

func TestNilProviderIgnoresStart(t *testing.T) {
	adapter := NewAdapter(nil, zap.NewNop())

	assert.NoError(t, adapter.StartCall(context.Background(), "c1", "me", "Me", TypeVideo))
	assert.False(t, adapter.State().Active, "chat keeps working when calling is not configured")
	adapter.EndCall()
}

func TestStartCallFailuresLeaveNoState(t *testing.T) {
	t.Run("token failure", func(t *testing.T) {
		provider := &fakeProvider{session: &fakeSession{}, tokenErr: errors.New("denied")}
		adapter := NewAdapter(provider, zap.NewNop())

		assert.Error(t, adapter.StartCall(context.Background(), "c1", "me", "Me", TypeAudio))
		assert.False(t, adapter.State().Active)
	})

	t.Run("join failure", func(t *testing.T) {
		provider := &fakeProvider{session: &fakeSession{}, joinErr: errors.New("room full")}
		adapter := NewAdapter(provider, zap.NewNop())

		assert.Error(t, adapter.StartCall(context.Background(), "c1", "me", "Me", TypeAudio))
		assert.False(t, adapter.State().Active)
	})
}

func TestToggles(t *testing.T) {
	adapter := NewAdapter(&fakeProvider{session: &fakeSession{}}, zap.NewNop())

	_, err := adapter.ToggleMute()
	assert.ErrorIs(t, err, ErrNoActiveCall)

	require.NoError(t, adapter.StartCall(context.Background(), "c1", "me", "Me", TypeVideo))

	muted, err := adapter.ToggleMute()
	require.NoError(t, err)
	assert.True(t, muted)

	cameraOn, err := adapter.ToggleCamera()
	require.NoError(t, err)
	assert.False(t, cameraOn, "video call started with camera on")

	sharing, err := adapter.ToggleScreenShare()
	require.NoError(t, err)
	assert.True(t, sharing)

	adapter.EndCall()
	_, err = adapter.ToggleScreenShare()
	assert.ErrorIs(t, err, ErrNoActiveCall)
}

func TestDuration(t *testing.T) {
	adapter := NewAdapter(&fakeProvider{session: &fakeSession{}}, zap.NewNop())
	assert.Zero(t, adapter.Duration())

	require.NoError(t, adapter.StartCall(context.Background(), "c1", "me", "Me", TypeAudio))
	time.Sleep(10 * time.Millisecond)
	assert.Greater(t, adapter.Duration(), time.Duration(0))

	adapter.EndCall()
	assert.Zero(t, adapter.Duration())
}
