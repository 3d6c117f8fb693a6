package chatclient

import (
	"context"
	"errors"
	"strings"
	"testing"

	"Taskora/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSender(backend *fakeBackend, conversationID string) (*Sender, *StreamController) {
	stream := NewStreamController(backend, "me", testDebounce, zap.NewNop())
	if err := stream.Open(context.Background(), conversationID); err != nil {
		panic(err)
	}
	return NewSender(backend, stream, nil, "me", zap.NewNop()), stream
}

func TestSendOptimisticPipeline(t *testing.T) {
	backend := newFakeBackend()
	c := conv("u1", "Alice")
	id := c.ID.Hex()

	sender, stream := newTestSender(backend, id)
	defer stream.Close()

	sender.SetDraft(id, "  hello there  ")
	sender.SetTyping(id, true)
	sent, err := sender.Send(context.Background(), &c)
	require.NoError(t, err)
	require.NotNil(t, sent)

	assert.Empty(t, sender.Draft(id), "draft clears on send")
	assert.False(t, sender.Typing(id), "typing indicator clears on send")

	got := stream.Messages()
	require.Len(t, got, 1)
	assert.True(t, got[0].Provisional())
	assert.True(t, strings.HasPrefix(got[0].MessageID, model.ProvisionalPrefix))
	assert.Equal(t, "hello there", got[0].Content, "content is trimmed")
	assert.Equal(t, "me", got[0].SenderID)

	require.Len(t, backend.sendCalls, 1)
	assert.Equal(t, "u1", backend.sendCalls[0].RecipientID)
	assert.Equal(t, got[0].ClientToken, backend.sendCalls[0].ClientToken,
		"the provisional token travels with the request so the echo reconciles it")
}

func TestSendRefreshesListPreview(t *testing.T) {
	backend := newFakeBackend()
	c := conv("u1", "Alice")
	id := c.ID.Hex()

	store, _ := newTestListStore(backend)

	stream := NewStreamController(backend, "me", testDebounce, zap.NewNop())
	require.NoError(t, stream.Open(context.Background(), id))
	defer stream.Close()

	sender := NewSender(backend, stream, store, "me", zap.NewNop())
	sender.SetDraft(id, "see you at 9")
	_, err := sender.Send(context.Background(), &c)
	require.NoError(t, err)

	// The conversation was not in the list (created by this send); the
	// preview lands without a reload.
	got := store.Get(id)
	require.NotNil(t, got)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "see you at 9", got.LastMessage.Content)
	assert.Equal(t, "me", got.LastMessage.SenderID)

	view := store.View("")
	require.Len(t, view, 1)
	assert.Equal(t, c.ID, view[0].ID)
}

func TestSendEmptyDraft(t *testing.T) {
	backend := newFakeBackend()
	c := conv("u1", "Alice")

	sender, stream := newTestSender(backend, c.ID.Hex())
	defer stream.Close()

	sender.SetDraft(c.ID.Hex(), "   ")
	_, err := sender.Send(context.Background(), &c)
	assert.ErrorIs(t, err, ErrEmptyDraft)
	assert.Empty(t, backend.sendCalls)
	assert.Empty(t, stream.Messages())
}

func TestSendFailureRollsBack(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = errors.New("network down")
	c := conv("u1", "Alice")
	id := c.ID.Hex()

	sender, stream := newTestSender(backend, id)
	defer stream.Close()

	sender.SetDraft(id, "important message")
	_, err := sender.Send(context.Background(), &c)
	require.Error(t, err)

	assert.Empty(t, stream.Messages(), "failed send leaves no provisional entry behind")
	assert.Equal(t, "important message", sender.Draft(id), "draft is restored for retry")
}

func TestSendWithoutRecipientRollsBack(t *testing.T) {
	backend := newFakeBackend()
	c := model.Conversation{ParticipantIDs: []string{"me"}}
	id := c.ID.Hex()

	sender, stream := newTestSender(backend, id)
	defer stream.Close()

	sender.SetDraft(id, "hello?")
	_, err := sender.Send(context.Background(), &c)
	assert.ErrorIs(t, err, ErrNoRecipient)

	assert.Empty(t, backend.sendCalls, "nothing reaches the backend")
	assert.Empty(t, stream.Messages())
	assert.Equal(t, "hello?", sender.Draft(id))
}
