package chatclient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"Taskora/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDebounce = 50 * time.Millisecond

func msg(id, senderID, content string, read bool) model.Message {
	return model.Message{
		MessageID: id,
		SenderID:  senderID,
		Content:   content,
		Read:      read,
		SentAt:    time.Now(),
	}
}

func TestOpenDeliversInitialSnapshot(t *testing.T) {
	backend := newFakeBackend()
	backend.messages["c1"] = []model.Message{msg("m1", "other", "hello", true)}

	stream := NewStreamController(backend, "me", testDebounce, zap.NewNop())
	require.NoError(t, stream.Open(context.Background(), "c1"))
	defer stream.Close()

	got := stream.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].MessageID)
}

func TestDebouncedMarkReadCoalesces(t *testing.T) {
	backend := newFakeBackend()
	stream := NewStreamController(backend, "me", testDebounce, zap.NewNop())
	require.NoError(t, stream.Open(context.Background(), "c1"))
	defer stream.Close()

	// A burst of incoming messages inside one window.
	backend.push("c1", []model.Message{msg("m1", "other", "a", false)})
	backend.push("c1", []model.Message{
		msg("m1", "other", "a", false),
		msg("m2", "other", "b", false),
	})
	backend.push("c1", []model.Message{
		msg("m1", "other", "a", false),
		msg("m2", "other", "b", false),
		msg("m3", "other", "c", false),
	})

	assert.Zero(t, backend.markReadCount(), "mark read must wait for the quiet window")

	assert.Eventually(t, func() bool {
		return backend.markReadCount() == 1
	}, time.Second, 5*time.Millisecond, "burst collapses into a single mark read")

	time.Sleep(3 * testDebounce)
	assert.Equal(t, 1, backend.markReadCount())
}

func TestBurstThenSwitchConversation(t *testing.T) {
	backend := newFakeBackend()
	stream := NewStreamController(backend, "me", testDebounce, zap.NewNop())
	require.NoError(t, stream.Open(context.Background(), "c1"))
	defer stream.Close()

	var burst []model.Message
	for i := 0; i < 5; i++ {
		burst = append(burst, msg(fmt.Sprintf("m%d", i), "other", "hi", false))
		backend.push("c1", burst)
	}

	assert.Eventually(t, func() bool {
		return backend.markReadCount() == 1
	}, time.Second, 5*time.Millisecond, "five rapid snapshots collapse into one mark read")

	time.Sleep(3 * testDebounce)
	assert.Equal(t, 1, backend.markReadCount())

	// Moving to another conversation releases exactly the one live
	// subscription and carries no pending mark read across.
	require.NoError(t, stream.Open(context.Background(), "c2"))
	assert.Equal(t, 1, backend.releaseCount())

	time.Sleep(3 * testDebounce)
	assert.Equal(t, 1, backend.markReadCount())
}

func TestDebounceRestartsOnEachSnapshot(t *testing.T) {
	backend := newFakeBackend()
	stream := NewStreamController(backend, "me", testDebounce, zap.NewNop())
	require.NoError(t, stream.Open(context.Background(), "c1"))
	defer stream.Close()

	// Snapshots arriving faster than the window keep pushing it out.
	for i := 0; i < 3; i++ {
		backend.push("c1", []model.Message{msg("m1", "other", "a", false)})
		time.Sleep(testDebounce / 2)
		assert.Zero(t, backend.markReadCount())
	}

	assert.Eventually(t, func() bool {
		return backend.markReadCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestOwnAndReadMessagesDoNotArmMarkRead(t *testing.T) {
	backend := newFakeBackend()
	stream := NewStreamController(backend, "me", testDebounce, zap.NewNop())
	require.NoError(t, stream.Open(context.Background(), "c1"))
	defer stream.Close()

	backend.push("c1", []model.Message{
		msg("m1", "me", "mine", false),
		msg("m2", "other", "seen already", true),
	})

	time.Sleep(3 * testDebounce)
	assert.Zero(t, backend.markReadCount())
}

func TestCloseCancelsPendingMarkRead(t *testing.T) {
	backend := newFakeBackend()
	stream := NewStreamController(backend, "me", testDebounce, zap.NewNop())
	require.NoError(t, stream.Open(context.Background(), "c1"))

	backend.push("c1", []model.Message{msg("m1", "other", "a", false)})
	stream.Close()

	time.Sleep(3 * testDebounce)
	assert.Zero(t, backend.markReadCount(), "closing the stream must drop the pending mark read")
}

func TestSubscriptionReleasedExactlyOnce(t *testing.T) {
	backend := newFakeBackend()
	stream := NewStreamController(backend, "me", testDebounce, zap.NewNop())

	require.NoError(t, stream.Open(context.Background(), "c1"))
	stream.Close()
	stream.Close()
	assert.Equal(t, 1, backend.releaseCount())

	// Opening a new conversation releases the previous one.
	require.NoError(t, stream.Open(context.Background(), "c1"))
	require.NoError(t, stream.Open(context.Background(), "c2"))
	assert.Equal(t, 2, backend.releaseCount())
	assert.Equal(t, "c2", stream.ConversationID())

	stream.Close()
	assert.Equal(t, 3, backend.releaseCount())
	assert.Empty(t, stream.ConversationID())
}

func TestProvisionalSurvivesUnconfirmedSnapshot(t *testing.T) {
	backend := newFakeBackend()
	stream := NewStreamController(backend, "me", testDebounce, zap.NewNop())
	require.NoError(t, stream.Open(context.Background(), "c1"))
	defer stream.Close()

	provisional := msg("temp-1", "me", "on its way", false)
	provisional.ClientToken = "tok-1"
	stream.AppendProvisional(provisional)

	// Snapshot from a concurrent change that does not include the send.
	backend.push("c1", []model.Message{msg("m1", "other", "unrelated", true)})

	got := stream.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].MessageID)
	assert.Equal(t, "temp-1", got[1].MessageID, "in-flight send must not flicker out")

	// Snapshot confirming the send via its client token.
	confirmed := msg("srv-9", "me", "on its way", false)
	confirmed.ClientToken = "tok-1"
	backend.push("c1", []model.Message{msg("m1", "other", "unrelated", true), confirmed})

	got = stream.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "srv-9", got[1].MessageID, "confirmed entry replaces the provisional one")
}

func TestSnapshotForClosedConversationIsDropped(t *testing.T) {
	backend := newFakeBackend()
	stream := NewStreamController(backend, "me", testDebounce, zap.NewNop())
	require.NoError(t, stream.Open(context.Background(), "c1"))
	require.NoError(t, stream.Open(context.Background(), "c2"))
	defer stream.Close()

	// c1's feed still held by the fake; its snapshots must not leak into c2.
	backend.push("c1", []model.Message{msg("m1", "other", "stale", false)})
	assert.Empty(t, stream.Messages())
}
