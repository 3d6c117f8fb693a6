package hub

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMonitorStatsIdleHub(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	defer h.Stop()

	stats := NewMonitorService(h).GetStats()
	assert.Equal(t, "idle", stats.Status)
	assert.Zero(t, stats.Connections.TotalConnected)
	assert.Zero(t, stats.Connections.UniqueUsers)
	assert.Zero(t, stats.Rooms.TotalRooms)
}

func TestShardIsStablePerConversation(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	defer h.Stop()

	assert.Same(t, h.getShard("c1"), h.getShard("c1"))
}

func TestCheckOrigin(t *testing.T) {
	newReq := func(origin string) *http.Request {
		req, err := http.NewRequest(http.MethodGet, "/ws", nil)
		require.NoError(t, err)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return req
	}

	t.Run("no origin header is allowed", func(t *testing.T) {
		h := NewHub(zap.NewNop(), []string{"http://app.example"})
		defer h.Stop()
		assert.True(t, h.checkOrigin(newReq("")))
	})

	t.Run("listed origin is allowed", func(t *testing.T) {
		h := NewHub(zap.NewNop(), []string{"http://app.example"})
		defer h.Stop()
		assert.True(t, h.checkOrigin(newReq("http://app.example")))
		assert.False(t, h.checkOrigin(newReq("http://evil.example")))
	})

	t.Run("wildcard allows everything", func(t *testing.T) {
		h := NewHub(zap.NewNop(), []string{"*"})
		defer h.Stop()
		assert.True(t, h.checkOrigin(newReq("http://anywhere.example")))
	})
}
