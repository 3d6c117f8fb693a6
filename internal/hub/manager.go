package hub

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"Taskora/internal/event"
	"Taskora/internal/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const shardCount = 64

type inboundMessage struct {
	client *Client
	event  event.WsEvent
}

// roomShard holds a slice of the conversation rooms. Sharding keeps
// lock contention bounded under many concurrent conversations.
type roomShard struct {
	sync.RWMutex
	rooms map[string]map[string]*Client // conversationID -> clientID -> client
}

// Hub fans conversation snapshots out to every client subscribed to the
// affected conversation. Clients never receive incremental events; each
// change pushes the whole snapshot and subscribers replace their state.
type Hub struct {
	shards     [shardCount]*roomShard
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	onlineUsers   map[string]*Client
	onlineUsersMu sync.RWMutex

	allowedOrigins []string
	logger         *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		inbound:        make(chan inboundMessage, 512),
		onlineUsers:    make(map[string]*Client),
		allowedOrigins: allowedOrigins,
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
	}
	for i := range h.shards {
		h.shards[i] = &roomShard{rooms: make(map[string]map[string]*Client)}
	}

	h.wg.Add(1)
	go h.run()

	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go h.worker()
	}

	return h
}

func (h *Hub) run() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) worker() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return
		case in := <-h.inbound:
			h.handleEvent(in.client, in.event)
		}
	}
}

func (h *Hub) handleEvent(client *Client, ev event.WsEvent) {
	inboundEvents.WithLabelValues(ev.Event).Inc()

	switch ev.Event {
	case event.EventClientTyping:
		var payload event.TypingPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			h.logger.Debug("malformed typing payload", zap.String("client_id", client.ID), zap.Error(err))
			return
		}
		payload.UserID = client.userID

		relay, err := event.NewTyping(client.conversationID, payload)
		if err != nil {
			h.logger.Error("failed to build typing event", zap.Error(err))
			return
		}
		h.publish(relay, client.conversationID, client.ID)
	default:
		h.logger.Debug("unhandled inbound event",
			zap.String("event", ev.Event),
			zap.String("client_id", client.ID),
		)
	}
}

// PushSnapshot sends the conversation's full message snapshot to every
// subscribed client.
func (h *Hub) PushSnapshot(conversationID string, msgs []model.Message) {
	ev, err := event.NewSnapshot(conversationID, msgs)
	if err != nil {
		h.logger.Error("failed to build snapshot event",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return
	}

	snapshotsPushed.Inc()
	h.publish(ev, conversationID, "")
}

func (h *Hub) publish(ev event.WsEvent, conversationID, excludeClientID string) {
	shard := h.getShard(conversationID)

	shard.RLock()
	room := shard.rooms[conversationID]
	targets := make([]*Client, 0, len(room))
	for id, client := range room {
		if id == excludeClientID {
			continue
		}
		targets = append(targets, client)
	}
	shard.RUnlock()

	for _, client := range targets {
		if !client.SafeSend(ev, sendTimeout) {
			eventsDropped.Inc()
			h.logger.Warn("dropped event for slow client",
				zap.String("client_id", client.ID),
				zap.String("conversation_id", conversationID),
				zap.String("event", ev.Event),
			)
		}
	}
}

func (h *Hub) getShard(conversationID string) *roomShard {
	sum := sha1.Sum([]byte(conversationID))
	return h.shards[int(sum[0])%shardCount]
}

func (h *Hub) addClient(client *Client) {
	shard := h.getShard(client.conversationID)

	shard.Lock()
	room, ok := shard.rooms[client.conversationID]
	if !ok {
		room = make(map[string]*Client)
		shard.rooms[client.conversationID] = room
	}
	room[client.ID] = client
	shard.Unlock()

	h.onlineUsersMu.Lock()
	h.onlineUsers[client.userID] = client
	h.onlineUsersMu.Unlock()

	connectedClients.Inc()
}

func (h *Hub) removeClient(client *Client) {
	shard := h.getShard(client.conversationID)

	shard.Lock()
	if room, ok := shard.rooms[client.conversationID]; ok {
		if _, present := room[client.ID]; present {
			delete(room, client.ID)
			connectedClients.Dec()
		}
		if len(room) == 0 {
			delete(shard.rooms, client.conversationID)
		}
	}
	shard.Unlock()

	h.onlineUsersMu.Lock()
	if current, ok := h.onlineUsers[client.userID]; ok && current.ID == client.ID {
		delete(h.onlineUsers, client.userID)
	}
	h.onlineUsersMu.Unlock()

	client.Close()
}

// Stop shuts the hub down and closes every connected client.
func (h *Hub) Stop() {
	h.cancel()

	for _, shard := range h.shards {
		shard.Lock()
		for _, room := range shard.rooms {
			for _, client := range room {
				client.Close()
			}
		}
		shard.rooms = make(map[string]map[string]*Client)
		shard.Unlock()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		h.logger.Warn("hub shutdown timed out waiting for workers")
	}
}

// ServeWS upgrades the request and subscribes the caller to one
// conversation's push feed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	conversationID := r.URL.Query().Get("conversationId")
	if userID == "" || conversationID == "" {
		http.Error(w, "userId and conversationId are required", http.StatusBadRequest)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(userID, conversationID, conn, h)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
