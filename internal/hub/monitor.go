package hub

import (
	"sort"

	"Taskora/internal/model"
)

// MonitorService exposes a live view of hub state for the ops endpoint.
type MonitorService struct {
	hub *Hub
}

func NewMonitorService(h *Hub) *MonitorService {
	return &MonitorService{hub: h}
}

// GetStats walks every shard and reports rooms and subscribers.
func (m *MonitorService) GetStats() model.MonitorResponse {
	rooms := make([]model.RoomInfo, 0)
	totalConnected := 0

	for _, shard := range m.hub.shards {
		shard.RLock()
		for conversationID, room := range shard.rooms {
			userIDs := make([]string, 0, len(room))
			for _, client := range room {
				userIDs = append(userIDs, client.userID)
			}
			sort.Strings(userIDs)

			rooms = append(rooms, model.RoomInfo{
				ConversationID: conversationID,
				Subscribers:    len(room),
				UserIDs:        userIDs,
			})
			totalConnected += len(room)
		}
		shard.RUnlock()
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].ConversationID < rooms[j].ConversationID
	})

	m.hub.onlineUsersMu.RLock()
	uniqueUsers := len(m.hub.onlineUsers)
	m.hub.onlineUsersMu.RUnlock()

	status := "idle"
	if totalConnected > 0 {
		status = "healthy"
	}

	return model.MonitorResponse{
		Status: status,
		Connections: model.ConnStats{
			TotalConnected: totalConnected,
			UniqueUsers:    uniqueUsers,
		},
		Rooms: model.RoomStats{
			TotalRooms:  len(rooms),
			RoomDetails: rooms,
		},
	}
}
