package model

// MonitorResponse is the payload of the monitor stats endpoint.
type MonitorResponse struct {
	Status      string    `json:"status"` // "healthy" or "idle"
	Connections ConnStats `json:"connections"`
	Rooms       RoomStats `json:"rooms"`
}

// ConnStats holds connection-level statistics.
type ConnStats struct {
	TotalConnected int `json:"totalConnected"`
	UniqueUsers    int `json:"uniqueUsers"`
}

// RoomStats holds per-conversation room statistics.
type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`
	RoomDetails []RoomInfo `json:"roomDetails"`
}

// RoomInfo describes a single active conversation room.
type RoomInfo struct {
	ConversationID string   `json:"conversationId"`
	Subscribers    int      `json:"subscribers"`
	UserIDs        []string `json:"userIds"`
}
