package server

import (
	"encoding/json"
	"net/http"
)

// DefaultRoomID 未指定 room 参数时使用的房间
const DefaultRoomID = "room-1"

func roomParam(r *http.Request) string {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = DefaultRoomID
	}
	return roomID
}

// HandleAdminConfig 提供房间配置的读取与更新（热更新出生点与限流）
// GET /admin/config?room=room-1  返回当前配置
// POST /admin/config?room=room-1 以 JSON 载荷更新部分字段
func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	roomID := roomParam(r)
	room := m.GetOrCreateRoom(roomID)

	type cfg struct {
		SpawnX            *float64 `json:"spawnX,omitempty"`
		SpawnY            *float64 `json:"spawnY,omitempty"`
		CarWidth          *float64 `json:"carWidth,omitempty"`
		CarHeight         *float64 `json:"carHeight,omitempty"`
		MaxUpdatesPerTick *int     `json:"maxUpdatesPerTick,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(room.Config())
		return
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		next := room.Config()
		if body.SpawnX != nil {
			next.SpawnX = *body.SpawnX
		}
		if body.SpawnY != nil {
			next.SpawnY = *body.SpawnY
		}
		if body.CarWidth != nil {
			next.CarWidth = *body.CarWidth
		}
		if body.CarHeight != nil {
			next.CarHeight = *body.CarHeight
		}
		if body.MaxUpdatesPerTick != nil {
			next.MaxUpdatesPerTick = *body.MaxUpdatesPerTick
		}
		if next.CarWidth <= 0 || next.CarHeight <= 0 {
			http.Error(w, "car dimensions must be positive", http.StatusBadRequest)
			return
		}
		if next.MaxUpdatesPerTick < 0 {
			http.Error(w, "maxUpdatesPerTick must not be negative", http.StatusBadRequest)
			return
		}
		room.SetConfig(next)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		room.log.Infof("config updated: room=%s spawn=(%.1f,%.1f) car=%.0fx%.0f maxUpdatesPerTick=%d",
			roomID, next.SpawnX, next.SpawnY, next.CarWidth, next.CarHeight, next.MaxUpdatesPerTick)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

// HandleMetrics 输出指定房间的运行指标；未指定 room 时列出所有房间
// GET /metrics?room=room-1
func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		_ = json.NewEncoder(w).Encode(map[string]any{"rooms": m.RoomIDs()})
		return
	}
	room, ok := m.Room(roomID)
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	payload := map[string]any{
		"room":    roomID,
		"metrics": room.metrics.Snapshot(),
	}
	_ = json.NewEncoder(w).Encode(payload)
}
