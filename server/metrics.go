package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount       int64 // 统计的 Tick 次数
	Players         int64 // 当前在线玩家数
	Joins           int64 // 累计加入
	Leaves          int64 // 累计离开
	UpdatesAccepted int64 // 被接受的上行数
	RateLimited     int64 // 因同帧限流被拒绝的上行数
	Malformed       int64 // 无法解析被丢弃的上行数
	SnapshotsSent   int64 // 下发的同伴快照数
	SendDropped     int64 // 因发送队列满被丢弃的下行数
	TotalTickNs     int64 // Tick 累计耗时（纳秒）
}

func (m *RoomMetrics) IncJoin() { atomic.AddInt64(&m.Joins, 1) }
func (m *RoomMetrics) IncLeave() { atomic.AddInt64(&m.Leaves, 1) }
func (m *RoomMetrics) IncAccepted() { atomic.AddInt64(&m.UpdatesAccepted, 1) }
func (m *RoomMetrics) IncRateLimited() { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RoomMetrics) IncMalformed() { atomic.AddInt64(&m.Malformed, 1) }
func (m *RoomMetrics) IncSnapshotSent() { atomic.AddInt64(&m.SnapshotsSent, 1) }
func (m *RoomMetrics) IncSendDropped() { atomic.AddInt64(&m.SendDropped, 1) }
func (m *RoomMetrics) SetPlayers(n int) { atomic.StoreInt64(&m.Players, int64(n)) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":       tick,
		"players":          atomic.LoadInt64(&m.Players),
		"joins":            atomic.LoadInt64(&m.Joins),
		"leaves":           atomic.LoadInt64(&m.Leaves),
		"updates_accepted": atomic.LoadInt64(&m.UpdatesAccepted),
		"rate_limited":     atomic.LoadInt64(&m.RateLimited),
		"malformed":        atomic.LoadInt64(&m.Malformed),
		"snapshots_sent":   atomic.LoadInt64(&m.SnapshotsSent),
		"send_dropped":     atomic.LoadInt64(&m.SendDropped),
		"avg_tick_ms":      avgMs,
	}
}
