package server

import "bumpercars/protocol"

// PlayerID 表示玩家唯一标识（未指定时由服务端分配 uuid）
type PlayerID string

// Player 房间内的玩家：服务端保存的车辆副本
type Player struct {
	ID  PlayerID
	Car protocol.Entity

	updatesThisTick int         // 本 Tick 已接受的上行数，用于限流
	Conn            *ClientConn // 网络连接的发送端（写协程）
}

// peerRecord 广播给其他玩家的记录
func (p *Player) peerRecord() protocol.PeerRecord {
	return protocol.PeerRecord{ID: string(p.ID), Car: p.Car}
}
