package server

import "bumpercars/protocol"

// Update 客户端上行的车辆状态，由房间在 Tick 中应用
// 车辆 id 始终取连接身份，不信任载荷中的 id
type Update struct {
	PlayerID PlayerID
	Car      protocol.Entity
}

// joinRequest 新连接请求加入房间，在 Tick 线程中处理
type joinRequest struct {
	id   PlayerID
	conn *ClientConn
}

// apply 用上行覆盖服务端副本，返回是否有变化
func (u Update) apply(p *Player) bool {
	next := u.Car
	next.ID = string(p.ID)
	if next == p.Car {
		return false
	}
	p.Car = next
	return true
}
