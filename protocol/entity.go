package protocol

import "fmt"

// Intent 运动意图标志位，由按键按下/抬起切换，交给外部物理模块消费
type Intent struct {
	Left    bool `json:"left"`
	Right   bool `json:"right"`
	Forward bool `json:"forward"`
	Reverse bool `json:"reverse"`
}

// Entity 一辆车：位置、尺寸、朝向（弧度）与运动意图
type Entity struct {
	ID     string  `json:"id,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Angle  float64 `json:"angle"`
	Intent
}

// Position 变化检测只比较 (x, y)
type Position struct {
	X, Y float64
}

func (e Entity) Position() Position {
	return Position{X: e.X, Y: e.Y}
}

// MoveTo 返回移动到 (x, y) 后的副本
func (e Entity) MoveTo(x, y float64) Entity {
	e.X, e.Y = x, y
	return e
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity{id=%q x=%.2f y=%.2f w=%.0f h=%.0f angle=%.3f}", e.ID, e.X, e.Y, e.Width, e.Height, e.Angle)
}

// PeerRecord 同伴快照中的一条记录：{"id": "...", "car": {...}}
type PeerRecord struct {
	ID  string `json:"id"`
	Car Entity `json:"car"`
}
