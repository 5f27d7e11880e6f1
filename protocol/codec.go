package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind 入站消息类型，由 JSON 顶层形状区分
type Kind int

const (
	KindInitial Kind = iota + 1 // 对象：分配本地实体
	KindPeers                   // 数组：整体替换同伴集合
)

func (k Kind) String() string {
	switch k {
	case KindInitial:
		return "initial"
	case KindPeers:
		return "peers"
	default:
		return "unknown"
	}
}

// Message 解析后的服务端快照，消费一次即丢弃
type Message struct {
	Kind  Kind
	Local Entity       // KindInitial
	Peers []PeerRecord // KindPeers
}

// wireEntity 用指针字段检测必需字段是否缺失
type wireEntity struct {
	ID      string   `json:"id"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	Width   *float64 `json:"width"`
	Height  *float64 `json:"height"`
	Angle   float64  `json:"angle"`
	Left    bool     `json:"left"`
	Right   bool     `json:"right"`
	Forward bool     `json:"forward"`
	Reverse bool     `json:"reverse"`
}

func (w *wireEntity) entity() (Entity, error) {
	switch {
	case w.X == nil:
		return Entity{}, fmt.Errorf("missing field %q", "x")
	case w.Y == nil:
		return Entity{}, fmt.Errorf("missing field %q", "y")
	case w.Width == nil:
		return Entity{}, fmt.Errorf("missing field %q", "width")
	case w.Height == nil:
		return Entity{}, fmt.Errorf("missing field %q", "height")
	}
	return Entity{
		ID:     w.ID,
		X:      *w.X,
		Y:      *w.Y,
		Width:  *w.Width,
		Height: *w.Height,
		Angle:  w.Angle,
		Intent: Intent{Left: w.Left, Right: w.Right, Forward: w.Forward, Reverse: w.Reverse},
	}, nil
}

type wirePeer struct {
	ID  *string     `json:"id"`
	Car *wireEntity `json:"car"`
}

// Decode 解析服务端下发的一帧：数组为同伴快照，对象为初始分配
func Decode(raw []byte) (Message, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Message{}, malformed("empty payload", nil)
	}
	if !json.Valid(trimmed) {
		return Message{}, malformed("invalid json", nil)
	}

	switch trimmed[0] {
	case '[':
		var peers []wirePeer
		if err := json.Unmarshal(trimmed, &peers); err != nil {
			return Message{}, malformed("peer snapshot", err)
		}
		out := make([]PeerRecord, 0, len(peers))
		for i, p := range peers {
			if p.ID == nil || *p.ID == "" {
				return Message{}, malformed(fmt.Sprintf("peer %d", i), fmt.Errorf("missing field %q", "id"))
			}
			if p.Car == nil {
				return Message{}, malformed(fmt.Sprintf("peer %q", *p.ID), fmt.Errorf("missing field %q", "car"))
			}
			car, err := p.Car.entity()
			if err != nil {
				return Message{}, malformed(fmt.Sprintf("peer %q", *p.ID), err)
			}
			car.ID = *p.ID
			out = append(out, PeerRecord{ID: *p.ID, Car: car})
		}
		return Message{Kind: KindPeers, Peers: out}, nil
	case '{':
		e, err := DecodeEntity(trimmed)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindInitial, Local: e}, nil
	default:
		return Message{}, malformed("unexpected top-level json value", nil)
	}
}

// DecodeEntity 解析单个实体对象（服务端用它解析客户端上行）
func DecodeEntity(raw []byte) (Entity, error) {
	var w wireEntity
	if err := json.Unmarshal(raw, &w); err != nil {
		return Entity{}, malformed("entity", err)
	}
	e, err := w.entity()
	if err != nil {
		return Entity{}, malformed("entity", err)
	}
	return e, nil
}

// EncodeEntity 序列化本地实体为上行消息，也用作初始分配消息
func EncodeEntity(e Entity) ([]byte, error) {
	return json.Marshal(e)
}

// EncodePeers 序列化同伴快照；nil 输出为 []，保证客户端按数组分类
func EncodePeers(peers []PeerRecord) ([]byte, error) {
	if peers == nil {
		peers = []PeerRecord{}
	}
	return json.Marshal(peers)
}
