package client

import (
	"iter"
	"maps"
	"slices"

	"bumpercars/protocol"
)

// Registry 一帧内所有已知实体的本地视图：本地玩家 + 同伴
// 只在拥有它的单个 goroutine（Session 帧循环）上读写，不加锁
type Registry struct {
	local    protocol.Entity
	hasLocal bool
	peers    map[string]protocol.Entity
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]protocol.Entity)}
}

// SetLocal 安装/替换本地实体；同 id 的同伴条目会被移除，避免渲染时重复
func (r *Registry) SetLocal(e protocol.Entity) {
	r.local = e
	r.hasLocal = true
	if e.ID != "" {
		delete(r.peers, e.ID)
	}
}

// Local 返回本地实体；尚未收到初始分配时 ok=false
func (r *Registry) Local() (protocol.Entity, bool) {
	return r.local, r.hasLocal
}

// ReplacePeers 整体替换同伴映射（不支持局部更新）
func (r *Registry) ReplacePeers(records []protocol.PeerRecord) {
	next := make(map[string]protocol.Entity, len(records))
	for _, rec := range records {
		if r.hasLocal && r.local.ID != "" && rec.ID == r.local.ID {
			continue
		}
		car := rec.Car
		car.ID = rec.ID
		next[rec.ID] = car
	}
	r.peers = next
}

func (r *Registry) Peer(id string) (protocol.Entity, bool) {
	e, ok := r.peers[id]
	return e, ok
}

func (r *Registry) PeerCount() int { return len(r.peers) }

// Len 本地（若有）+ 同伴总数
func (r *Registry) Len() int {
	n := len(r.peers)
	if r.hasLocal {
		n++
	}
	return n
}

// All 只读惰性遍历：先本地实体，再按 id 排序的同伴；每帧可重新开始
// 遍历期间不得修改 Registry
func (r *Registry) All() iter.Seq2[string, protocol.Entity] {
	return func(yield func(string, protocol.Entity) bool) {
		if r.hasLocal {
			if !yield(r.local.ID, r.local) {
				return
			}
		}
		for _, id := range slices.Sorted(maps.Keys(r.peers)) {
			if !yield(id, r.peers[id]) {
				return
			}
		}
	}
}

// ForEach 供渲染器每帧调用一次
func (r *Registry) ForEach(visit func(id string, e protocol.Entity)) {
	for id, e := range r.All() {
		visit(id, e)
	}
}
