package server

import (
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"bumpercars/logging"
	"bumpercars/protocol"
)

// RoomConfig 房间规则，可通过 /admin/config 热更新
type RoomConfig struct {
	SpawnX            float64 `json:"spawnX"`
	SpawnY            float64 `json:"spawnY"`
	CarWidth          float64 `json:"carWidth"`
	CarHeight         float64 `json:"carHeight"`
	MaxUpdatesPerTick int     `json:"maxUpdatesPerTick"`
}

// DefaultRoomConfig 新车出生在 (100,100)，60x80
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{SpawnX: 100, SpawnY: 100, CarWidth: 60, CarHeight: 80, MaxUpdatesPerTick: 8}
}

// Room 房间世界：权威状态维护在内存，单线程 Tick 推进
// players 只在 Tick 线程中读写；连接协程通过通道与之交互
type Room struct {
	ID string

	players    map[PlayerID]*Player
	joinChan   chan joinRequest
	updateChan chan Update
	leaveChan  chan PlayerID

	// 离开先于加入被处理时记下 id，迟到的加入直接作废
	pendingLeaves map[PlayerID]struct{}

	// 连接建立前的同名占位，防止同一 id 重复接入
	memberMu sync.Mutex
	members  map[PlayerID]struct{}

	cfgMu sync.RWMutex
	cfg   RoomConfig

	metrics *RoomMetrics
	dirty   bool // 本 Tick 有变化才广播
	log     *zap.SugaredLogger

	tickerOnce sync.Once
	stopOnce   sync.Once
	stop       chan struct{}
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(id string) *Room {
	return &Room{
		ID:         id,
		players:    make(map[PlayerID]*Player),
		joinChan:   make(chan joinRequest, 64),
		updateChan: make(chan Update, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		leaveChan:  make(chan PlayerID, 64),
		members:    make(map[PlayerID]struct{}),
		cfg:        DefaultRoomConfig(),
		metrics:    &RoomMetrics{},
		log:        logging.Named("room"),
		stop:       make(chan struct{}),

		pendingLeaves: make(map[PlayerID]struct{}),
	}
}

func (r *Room) Config() RoomConfig {
	r.cfgMu.RLock()
	defer r.cfgMu.RUnlock()
	return r.cfg
}

func (r *Room) SetConfig(cfg RoomConfig) {
	r.cfgMu.Lock()
	r.cfg = cfg
	r.cfgMu.Unlock()
}

func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Reserve 占用玩家 id；已被占用返回 false
func (r *Room) Reserve(id PlayerID) bool {
	r.memberMu.Lock()
	defer r.memberMu.Unlock()
	if _, ok := r.members[id]; ok {
		return false
	}
	r.members[id] = struct{}{}
	return true
}

// Release 释放玩家 id
func (r *Room) Release(id PlayerID) {
	r.memberMu.Lock()
	delete(r.members, id)
	r.memberMu.Unlock()
}

// RequestJoin 请求在 Tick 线程中加入玩家
func (r *Room) RequestJoin(id PlayerID, conn *ClientConn) {
	select {
	case r.joinChan <- joinRequest{id: id, conn: conn}:
	case <-r.stop:
	}
}

// OnUpdate 入站车辆状态（不立即应用），等下一次 Tick 处理
func (r *Room) OnUpdate(u Update) {
	// 不阻塞：拥塞时丢弃，保证 Tick 准时
	select {
	case r.updateChan <- u:
	default:
		r.metrics.IncRateLimited()
	}
}

// RequestLeave 请求在 Tick 线程中移除玩家，避免并发改动房间状态
func (r *Room) RequestLeave(pid PlayerID) {
	select {
	case r.leaveChan <- pid:
	case <-r.stop:
	}
}

// BeginTick 重置帧内状态
func (r *Room) BeginTick() {
	for _, p := range r.players {
		p.updatesThisTick = 0
	}
}

// ProcessInputs 依次排空加入、上行、离开（非阻塞 drain）
// 先加入后离开，保证同一帧内到达的上行能找到玩家
func (r *Room) ProcessInputs() {
	r.drainJoins()
	r.drainUpdates()
	r.drainLeaves()
	r.metrics.SetPlayers(len(r.players))
}

func (r *Room) drainJoins() {
	for {
		select {
		case j := <-r.joinChan:
			r.joinPlayer(j.id, j.conn)
		default:
			return
		}
	}
}

func (r *Room) drainUpdates() {
	maxPerTick := r.Config().MaxUpdatesPerTick
	for {
		select {
		case u := <-r.updateChan:
			p, ok := r.players[u.PlayerID]
			if !ok {
				continue
			}
			if maxPerTick > 0 && p.updatesThisTick >= maxPerTick {
				r.metrics.IncRateLimited()
				continue
			}
			p.updatesThisTick++
			r.metrics.IncAccepted()
			if u.apply(p) {
				r.dirty = true
			}
		default:
			return
		}
	}
}

func (r *Room) drainLeaves() {
	for {
		select {
		case pid := <-r.leaveChan:
			r.leavePlayer(pid)
		default:
			return
		}
	}
}

// joinPlayer 在出生点创建车辆，先下发初始分配，下一次广播再同步同伴
func (r *Room) joinPlayer(id PlayerID, conn *ClientConn) {
	if _, ok := r.pendingLeaves[id]; ok {
		// 连接在加入生效前已断开：id 已在 leavePlayer 中释放，这里只关闭连接
		delete(r.pendingLeaves, id)
		if conn != nil {
			conn.Close()
		}
		r.log.Infof("join discarded, connection already gone: room=%s player=%s", r.ID, id)
		return
	}
	cfg := r.Config()
	car := protocol.Entity{ID: string(id), X: cfg.SpawnX, Y: cfg.SpawnY, Width: cfg.CarWidth, Height: cfg.CarHeight}
	p := &Player{ID: id, Car: car, Conn: conn}
	r.players[id] = p
	r.metrics.IncJoin()
	r.dirty = true

	b, err := protocol.EncodeEntity(car)
	if err != nil {
		r.log.Errorf("encode initial car: room=%s player=%s err=%v", r.ID, id, err)
		return
	}
	if conn != nil && !conn.Enqueue(b) {
		r.metrics.IncSendDropped()
	}
	r.log.Infof("player joined: room=%s player=%s", r.ID, id)
}

// leavePlayer 将玩家移出房间并关闭其连接
func (r *Room) leavePlayer(id PlayerID) {
	p, ok := r.players[id]
	if !ok {
		r.pendingLeaves[id] = struct{}{}
		r.Release(id)
		return
	}
	if p.Conn != nil {
		p.Conn.Close()
	}
	delete(r.players, id)
	r.Release(id)
	r.metrics.IncLeave()
	r.dirty = true
	r.log.Infof("player left: room=%s player=%s", r.ID, id)
}

// Broadcast 状态有变化时，给每位玩家下发除自己以外的同伴快照
func (r *Room) Broadcast() {
	if !r.dirty {
		return
	}
	r.dirty = false

	all := make([]protocol.PeerRecord, 0, len(r.players))
	for _, p := range r.players {
		all = append(all, p.peerRecord())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	for _, p := range r.players {
		if p.Conn == nil {
			continue
		}
		peers := make([]protocol.PeerRecord, 0, len(all))
		for _, rec := range all {
			if rec.ID != string(p.ID) {
				peers = append(peers, rec)
			}
		}
		b, err := protocol.EncodePeers(peers)
		if err != nil {
			r.log.Errorf("encode peers: room=%s err=%v", r.ID, err)
			return
		}
		if p.Conn.Enqueue(b) {
			r.metrics.IncSnapshotSent()
		} else {
			r.metrics.IncSendDropped()
		}
	}
}

// PlayerCount 当前在线人数（来自指标，可跨协程读取）
func (r *Room) PlayerCount() int {
	return int(atomic.LoadInt64(&r.metrics.Players))
}

// Stop 停止 Tick 并断开所有玩家
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

func (r *Room) closeAll() {
	for id := range r.players {
		r.leavePlayer(id)
	}
	r.metrics.SetPlayers(0)
}
