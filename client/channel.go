package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bumpercars/logging"
	"bumpercars/protocol"
)

// State 连接状态：Connecting → Open → Closed，不自动重连
type State int32

const (
	// StateConnecting 只存在于 Connect 拨号期间；Connect 返回的 Channel 只会处于 Open 或 Closed
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event 一条入站快照被应用到 Registry 之后的通知
type Event struct {
	Kind  protocol.Kind
	Local protocol.Entity // KindInitial 时有效
	Peers int             // KindPeers 时为替换后的同伴数
}

// Option 调整 Channel 参数
type Option func(*Channel)

// WithDialer 替换底层拨号（测试用）
func WithDialer(d Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithSendQueue 发送队列容量，满则丢弃
func WithSendQueue(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.sendCap = n
		}
	}
}

// Channel 维护一条到服务端的连接：本地实体变化 → 上行消息；下行消息 → Registry 更新
type Channel struct {
	addr     string
	dialer   Dialer
	registry *Registry
	sendCap  int
	log      *zap.SugaredLogger

	conn  Conn
	state atomic.Int32
	send  chan []byte
	inbox chan []byte
	done  chan struct{}

	closeOnce sync.Once
	errMu     sync.Mutex
	err       error

	// 以下字段只在拥有者 goroutine 上访问
	baseline    protocol.Position
	hasBaseline bool
	listeners   []func(Event)
}

// Connect 建立连接；端点不可达时返回 *ConnectionError，成功后状态为 Open
func Connect(ctx context.Context, addr string, registry *Registry, opts ...Option) (*Channel, error) {
	c := &Channel{
		addr:     addr,
		dialer:   DialConn,
		registry: registry,
		sendCap:  64,
		log:      logging.Named("sync"),
		inbox:    make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.send = make(chan []byte, c.sendCap)
	c.state.Store(int32(StateConnecting))

	conn, err := c.dialer(ctx, addr)
	if err != nil {
		cerr := &ConnectionError{Addr: addr, Err: err}
		c.closeWith(cerr)
		c.log.Warnw("connect failed", "addr", addr, "err", err)
		return nil, cerr
	}
	c.conn = conn
	c.state.Store(int32(StateOpen))
	c.log.Infow("connected", "addr", addr)

	go c.writePump()
	go c.readPump()
	return c, nil
}

func (c *Channel) State() State { return State(c.state.Load()) }

// Done 在连接关闭后关闭
func (c *Channel) Done() <-chan struct{} { return c.done }

// Err 连接异常关闭的原因；主动 Close 时为 nil
func (c *Channel) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// OnChange 注册入站快照应用后的回调，在 Poll 所在 goroutine 上同步调用
func (c *Channel) OnChange(fn func(Event)) {
	c.listeners = append(c.listeners, fn)
}

// OnLocalChange 本地实体位置与上次观测不同时序列化并入队，返回是否入队
// 位置未变、连接未打开或队列已满时不发送
func (c *Channel) OnLocalChange(e protocol.Entity) bool {
	if c.State() != StateOpen {
		return false
	}
	pos := e.Position()
	if c.hasBaseline && pos == c.baseline {
		return false
	}
	b, err := protocol.EncodeEntity(e)
	if err != nil {
		c.log.Errorw("encode local entity", "entity", e.String(), "err", err)
		return false
	}
	select {
	case c.send <- b:
	default:
		// 队列满：不更新基线，下一帧重试
		c.log.Warnw("send queue full, dropping local update", "addr", c.addr)
		return false
	}
	c.baseline = pos
	c.hasBaseline = true
	return true
}

// OnRemoteMessage 解析并应用一帧下行消息
// 格式错误时返回 *protocol.ProtocolError：记录日志并丢弃，Registry 不变，连接保持打开
func (c *Channel) OnRemoteMessage(raw []byte) error {
	msg, err := protocol.Decode(raw)
	if err != nil {
		c.log.Warnw("dropping malformed message", "addr", c.addr, "err", err, "bytes", len(raw))
		return err
	}

	ev := Event{Kind: msg.Kind}
	switch msg.Kind {
	case protocol.KindInitial:
		c.registry.SetLocal(msg.Local)
		// 服务端分配的位置即为基线，避免原样回传
		c.baseline = msg.Local.Position()
		c.hasBaseline = true
		ev.Local = msg.Local
		c.log.Debugw("initial assignment", "entity", msg.Local.String())
	case protocol.KindPeers:
		c.registry.ReplacePeers(msg.Peers)
		ev.Peers = c.registry.PeerCount()
	}
	for _, fn := range c.listeners {
		fn(ev)
	}
	return nil
}

// Poll 在调用者 goroutine 上排空入站队列，返回处理的消息数（含被丢弃的坏消息）
func (c *Channel) Poll() int {
	n := 0
	for {
		select {
		case raw := <-c.inbox:
			_ = c.OnRemoteMessage(raw)
			n++
		default:
			return n
		}
	}
}

// Close 主动关闭连接，可重复调用
func (c *Channel) Close() error {
	c.closeWith(nil)
	return nil
}

func (c *Channel) closeWith(err error) {
	c.closeOnce.Do(func() {
		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()
		c.state.Store(int32(StateClosed))
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		if err != nil && c.conn != nil {
			c.log.Warnw("connection closed", "addr", c.addr, "err", err)
		}
	})
}

// readPump 只负责把原始帧转交给 inbox，不触碰 Registry
func (c *Channel) readPump() {
	for {
		payload, err := c.conn.ReadMessage()
		if err != nil {
			c.closeWith(&ConnectionError{Addr: c.addr, Err: err})
			return
		}
		select {
		case c.inbox <- payload:
		case <-c.done:
			return
		}
	}
}

// writePump 独立协程，从 send 队列按 FIFO 写出
func (c *Channel) writePump() {
	for {
		select {
		case msg := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := c.conn.WriteMessage(ctx, msg)
			cancel()
			if err != nil {
				c.closeWith(&ConnectionError{Addr: c.addr, Err: err})
				return
			}
		case <-c.done:
			return
		}
	}
}
