package client

import (
	"context"
	"time"

	"bumpercars/protocol"
)

// Physics 外部物理/输入模块的能力面：按运动意图推进实体一步
// 运动学与碰撞由外部实现，核心只调用 Step
type Physics interface {
	Step(e *protocol.Entity)
}

// Config 客户端会话配置
type Config struct {
	Addr      string
	FPS       int // 帧循环频率，默认 60
	SendQueue int
	Dialer    Dialer // 为空则使用 DialConn
}

// Session 由上层应用持有的显式上下文：Registry + Channel + 物理模块
// 所有 Registry 变更都发生在调用 Frame 的 goroutine 上
type Session struct {
	Registry *Registry
	Channel  *Channel

	physics Physics
	fps     int
}

// Open 创建 Registry 并建立连接
func Open(ctx context.Context, cfg Config, physics Physics) (*Session, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}
	opts := []Option{WithSendQueue(cfg.SendQueue)}
	if cfg.Dialer != nil {
		opts = append(opts, WithDialer(cfg.Dialer))
	}

	reg := NewRegistry()
	ch, err := Connect(ctx, cfg.Addr, reg, opts...)
	if err != nil {
		return nil, err
	}
	return &Session{Registry: reg, Channel: ch, physics: physics, fps: cfg.FPS}, nil
}

// Frame 一帧：应用入站快照 → 物理步进 → 变化检测并发送
func (s *Session) Frame() {
	s.Channel.Poll()
	local, ok := s.Registry.Local()
	if !ok {
		return
	}
	if s.physics != nil {
		s.physics.Step(&local)
		s.Registry.SetLocal(local)
	}
	s.Channel.OnLocalChange(local)
}

// Mutate 输入驱动的本地修改；尚未收到初始分配时返回 false
func (s *Session) Mutate(fn func(e *protocol.Entity)) bool {
	local, ok := s.Registry.Local()
	if !ok {
		return false
	}
	fn(&local)
	s.Registry.SetLocal(local)
	s.Channel.OnLocalChange(local)
	return true
}

// Run 按 FPS 驱动 Frame，直到 ctx 结束或连接关闭
func (s *Session) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.Channel.Done():
			// 把关闭前已收到的快照应用完
			s.Channel.Poll()
			s.Channel.log.Infow("session stopped", "state", s.Channel.State().String())
			return s.Channel.Err()
		case <-ticker.C:
			s.Frame()
		}
	}
}

func (s *Session) Close() error {
	return s.Channel.Close()
}
