package server

import "time"

const (
	// TicksPerSecond 世界推进频率（20 TPS）
	TicksPerSecond = 20
)

var tickInterval = time.Duration(1000/TicksPerSecond) * time.Millisecond // 50ms

// Tick 推进一帧：处理加入/上行/离开 → 广播同伴快照
func (r *Room) Tick() {
	start := time.Now()
	r.BeginTick()
	r.ProcessInputs()
	r.Broadcast()
	r.metrics.AddTick(time.Since(start).Nanoseconds())
}

// StartTicker 启动房间的 Tick 循环（单线程推进世界），重复调用无效
func (r *Room) StartTicker() {
	r.tickerOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(tickInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					r.Tick()
				case <-r.stop:
					r.closeAll()
					return
				}
			}
		}()
	})
}
