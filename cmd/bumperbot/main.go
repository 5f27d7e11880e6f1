package main

import (
	"context"
	"flag"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bumpercars/client"
	"bumpercars/logging"
	"bumpercars/protocol"
)

// orbit 脚本化驾驶：绕出生点画圆，代替键盘 + 外部物理模块
type orbit struct {
	cx, cy  float64
	radius  float64
	step    float64
	theta   float64
	started bool
}

func (o *orbit) Step(e *protocol.Entity) {
	if !o.started {
		o.cx, o.cy = e.X-o.radius, e.Y
		o.started = true
	}
	o.theta = math.Mod(o.theta+o.step, 2*math.Pi)
	e.X = o.cx + o.radius*math.Cos(o.theta)
	e.Y = o.cy + o.radius*math.Sin(o.theta)
	e.Angle = math.Mod(o.theta+math.Pi/2, 2*math.Pi)
	e.Forward = true
}

// bumperbot 无界面客户端：连接服务端，打印同伴，可选绕圈驾驶
func main() {
	var (
		addr   string
		fps    int
		drive  bool
		radius float64
		report time.Duration
		debug  bool
	)
	flag.StringVar(&addr, "addr", client.DefaultAddr, "server websocket url")
	flag.IntVar(&fps, "fps", 60, "frame rate")
	flag.BoolVar(&drive, "drive", false, "drive a scripted orbit instead of standing still")
	flag.Float64Var(&radius, "radius", 50, "orbit radius when -drive is set")
	flag.DurationVar(&report, "report", 2*time.Second, "interval between peer reports")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	if err := logging.Init(logging.Options{Console: true, Debug: debug}); err != nil {
		panic(err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var physics client.Physics
	if drive {
		physics = &orbit{radius: radius, step: 0.02}
	}
	s, err := client.Open(ctx, client.Config{Addr: addr, FPS: fps}, physics)
	if err != nil {
		logging.Log.Fatalf("open session: %v", err)
	}
	defer s.Close()

	last := time.Now()
	s.Channel.OnChange(func(ev client.Event) {
		if ev.Kind == protocol.KindInitial {
			logging.Log.Infof("assigned %s", ev.Local)
			return
		}
		if time.Since(last) < report {
			return
		}
		last = time.Now()
		s.Registry.ForEach(func(id string, e protocol.Entity) {
			logging.Log.Infof("  %s", e)
		})
	})

	if err := s.Run(ctx); err != nil && err != context.Canceled {
		logging.Log.Warnf("session ended: %v", err)
	}
}
