package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bumpercars/logging"
	"bumpercars/server"
)

// bumpercars 中继服务入口：WebSocket 同步车辆位置，并初始化房间管理器
func main() {
	var (
		addr    string
		logFile string
		console bool
		debug   bool
		web     string
	)
	flag.StringVar(&addr, "addr", ":8080", "server listen address, e.g. :8080")
	flag.StringVar(&logFile, "log", "app.log", "log file path (rotated); empty disables file logging")
	flag.BoolVar(&console, "console", true, "also log to stderr")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.StringVar(&web, "web", "", "static asset directory served at /; empty serves no static files")
	flag.Parse()

	if err := logging.Init(logging.Options{File: logFile, Console: console, Debug: debug}); err != nil {
		panic(err)
	}
	defer logging.Sync()

	rm := server.GetRoomManager()
	// 先预创建一个默认房间，便于快速试跑
	_ = rm.GetOrCreateRoom(server.DefaultRoomID)

	srv := &http.Server{Addr: addr, Handler: newMux(rm, web)}

	go func() {
		logging.Log.Infof("bumpercars listening on %s; websocket at ws://localhost%v/ws", addr, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Log.Info("Shutting down...")

	rm.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Log.Warnf("shutdown: %v", err)
	}
}

// newMux 注册全部路由；web 为空时不挂载静态文件
func newMux(rm *server.RoomManager, web string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", rm.HandleWS)
	if web != "" {
		mux.Handle("/", http.FileServer(http.Dir(web)))
	}
	// 管理与监控接口
	mux.HandleFunc("/admin/config", rm.HandleAdminConfig)
	mux.HandleFunc("/metrics", rm.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
