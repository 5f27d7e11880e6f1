package client

import "context"

// Conn 一条双工文本帧连接；原生实现为 gorilla/websocket，js/wasm 下为 coder/websocket
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(ctx context.Context, b []byte) error
	Close() error
}

// Dialer 建立 Conn，测试中可替换
type Dialer func(ctx context.Context, addr string) (Conn, error)

// DefaultAddr 固定的本地服务地址
const DefaultAddr = "ws://localhost:8080/ws"
