//go:build js && wasm

package client

import (
	"context"

	"github.com/coder/websocket"
)

// 浏览器中 gorilla 不可用，改用 coder/websocket（底层走浏览器 WebSocket）
type coderConn struct {
	ctx    context.Context
	cancel context.CancelFunc
	ws     *websocket.Conn
}

// DialConn 在 WASM 下将 addr 视为 ws:// URL
func DialConn(ctx context.Context, addr string) (Conn, error) {
	ws, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(1 << 20)
	connCtx, cancel := context.WithCancel(context.Background())
	return &coderConn{ctx: connCtx, cancel: cancel, ws: ws}, nil
}

func (c *coderConn) ReadMessage() ([]byte, error) {
	_, payload, err := c.ws.Read(c.ctx)
	return payload, err
}

func (c *coderConn) WriteMessage(ctx context.Context, b []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, b)
}

func (c *coderConn) Close() error {
	defer c.cancel()
	return c.ws.Close(websocket.StatusNormalClosure, "")
}
