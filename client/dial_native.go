//go:build !js || !wasm

package client

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

type gorillaConn struct {
	ws *websocket.Conn
}

// DialConn 原生平台使用 gorilla/websocket 建立连接
func DialConn(ctx context.Context, addr string) (Conn, error) {
	d := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	ws, _, err := d.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(1 << 20) // 1MB
	return &gorillaConn{ws: ws}, nil
}

func (c *gorillaConn) ReadMessage() ([]byte, error) {
	for {
		mt, payload, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			return payload, nil
		}
	}
}

func (c *gorillaConn) WriteMessage(ctx context.Context, b []byte) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(5 * time.Second)
	}
	c.ws.SetWriteDeadline(deadline)
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *gorillaConn) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.ws.Close()
}
