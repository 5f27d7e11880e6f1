package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"bumpercars/client"
)

func startServer(t *testing.T) (*RoomManager, string) {
	t.Helper()
	rm := NewRoomManager()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", rm.HandleWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		rm.Shutdown()
		srv.Close()
	})
	return rm, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

// eventually 在测试 goroutine 上反复 Poll，直到条件成立
func eventually(t *testing.T, what string, chans []*client.Channel, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		for _, ch := range chans {
			ch.Poll()
		}
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func connect(t *testing.T, url string) (*client.Channel, *client.Registry) {
	t.Helper()
	reg := client.NewRegistry()
	ch, err := client.Connect(context.Background(), url, reg)
	if err != nil {
		t.Fatalf("connect %s: %v", url, err)
	}
	t.Cleanup(func() { _ = ch.Close() })
	return ch, reg
}

func TestRelayEndToEnd(t *testing.T) {
	rm, base := startServer(t)

	chA, regA := connect(t, base+"?room=e2e&player=a")
	chB, regB := connect(t, base+"?room=e2e&player=b")
	both := []*client.Channel{chA, chB}

	eventually(t, "both players see each other", both, func() bool {
		_, okA := regA.Peer("b")
		_, okB := regB.Peer("a")
		localA, hasA := regA.Local()
		return okA && okB && hasA && localA.ID == "a"
	})

	localB, _ := regB.Local()
	if !chB.OnLocalChange(localB.MoveTo(150, 100)) {
		t.Fatalf("expected update to be enqueued")
	}
	eventually(t, "a sees b move", both, func() bool {
		b, ok := regA.Peer("b")
		return ok && b.X == 150
	})
	if regA.Len() != 2 {
		t.Fatalf("expected local + one peer, got %d", regA.Len())
	}

	_ = chB.Close()
	eventually(t, "a sees b leave", both, func() bool {
		return regA.PeerCount() == 0
	})

	room, ok := rm.Room("e2e")
	if !ok {
		t.Fatalf("room e2e not created")
	}
	if got := room.Metrics().Snapshot()["updates_accepted"].(int64); got < 1 {
		t.Fatalf("expected accepted updates, got %d", got)
	}
}

func TestDuplicatePlayerRejected(t *testing.T) {
	_, base := startServer(t)
	chA, regA := connect(t, base+"?room=dup&player=a")
	eventually(t, "a assigned", []*client.Channel{chA}, func() bool {
		_, ok := regA.Local()
		return ok
	})

	_, err := client.Connect(context.Background(), base+"?room=dup&player=a", client.NewRegistry())
	var cerr *client.ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConnectionError for duplicate id, got %v", err)
	}
}

func TestAnonymousPlayerGetsUUID(t *testing.T) {
	_, base := startServer(t)
	ch, reg := connect(t, base+"?room=anon")
	eventually(t, "assigned", []*client.Channel{ch}, func() bool {
		local, ok := reg.Local()
		return ok && len(local.ID) == 36
	})
}

func TestMalformedUpdateIsCounted(t *testing.T) {
	rm, base := startServer(t)
	ws, _, err := websocket.DefaultDialer.Dial(base+"?room=bad&player=x", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	if err := ws.WriteMessage(websocket.TextMessage, []byte("garbage")); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		room, ok := rm.Room("bad")
		if ok && room.Metrics().Snapshot()["malformed"].(int64) == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("malformed update was not counted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
