package client

import (
	"context"
	"testing"
	"time"

	"bumpercars/protocol"
)

// drift 测试用物理：每步沿 x 前进 1
type drift struct{ steps int }

func (d *drift) Step(e *protocol.Entity) {
	d.steps++
	e.X++
}

func openFake(t *testing.T, physics Physics) (*Session, *fakeConn) {
	t.Helper()
	f := newFakeConn()
	s, err := Open(context.Background(), Config{Addr: "ws://fake/ws", Dialer: fakeDialer(f)}, physics)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, f
}

func TestFrameWithoutLocalDoesNothing(t *testing.T) {
	d := &drift{}
	s, f := openFake(t, d)
	s.Frame()
	if d.steps != 0 {
		t.Fatalf("physics must not run before initial assignment")
	}
	select {
	case b := <-f.out:
		t.Fatalf("unexpected outbound %s", b)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestFrameStepsPhysicsAndSends(t *testing.T) {
	d := &drift{}
	s, f := openFake(t, d)
	f.in <- []byte(`{"id":"me","x":100,"y":100,"width":60,"height":80}`)

	deadline := time.Now().Add(2 * time.Second)
	for d.steps == 0 {
		s.Frame()
		if time.Now().After(deadline) {
			t.Fatalf("initial assignment never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	local, _ := s.Registry.Local()
	if local.X != 101 {
		t.Fatalf("expected x=101 after one step, got %s", local)
	}
	select {
	case b := <-f.out:
		e, err := protocol.DecodeEntity(b)
		if err != nil || e.X != 101 || e.ID != "me" {
			t.Fatalf("unexpected outbound %s err=%v", b, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected outbound update")
	}
}

func TestMutateSendsInputDrivenChange(t *testing.T) {
	s, f := openFake(t, nil)
	if s.Mutate(func(e *protocol.Entity) { e.X = 1 }) {
		t.Fatalf("mutate before initial assignment must fail")
	}
	if err := s.Channel.OnRemoteMessage([]byte(`{"x":0,"y":0,"width":60,"height":80}`)); err != nil {
		t.Fatalf("initial: %v", err)
	}
	if !s.Mutate(func(e *protocol.Entity) { e.Y = 42; e.Forward = true }) {
		t.Fatalf("mutate failed")
	}
	local, _ := s.Registry.Local()
	if local.Y != 42 || !local.Forward {
		t.Fatalf("mutation not applied: %s", local)
	}
	select {
	case <-f.out:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected outbound update")
	}
}

func TestRunStopsWhenConnectionCloses(t *testing.T) {
	s, f := openFake(t, nil)
	errc := make(chan error, 1)
	go func() { errc <- s.Run(context.Background()) }()

	_ = f.Close()
	select {
	case err := <-errc:
		if err == nil {
			t.Fatalf("expected connection error after transport close")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s, _ := openFake(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop")
	}
}
