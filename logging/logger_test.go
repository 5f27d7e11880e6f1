package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := Init(Options{File: path, Debug: true}); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _ = Init(Options{}) })

	Log.Infow("player joined", "room", "room-1")
	Named("sync").Debug("debug line")
	Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, "player joined") || !strings.Contains(out, "INFO") {
		t.Fatalf("expected info line, got %q", out)
	}
	if !strings.Contains(out, "sync") || !strings.Contains(out, "debug line") {
		t.Fatalf("expected named debug line, got %q", out)
	}
}

func TestInitWithoutSinksIsNop(t *testing.T) {
	if err := Init(Options{}); err != nil {
		t.Fatalf("init: %v", err)
	}
	Log.Info("discarded")
}
