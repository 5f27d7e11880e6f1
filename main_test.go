package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"bumpercars/server"
)

func TestMuxWithoutWebDirServesNoStaticFiles(t *testing.T) {
	rm := server.NewRoomManager()
	defer rm.Shutdown()
	mux := newMux(rm, "")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without web dir, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestMuxServesWebDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>bumpercars</h1>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	rm := server.NewRoomManager()
	defer rm.Shutdown()

	rec := httptest.NewRecorder()
	newMux(rm, dir).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "<h1>bumpercars</h1>" {
		t.Fatalf("expected index.html, got %d %q", rec.Code, rec.Body.String())
	}
}
