package sidecar

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorePutWritesUnderLineDir(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root)

	ref, err := s.Put(context.Background(), 3, "out.png", "image/png", []byte("fake-png-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ref != filepath.Join("line_3", "out.png") {
		t.Fatalf("expected ref line_3/out.png, got %q", ref)
	}

	data, err := os.ReadFile(filepath.Join(root, ref))
	if err != nil {
		t.Fatalf("read written artifact: %v", err)
	}
	if string(data) != "fake-png-bytes" {
		t.Fatalf("unexpected artifact contents: %q", data)
	}
}

func TestLocalStorePutCreatesRootLazily(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does", "not", "exist", "yet")
	s := NewLocalStore(root)

	if _, err := s.Put(context.Background(), 0, "a.txt", "text/plain", []byte("hi")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "line_0", "a.txt")); err != nil {
		t.Fatalf("expected artifact to exist: %v", err)
	}
}

func TestLocalStorePutSeparatesLines(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root)

	ref0, err := s.Put(context.Background(), 0, "a.txt", "text/plain", []byte("line0"))
	if err != nil {
		t.Fatalf("Put line 0: %v", err)
	}
	ref1, err := s.Put(context.Background(), 1, "a.txt", "text/plain", []byte("line1"))
	if err != nil {
		t.Fatalf("Put line 1: %v", err)
	}
	if ref0 == ref1 {
		t.Fatalf("expected distinct refs per line, got %q for both", ref0)
	}
}
