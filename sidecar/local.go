package sidecar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes artifacts under <root>/line_<index>/<name>, returning a
// path relative to root for embedding in outputs.jsonl.
type LocalStore struct {
	root string
}

// NewLocalStore builds a LocalStore rooted at dir. The directory is created
// lazily on the first Put.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

func (s *LocalStore) Put(_ context.Context, lineIndex int, name, mime string, data []byte) (string, error) {
	_ = mime
	lineDir := filepath.Join(s.root, fmt.Sprintf("line_%d", lineIndex))
	if err := os.MkdirAll(lineDir, 0o755); err != nil {
		return "", fmt.Errorf("sidecar: create line dir: %w", err)
	}
	full := filepath.Join(lineDir, name)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("sidecar: write artifact: %w", err)
	}
	return filepath.Join(fmt.Sprintf("line_%d", lineIndex), name), nil
}
