package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSBackend reads documents from the local filesystem. When RootDir is set,
// references are resolved relative to it and traversal outside is rejected.
type FSBackend struct {
	RootDir string
}

func NewFSBackend(rootDir string) *FSBackend {
	return &FSBackend{RootDir: rootDir}
}

func (b *FSBackend) Name() string { return "fs" }

func (b *FSBackend) FetchBytes(_ context.Context, ref string) ([]byte, error) {
	path := ref
	if b.RootDir != "" {
		path = filepath.Join(b.RootDir, ref)
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		root, err := filepath.Abs(b.RootDir)
		if err != nil {
			return nil, err
		}
		if abs != root && !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
			return nil, fmt.Errorf("storage ref escapes root: %q", ref)
		}
		path = abs
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", ref, err)
	}
	return data, nil
}
