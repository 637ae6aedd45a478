// Package storage persists uploaded avatars either on local disk or in an
// S3 bucket, selected by avatars.type in the config.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store writes an avatar blob and returns the public path or URL it will
// be served from.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// LocalStore keeps avatars under a directory served as /uploads.
type LocalStore struct {
	Dir string
}

func NewLocal(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory, %w", err)
	}

	return &LocalStore{Dir: dir}, nil
}

func (l *LocalStore) Save(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	path := filepath.Join(l.Dir, filepath.Base(key))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file, %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write avatar file, %w", err)
	}

	return "/uploads/avatars/" + filepath.Base(key), nil
}
