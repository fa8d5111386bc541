// Package storage abstracts where uploaded layer files live: the local
// filesystem by default, or an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store persists uploaded files under caller-chosen names. Save must fully
// write the file before returning; the returned size is the number of bytes
// actually persisted.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) (path string, size int64, err error)
	Remove(ctx context.Context, path string) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Local stores files in a directory on the local filesystem.
type Local struct {
	dir string
}

// NewLocal creates the upload directory if needed and returns a local store
// rooted there.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Save(_ context.Context, name string, r io.Reader) (string, int64, error) {
	path := filepath.Join(l.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write file: %w", err)
	}
	return path, size, nil
}

func (l *Local) Remove(_ context.Context, path string) error {
	return os.Remove(path)
}

func (l *Local) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}
