package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"test-manifest/core/manifest"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// Locker is implemented by backends that can hold an exclusive writer lock.
type Locker interface {
	// Lock blocks until the lock is held or ctx is done.
	Lock(ctx context.Context) (unlock func(), err error)
}

// FileBackend keeps the document in a local file.
type FileBackend struct {
	Path string
}

// NewFileBackend returns a backend for the document at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// Location returns the cleaned file path.
func (f *FileBackend) Location() string {
	return "file:" + filepath.Clean(f.Path)
}

// Open opens the document file.
func (f *FileBackend) Open(_ context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", manifest.ErrUnavailable, f.Path)
		}
		return nil, fmt.Errorf("%w: %v", manifest.ErrUnavailable, err)
	}
	return file, nil
}

// Save writes the document to a temporary file and renames it into place so
// readers never observe a partial document.
func (f *FileBackend) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temporary manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary manifest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temporary manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// Lock takes an exclusive lock on a sibling ".lock" file so only one process
// updates the document at a time.
func (f *FileBackend) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create manifest directory: %w", err)
	}

	locker := flock.New(f.Path + ".lock")
	ok, err := locker.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		_ = locker.Close()
		return nil, fmt.Errorf("lock %s: %w", f.Path, err)
	}
	if !ok {
		_ = locker.Close()
		return nil, fmt.Errorf("lock %s: not acquired", f.Path)
	}
	return func() { _ = locker.Close() }, nil
}
