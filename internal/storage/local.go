package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements the Storage interface using local disk.
// Objects are files under a base directory; writes go to a temporary
// file first and are renamed into place.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates a new LocalStorage instance.
// If dir is empty, a jobfeed directory under os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "jobfeed")
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	return &LocalStorage{dir: dir}, nil
}

// Dir returns the base directory path.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save writes data to the file for key atomically.
func (s *LocalStorage) Save(ctx context.Context, key string, data io.Reader) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	path, err := s.path(key)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp_*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Load opens the file for key.
func (s *LocalStorage) Load(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) // #nosec G304 - path is confined to the data directory
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open file: %w", err)
	}

	return f, nil
}

// path maps key to a file inside the base directory.
func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean(key)
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	if strings.ContainsRune(clean, filepath.Separator) {
		if err := os.MkdirAll(filepath.Join(s.dir, filepath.Dir(clean)), 0750); err != nil {
			return "", fmt.Errorf("create key directory: %w", err)
		}
	}
	return filepath.Join(s.dir, clean), nil
}
