package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// FileStore writes one JSON file per key under dir.
type FileStore struct {
	fs  afero.Fs
	dir string
}

func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

// NewMemoryStore keeps blobs in process memory only.
func NewMemoryStore() *FileStore {
	s, _ := NewFileStore(afero.NewMemMapFs(), "/snapshots")
	return s
}

// Save writes through a temp file and renames it into place.
func (s *FileStore) Save(_ context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	tmp := filepath.Join(s.dir, "."+key+"."+uuid.NewString()[:8]+".tmp")
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, s.path(key)); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
