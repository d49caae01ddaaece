package kv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps one file per key under dir
type DiskStore struct {
	dir string
}

// NewDiskStore creates a new disk store. The directory is created on first write.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Get retrieves a value from disk
func (s *DiskStore) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set writes value to a temp file and renames it over the old one,
// so readers see either the old or the new value.
func (s *DiskStore) Set(key string, value []byte) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// Delete removes a value from disk
func (s *DiskStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// Clear removes every stored value but keeps the directory
func (s *DiskStore) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store dir: %w", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".json") {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

// path generates the file path for a key
func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
