// Package kv provides the small key-value stores that back persisted state.
package kv

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Delete when the key does not exist
var ErrNotFound = errors.New("key not found")

// Store defines the interface for durable key-value storage.
// Set must be all-or-nothing: a failed write leaves the previous value intact.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
}

// Closer is implemented by stores holding resources such as a database handle
type Closer interface {
	Close() error
}

// Close releases store resources when it holds any
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}

// Backends accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open returns the store for backend. For "file" path is a directory,
// for "sqlite" a database file; "memory" ignores path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewLayeredStore(NewDiskStore(path)), nil
	case BackendSQLite:
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return NewLayeredStore(db), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (supported: file, sqlite, memory)", backend)
	}
}
