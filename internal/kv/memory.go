package kv

import (
	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore implements in-process storage that never expires
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a new memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get retrieves a copy of the stored value
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	if val, found := s.cache.Get(key); found {
		return clone(val.([]byte)), true
	}
	return nil, false
}

// Set stores a copy of value
func (s *MemoryStore) Set(key string, value []byte) error {
	s.cache.Set(key, clone(value), gocache.NoExpiration)
	return nil
}

// Delete removes a value
func (s *MemoryStore) Delete(key string) error {
	if _, found := s.cache.Get(key); !found {
		return ErrNotFound
	}
	s.cache.Delete(key)
	return nil
}

// Clear removes all values
func (s *MemoryStore) Clear() error {
	s.cache.Flush()
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
