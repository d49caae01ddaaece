package kv

// LayeredStore fronts a durable store with memory
type LayeredStore struct {
	memory  Store
	durable Store
}

// NewLayeredStore creates a new layered store over durable
func NewLayeredStore(durable Store) *LayeredStore {
	return &LayeredStore{
		memory:  NewMemoryStore(),
		durable: durable,
	}
}

// Get retrieves a value (checks memory first, then the durable store)
func (s *LayeredStore) Get(key string) ([]byte, bool) {
	if val, found := s.memory.Get(key); found {
		return val, true
	}

	if val, found := s.durable.Get(key); found {
		// Promote to memory
		_ = s.memory.Set(key, val)
		return val, true
	}

	return nil, false
}

// Set writes through to the durable store first; memory is only
// updated when the durable write succeeded.
func (s *LayeredStore) Set(key string, value []byte) error {
	if err := s.durable.Set(key, value); err != nil {
		_ = s.memory.Delete(key)
		return err
	}
	return s.memory.Set(key, value)
}

// Delete removes a value from both layers
func (s *LayeredStore) Delete(key string) error {
	_ = s.memory.Delete(key)
	return s.durable.Delete(key)
}

// Clear removes all values from both layers
func (s *LayeredStore) Clear() error {
	_ = s.memory.Clear()
	return s.durable.Clear()
}

// Close closes the durable store
func (s *LayeredStore) Close() error {
	return Close(s.durable)
}
