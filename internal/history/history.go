// Package history keeps the bounded, newest-first record of past analyses.
package history

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ppiankov/securo/internal/kv"
	"github.com/ppiankov/securo/internal/logging"
	"github.com/ppiankov/securo/internal/model"
)

const (
	// Capacity is the maximum number of items kept
	Capacity = 5

	// StorageKey is the single entry holding the serialized sequence
	StorageKey = "securo-safe-history"
)

// Store is the in-memory history, mirrored to a kv.Store after every change
type Store struct {
	mu      sync.RWMutex
	items   []model.HistoryItem
	backend kv.Store
	logger  *log.Logger
	now     func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for ids
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger for persistence diagnostics
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logging.OrDiscard(logger).WithPrefix("history") }
}

// New creates an empty store over backend. Call Load to read persisted items.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logging.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store and loads persisted items
func Open(backend kv.Store, opts ...Option) *Store {
	s := New(backend, opts...)
	s.Load()
	return s
}

// Load replaces the in-memory sequence with the persisted one.
// A corrupt payload is discarded and history starts empty.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil

	data, found := s.backend.Get(StorageKey)
	if !found {
		return
	}

	var items []model.HistoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("discarding corrupt history", "err", err)
		if err := s.backend.Delete(StorageKey); err != nil {
			s.logger.Warn("failed to delete corrupt history", "err", err)
		}
		return
	}

	if len(items) > Capacity {
		s.logger.Warn("truncating persisted history", "items", len(items), "capacity", Capacity)
		items = items[:Capacity]
	}
	for i := range items {
		level := items[i].Report.ThreatLevel
		if normalized := level.Normalize(); normalized != level {
			s.logger.Warn("coercing persisted threat level", "id", items[i].ID, "got", level)
			items[i].Report.ThreatLevel = normalized
		}
	}

	s.items = items
	s.logger.Debug("history loaded", "items", len(items))
}

// Record creates an item for a successful analysis, prepends it and persists
// the truncated sequence. Persistence failures are logged, not returned.
func (s *Store) Record(userInput string, inputType model.InputType, report model.AnalysisReport) model.HistoryItem {
	item := model.HistoryItem{
		ID:        NewID(s.now()),
		UserInput: userInput,
		InputType: inputType,
		Report:    copyReport(report),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.HistoryItem, 0, Capacity)
	items = append(items, item)
	items = append(items, s.items...)
	if len(items) > Capacity {
		items = items[:Capacity]
	}
	s.items = items

	s.persist()
	return item
}

// Get returns the item with exactly this id
func (s *Store) Get(id string) (model.HistoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			return cloneItem(item), true
		}
	}
	return model.HistoryItem{}, false
}

// Items returns a newest-first copy of the sequence
func (s *Store) Items() []model.HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.HistoryItem, len(s.items))
	for i, item := range s.items {
		out[i] = cloneItem(item)
	}
	return out
}

// persist must be called with the lock held
func (s *Store) persist() {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Warn("failed to encode history", "err", err)
		return
	}
	if err := s.backend.Set(StorageKey, data); err != nil {
		s.logger.Warn("failed to persist history", "err", err)
	}
}

// NewID returns a time-ordered unique id: a zero-padded millisecond
// timestamp followed by a random UUID, so ids sort by creation time and
// stay distinct within the same millisecond.
func NewID(t time.Time) string {
	return fmt.Sprintf("%013d-%s", t.UnixMilli(), uuid.New().String())
}

func copyReport(r model.AnalysisReport) model.AnalysisReport {
	if r.EducationalTips != nil {
		r.EducationalTips = append([]string(nil), r.EducationalTips...)
	}
	return r
}

func cloneItem(item model.HistoryItem) model.HistoryItem {
	item.Report = copyReport(item.Report)
	return item
}
