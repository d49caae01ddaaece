package kv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "securo.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Store{
		"memory":  NewMemoryStore(),
		"disk":    NewDiskStore(t.TempDir()),
		"sqlite":  db,
		"layered": NewLayeredStore(NewDiskStore(t.TempDir())),
	}
}

func TestStores_SetGetDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, found := store.Get("missing"); found {
				t.Error("Expected missing key to be absent")
			}

			if err := store.Set("history", []byte(`[1]`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := store.Set("history", []byte(`[2]`)); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}

			val, found := store.Get("history")
			if !found || string(val) != `[2]` {
				t.Errorf("Expected [2], got %q (found=%v)", val, found)
			}

			if err := store.Delete("history"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, found := store.Get("history"); found {
				t.Error("Expected key to be gone after Delete")
			}
			if err := store.Delete("history"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound on second delete, got %v", err)
			}
		})
	}
}

func TestStores_Clear(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_ = store.Set("a", []byte("1"))
			_ = store.Set("b", []byte("2"))

			if err := store.Clear(); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}
			if _, found := store.Get("a"); found {
				t.Error("Expected a to be cleared")
			}
			if _, found := store.Get("b"); found {
				t.Error("Expected b to be cleared")
			}
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	store := NewMemoryStore()
	value := []byte("abc")
	_ = store.Set("k", value)
	value[0] = 'x'

	got, _ := store.Get("k")
	if string(got) != "abc" {
		t.Errorf("Stored value aliased caller slice: %q", got)
	}
}

func TestDiskStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	if err := NewDiskStore(dir).Set("history", []byte("saved")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found := NewDiskStore(dir).Get("history")
	if !found || string(val) != "saved" {
		t.Errorf("Expected value from a fresh instance, got %q", val)
	}

	// No temp files left behind
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected exactly one file, got %d", len(entries))
	}
}

func TestSQLiteStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	if err := db.Set("history", []byte("saved")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	_ = db.Close()

	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	val, found := db.Get("history")
	if !found || string(val) != "saved" {
		t.Errorf("Expected persisted value, got %q", val)
	}
}

// failingStore rejects every write
type failingStore struct{ MemoryStore }

func (f *failingStore) Set(key string, value []byte) error {
	return errors.New("disk full")
}

func TestLayeredStore_FailedWriteKeepsOldValue(t *testing.T) {
	durable := &failingStore{MemoryStore: *NewMemoryStore()}
	_ = durable.MemoryStore.Set("k", []byte("old"))

	layered := NewLayeredStore(durable)
	if err := layered.Set("k", []byte("new")); err == nil {
		t.Fatal("Expected write error")
	}

	val, _ := layered.Get("k")
	if string(val) != "old" {
		t.Errorf("Expected old value after failed write, got %q", val)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{BackendFile, BackendMemory} {
		store, err := Open(backend, dir)
		if err != nil {
			t.Fatalf("Open(%s) failed: %v", backend, err)
		}
		if err := Close(store); err != nil {
			t.Errorf("Close(%s) failed: %v", backend, err)
		}
	}

	store, err := Open(BackendSQLite, filepath.Join(dir, "h.db"))
	if err != nil {
		t.Fatalf("Open(sqlite) failed: %v", err)
	}
	if err := Close(store); err != nil {
		t.Errorf("Close(sqlite) failed: %v", err)
	}

	if _, err := Open("redis", dir); err == nil {
		t.Error("Expected error for unknown backend")
	}
}
