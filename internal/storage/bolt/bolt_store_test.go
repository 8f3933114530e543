package bolt

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/internal/storage/storagetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), time.UTC)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return store
}

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return newTestStore(t) })
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, time.UTC)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	u, err := s.EnsureUser(t.Context(), 7, "paul")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path, time.UTC)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.GetUserByChat(t.Context(), 7)
	if err != nil || got != u {
		t.Fatalf("after reopen = %+v, %v; want %+v", got, err, u)
	}
}

func TestOpen_CreatesDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "habits.db")
	s, err := Open(path, time.UTC)
	if err != nil {
		t.Fatalf("Open with missing parent dir: %v", err)
	}
	defer s.Close()
	if _, err := s.EnsureUser(t.Context(), 1, ""); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
}

func TestProgressKeyOrdering(t *testing.T) {
	// habit 2's keys must not fall inside habit 1's range scans
	a := progressKey(1, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	b := progressKey(2, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	if string(a) >= string(b) {
		t.Fatalf("%s sorts after %s", a, b)
	}
}
