package tracker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/goodtune/sessiontimer/internal/storage"
	"github.com/goodtune/sessiontimer/internal/storage/bolt"
	"github.com/rs/zerolog"
)

var errStoreDown = errors.New("store unavailable")

// failingStore rejects every operation.
type failingStore struct{}

func (failingStore) Close() error { return nil }
func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errStoreDown
}
func (failingStore) Set(context.Context, string, []byte) error { return errStoreDown }
func (failingStore) Delete(context.Context, string) error       { return errStoreDown }
func (failingStore) Apply(context.Context, []storage.Mutation) error {
	return errStoreDown
}

func openTestStore(t *testing.T) storage.Store {
	t.Helper()

	store, err := bolt.Open(filepath.Join(t.TempDir(), "tracker.bolt"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestTracker(t *testing.T) (*Tracker, *TestClock, storage.Store) {
	t.Helper()

	store := openTestStore(t)
	clock := &TestClock{CurrentTime: time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)}
	seq := 0
	tr := New(NewRecords(store, DefaultKeys(""), zerolog.Nop()), Config{
		Clock:    clock,
		Location: time.UTC,
		NewID:    func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}, zerolog.Nop())
	return tr, clock, store
}

func completed(id, categoryID, categoryName, start, end string) storage.Session {
	return storage.Session{
		ID:           id,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		StartTime:    start,
		EndTime:      &end,
	}
}

func running(id, categoryID, categoryName, start string) storage.Session {
	return storage.Session{
		ID:           id,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		StartTime:    start,
	}
}
