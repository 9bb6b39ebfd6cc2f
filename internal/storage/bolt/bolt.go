package bolt

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/sessiontimer/internal/storage"
	"go.etcd.io/bbolt"
)

const bucketRecords = "records"

// Store implements the storage.Store interface using bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store.
func Open(path string) (*Store, error) {
	if err := storage.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketRecords)); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketRecords, err)
		}
		return nil
	})
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketRecords))
		if b == nil {
			return storage.ErrNotFound
		}
		raw := b.Get([]byte(key))
		if raw == nil {
			return storage.ErrNotFound
		}
		// bbolt values are only valid for the life of the transaction
		value = append([]byte(nil), raw...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.Apply(ctx, []storage.Mutation{storage.Put(key, value)})
}

// Delete removes key. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.Apply(ctx, []storage.Mutation{storage.Remove(key)})
}

// Apply runs all mutations inside one read-write transaction.
func (s *Store) Apply(ctx context.Context, mutations []storage.Mutation) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketRecords))
		if b == nil {
			return fmt.Errorf("bucket missing: %s", bucketRecords)
		}
		for _, m := range mutations {
			if m.IsDelete() {
				if err := b.Delete([]byte(m.Key)); err != nil {
					return fmt.Errorf("delete %s: %w", m.Key, err)
				}
				continue
			}
			if err := b.Put([]byte(m.Key), m.Value); err != nil {
				return fmt.Errorf("put %s: %w", m.Key, err)
			}
		}
		return nil
	})
}
