package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store is a byte-oriented key-value backend.
// Implementations: bolt (embedded file), redis, sqlite.
type Store interface {
	Close() error

	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete succeeds when key is already absent.
	Delete(ctx context.Context, key string) error
	// Apply writes every mutation in order as a single unit.
	Apply(ctx context.Context, mutations []Mutation) error
}

// Mutation is one write in an Apply batch. A nil Value deletes Key.
type Mutation struct {
	Key   string
	Value []byte
}

// Put returns a mutation that stores value under key.
func Put(key string, value []byte) Mutation {
	return Mutation{Key: key, Value: value}
}

// Remove returns a mutation that deletes key.
func Remove(key string) Mutation {
	return Mutation{Key: key}
}

// IsDelete reports whether the mutation removes its key.
func (m Mutation) IsDelete() bool {
	return m.Value == nil
}
