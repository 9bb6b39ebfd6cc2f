package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goodtune/sessiontimer/internal/config"
	"github.com/goodtune/sessiontimer/internal/storage"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	// miniredis.Addr() returns "host:port", so Port stays zero
	cfg := config.RedisConfig{
		Host:         mr.Addr(),
		Port:         0,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	}

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}

	return store, mr
}

func TestStore_GetMissing(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	_, err := store.Get(context.Background(), "session_timer_active")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	payload := `{"categoryId":"c1","categoryName":"Work","startTime":"2025-01-01T10:00:00.000Z"}`

	if err := store.Set(ctx, "session_timer_active", []byte(payload)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	raw, err := mr.Get("session_timer_active")
	if err != nil {
		t.Fatalf("miniredis get: %v", err)
	}
	if raw != payload {
		t.Errorf("Expected raw %s, got %s", payload, raw)
	}

	value, err := store.Get(ctx, "session_timer_active")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != payload {
		t.Errorf("Expected %s, got %s", payload, value)
	}

	if err := store.Delete(ctx, "session_timer_active"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if mr.Exists("session_timer_active") {
		t.Error("Expected key to be removed")
	}
}

func TestStore_Apply(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := mr.Set("active", "{}"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := store.Apply(ctx, []storage.Mutation{
		storage.Put("categories", []byte(`[{"id":"c1","name":"Work"}]`)),
		storage.Put("sessions", []byte(`[]`)),
		storage.Remove("active"),
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	categories, err := mr.Get("categories")
	if err != nil {
		t.Fatalf("categories missing: %v", err)
	}
	if categories != `[{"id":"c1","name":"Work"}]` {
		t.Errorf("Unexpected categories %s", categories)
	}
	sessions, err := mr.Get("sessions")
	if err != nil || sessions != "[]" {
		t.Errorf("Unexpected sessions %q (err %v)", sessions, err)
	}
	if mr.Exists("active") {
		t.Error("Expected active to be deleted")
	}
}

func TestStore_ApplyEmptyBatch(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	if err := store.Apply(context.Background(), nil); err != nil {
		t.Fatalf("Apply with no mutations failed: %v", err)
	}
}

func TestOpen_InvalidTimeout(t *testing.T) {
	_, err := Open(config.RedisConfig{Host: "localhost", DialTimeout: "soon"})
	if err == nil {
		t.Fatal("Expected error for invalid dial timeout")
	}
}

func TestOpen_Unreachable(t *testing.T) {
	_, err := Open(config.RedisConfig{
		Host:         "127.0.0.1",
		Port:         1,
		DialTimeout:  "200ms",
		ReadTimeout:  "200ms",
		WriteTimeout: "200ms",
	})
	if err == nil {
		t.Fatal("Expected error when Redis is unreachable")
	}
}
