package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goodtune/sessiontimer/internal/metrics"
	"github.com/goodtune/sessiontimer/internal/storage"
	"github.com/rs/zerolog"
)

// Keys names the three persisted records.
type Keys struct {
	Categories string
	Sessions   string
	Active     string
}

// DefaultKeys returns the record keys, optionally namespaced by prefix.
func DefaultKeys(prefix string) Keys {
	return Keys{
		Categories: prefix + "session_timer_categories",
		Sessions:   prefix + "session_timer_sessions",
		Active:     prefix + "session_timer_active",
	}
}

// Snapshot is the full persisted state.
type Snapshot struct {
	Categories []storage.Category
	Sessions   []storage.Session
	Active     *storage.ActiveSession
}

// Records reads and writes the categories, sessions and active-session
// records. Reads never fail: a missing key, an unavailable store or an
// undecodable value all yield the empty default. Write failures are
// logged and counted but not returned, except by Replace.
type Records struct {
	store  storage.Store
	keys   Keys
	logger zerolog.Logger
}

// NewRecords creates a record adapter over store. A nil store behaves as
// permanently unavailable.
func NewRecords(store storage.Store, keys Keys, logger zerolog.Logger) *Records {
	return &Records{
		store:  store,
		keys:   keys,
		logger: logger.With().Str("component", "records").Logger(),
	}
}

// Categories returns the stored category list, or an empty list.
func (r *Records) Categories(ctx context.Context) []storage.Category {
	categories, ok := readRecord[[]storage.Category](ctx, r, r.keys.Categories)
	if !ok {
		return []storage.Category{}
	}
	return withIDs(categories, func(c storage.Category) string { return c.ID })
}

// SetCategories replaces the stored category list.
func (r *Records) SetCategories(ctx context.Context, categories []storage.Category) {
	if categories == nil {
		categories = []storage.Category{}
	}
	r.write(ctx, r.keys.Categories, categories)
}

// Sessions returns the stored session list, or an empty list.
func (r *Records) Sessions(ctx context.Context) []storage.Session {
	sessions, ok := readRecord[[]storage.Session](ctx, r, r.keys.Sessions)
	if !ok {
		return []storage.Session{}
	}
	return withIDs(sessions, func(s storage.Session) string { return s.ID })
}

// SetSessions replaces the stored session list.
func (r *Records) SetSessions(ctx context.Context, sessions []storage.Session) {
	if sessions == nil {
		sessions = []storage.Session{}
	}
	r.write(ctx, r.keys.Sessions, sessions)
}

// Active returns the running-session marker, or nil.
func (r *Records) Active(ctx context.Context) *storage.ActiveSession {
	active, ok := readRecord[*storage.ActiveSession](ctx, r, r.keys.Active)
	if !ok || !active.Valid() {
		return nil
	}
	return active
}

// withIDs drops entries that decoded without an id, such as null list items.
func withIDs[T any](items []T, id func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if id(item) != "" {
			out = append(out, item)
		}
	}
	return out
}

// SetActive stores the marker. A nil marker removes the record.
func (r *Records) SetActive(ctx context.Context, active *storage.ActiveSession) {
	if active == nil {
		r.ClearActive(ctx)
		return
	}
	r.write(ctx, r.keys.Active, active)
}

// ClearActive deletes the marker record so that absence is unambiguous.
func (r *Records) ClearActive(ctx context.Context) {
	if r.store == nil {
		r.unavailable("delete", r.keys.Active)
		return
	}
	if err := r.store.Delete(ctx, r.keys.Active); err != nil {
		r.failed("delete", r.keys.Active, err)
	}
}

// Load reads all three records.
func (r *Records) Load(ctx context.Context) Snapshot {
	return Snapshot{
		Categories: r.Categories(ctx),
		Sessions:   r.Sessions(ctx),
		Active:     r.Active(ctx),
	}
}

// SaveTimer writes sessions and the active marker in one batch so the
// marker never disagrees with the open session.
func (r *Records) SaveTimer(ctx context.Context, sessions []storage.Session, active *storage.ActiveSession) {
	if sessions == nil {
		sessions = []storage.Session{}
	}
	mutations, err := timerMutations(r.keys, sessions, active)
	if err != nil {
		r.failed("encode", r.keys.Sessions, err)
		return
	}
	if r.store == nil {
		r.unavailable("write", r.keys.Sessions)
		return
	}
	if err := r.store.Apply(ctx, mutations); err != nil {
		r.failed("write", r.keys.Sessions, err)
	}
}

// Replace overwrites all three records as a unit. Batches are applied in
// the order categories, sessions, active.
func (r *Records) Replace(ctx context.Context, snapshot Snapshot) error {
	if r.store == nil {
		return fmt.Errorf("replace records: store unavailable")
	}

	categories := snapshot.Categories
	if categories == nil {
		categories = []storage.Category{}
	}
	catData, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	sessions := snapshot.Sessions
	if sessions == nil {
		sessions = []storage.Session{}
	}
	mutations, err := timerMutations(r.keys, sessions, snapshot.Active)
	if err != nil {
		return err
	}

	batch := append([]storage.Mutation{storage.Put(r.keys.Categories, catData)}, mutations...)
	if err := r.store.Apply(ctx, batch); err != nil {
		r.failed("replace", r.keys.Categories, err)
		return fmt.Errorf("replace records: %w", err)
	}
	return nil
}

func timerMutations(keys Keys, sessions []storage.Session, active *storage.ActiveSession) ([]storage.Mutation, error) {
	sessData, err := json.Marshal(sessions)
	if err != nil {
		return nil, fmt.Errorf("marshal sessions: %w", err)
	}
	mutations := []storage.Mutation{storage.Put(keys.Sessions, sessData)}

	if active == nil {
		return append(mutations, storage.Remove(keys.Active)), nil
	}
	activeData, err := json.Marshal(active)
	if err != nil {
		return nil, fmt.Errorf("marshal active session: %w", err)
	}
	return append(mutations, storage.Put(keys.Active, activeData)), nil
}

func readRecord[T any](ctx context.Context, r *Records, key string) (T, bool) {
	var zero T
	if r.store == nil {
		r.unavailable("read", key)
		return zero, false
	}

	data, err := r.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return zero, false
	}
	if err != nil {
		r.failed("read", key, err)
		return zero, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		r.failed("decode", key, err)
		return zero, false
	}
	return value, true
}

func (r *Records) write(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		r.failed("encode", key, err)
		return
	}
	if r.store == nil {
		r.unavailable("write", key)
		return
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		r.failed("write", key, err)
	}
}

func (r *Records) failed(op, key string, err error) {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	r.logger.Warn().
		Err(err).
		Str("op", op).
		Str("key", key).
		Msg("Record store operation failed, using empty default")
}

func (r *Records) unavailable(op, key string) {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	r.logger.Debug().
		Str("op", op).
		Str("key", key).
		Msg("Record store unavailable")
}
