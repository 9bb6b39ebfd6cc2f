package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goodtune/sessiontimer/internal/metrics"
	"github.com/goodtune/sessiontimer/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultRecentLimit is the history length shown when none is configured.
const DefaultRecentLimit = 20

// Config holds tracker configuration
type Config struct {
	Clock Clock
	NewID func() string

	// Location anchors range boundaries (local midnight, Monday). Defaults
	// to the host's local zone.
	Location *time.Location
}

// Tracker applies category and session mutations on top of Records and
// answers the statistics queries.
type Tracker struct {
	records  *Records
	clock    Clock
	newID    func() string
	location *time.Location
	logger   zerolog.Logger

	// serializes read-modify-write cycles within this process
	mu sync.Mutex
}

// New creates a new tracker
func New(records *Records, config Config, logger zerolog.Logger) *Tracker {
	if config.Clock == nil {
		config.Clock = RealClock{}
	}
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	return &Tracker{
		records:  records,
		clock:    config.Clock,
		newID:    config.NewID,
		location: config.Location,
		logger:   logger.With().Str("component", "tracker").Logger(),
	}
}

// Records exposes the underlying record adapter.
func (t *Tracker) Records() *Records {
	return t.records
}

// Now returns the tracker's current instant in its display location.
func (t *Tracker) Now() time.Time {
	return t.clock.Now().In(t.location)
}

// Categories returns all categories in creation order.
func (t *Tracker) Categories(ctx context.Context) []storage.Category {
	return t.records.Categories(ctx)
}

// FindCategory looks a category up by id.
func (t *Tracker) FindCategory(ctx context.Context, id string) (storage.Category, bool) {
	for _, c := range t.records.Categories(ctx) {
		if c.ID == id {
			return c, true
		}
	}
	return storage.Category{}, false
}

// AddCategory creates a category named name (trimmed).
func (t *Tracker) AddCategory(ctx context.Context, name string) (storage.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Category{}, ErrEmptyName
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	category := storage.Category{ID: t.newID(), Name: name}
	categories := append(t.records.Categories(ctx), category)
	t.records.SetCategories(ctx, categories)

	metrics.CategoriesCreated.Inc()
	t.logger.Debug().
		Str("category_id", category.ID).
		Str("name", category.Name).
		Msg("Category created")

	return category, nil
}

// ActiveSession returns the running-session marker, or nil.
func (t *Tracker) ActiveSession(ctx context.Context) *storage.ActiveSession {
	return t.records.Active(ctx)
}

// Elapsed returns how long the active session has been running.
func (t *Tracker) Elapsed(ctx context.Context) (time.Duration, bool) {
	active := t.records.Active(ctx)
	if active == nil {
		return 0, false
	}
	start, err := storage.ParseInstant(active.StartTime)
	if err != nil {
		return 0, false
	}
	elapsed := t.clock.Now().Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed, true
}

// StartSession opens a session for categoryID and records the active
// marker. It refuses when a session is already running or the category
// does not exist; nothing is written in either case.
func (t *Tracker) StartSession(ctx context.Context, categoryID string) (storage.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.records.Active(ctx) != nil {
		return storage.Session{}, ErrActiveSession
	}

	var category *storage.Category
	for _, c := range t.records.Categories(ctx) {
		if c.ID == categoryID {
			category = &c
			break
		}
	}
	if category == nil {
		return storage.Session{}, fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}

	startTime := storage.FormatInstant(t.clock.Now())
	session := storage.Session{
		ID:           t.newID(),
		CategoryID:   category.ID,
		CategoryName: category.Name,
		StartTime:    startTime,
	}
	active := &storage.ActiveSession{
		CategoryID:   category.ID,
		CategoryName: category.Name,
		StartTime:    startTime,
	}

	sessions := append(t.records.Sessions(ctx), session)
	t.records.SaveTimer(ctx, sessions, active)

	metrics.SessionsStarted.Inc()
	metrics.ActiveSession.Set(1)
	t.logger.Debug().
		Str("session_id", session.ID).
		Str("category_id", category.ID).
		Str("start", startTime).
		Msg("Session started")

	return session, nil
}

// StopSession closes the open session that matches the active marker and
// clears the marker. When no open session matches, the marker is still
// cleared and (nil, nil) is returned.
func (t *Tracker) StopSession(ctx context.Context) (*storage.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := t.records.Active(ctx)
	if active == nil {
		return nil, ErrNoActiveSession
	}

	endTime := storage.FormatInstant(t.clock.Now())
	sessions := t.records.Sessions(ctx)

	for i := range sessions {
		s := &sessions[i]
		if !s.Open() || s.CategoryID != active.CategoryID {
			continue
		}
		s.EndTime = &endTime
		t.records.SaveTimer(ctx, sessions, nil)

		closed := *s
		metrics.SessionsStopped.WithLabelValues("closed").Inc()
		metrics.ActiveSession.Set(0)
		if d, err := closed.Duration(); err == nil {
			metrics.TrackedSeconds.WithLabelValues(closed.CategoryName).Add(d.Seconds())
		}
		t.logger.Debug().
			Str("session_id", closed.ID).
			Str("category_id", closed.CategoryID).
			Str("end", endTime).
			Msg("Session stopped")
		return &closed, nil
	}

	t.records.ClearActive(ctx)
	metrics.SessionsStopped.WithLabelValues("orphaned").Inc()
	metrics.ActiveSession.Set(0)
	t.logger.Warn().
		Str("category_id", active.CategoryID).
		Str("start", active.StartTime).
		Msg("Active marker had no open session; marker cleared")
	return nil, nil
}

// EditInput carries the replacement values for a stored session.
type EditInput struct {
	ID           string
	CategoryID   string
	CategoryName string
	Start        time.Time
	End          time.Time
}

// EditSession replaces the category and times of a completed session.
// It writes nothing when End is not after Start, the id is unknown or the
// session is still running.
func (t *Tracker) EditSession(ctx context.Context, in EditInput) error {
	if !in.End.After(in.Start) {
		return ErrInvalidRange
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	sessions := t.records.Sessions(ctx)
	for i := range sessions {
		if sessions[i].ID != in.ID {
			continue
		}
		if sessions[i].Open() {
			return ErrSessionRunning
		}
		endTime := storage.FormatInstant(in.End)
		sessions[i].CategoryID = in.CategoryID
		sessions[i].CategoryName = in.CategoryName
		sessions[i].StartTime = storage.FormatInstant(in.Start)
		sessions[i].EndTime = &endTime
		t.records.SetSessions(ctx, sessions)

		t.logger.Debug().
			Str("session_id", in.ID).
			Str("category_id", in.CategoryID).
			Msg("Session edited")
		return nil
	}
	return fmt.Errorf("%w: %s", ErrSessionNotFound, in.ID)
}

// EditSessionCategory edits a session, taking the category name from the
// current category list.
func (t *Tracker) EditSessionCategory(ctx context.Context, id, categoryID string, start, end time.Time) error {
	category, ok := t.FindCategory(ctx, categoryID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}
	return t.EditSession(ctx, EditInput{
		ID:           id,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Start:        start,
		End:          end,
	})
}

// DeleteSession removes a completed session. Unknown ids are ignored;
// the running session cannot be deleted.
func (t *Tracker) DeleteSession(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sessions := t.records.Sessions(ctx)
	kept := make([]storage.Session, 0, len(sessions))
	found := false
	for _, s := range sessions {
		if s.ID != id {
			kept = append(kept, s)
			continue
		}
		if s.Open() {
			return ErrSessionRunning
		}
		found = true
	}
	if !found {
		return nil
	}

	t.records.SetSessions(ctx, kept)
	t.logger.Debug().Str("session_id", id).Msg("Session deleted")
	return nil
}

// Sessions returns every stored session, including a running one.
func (t *Tracker) Sessions(ctx context.Context) []storage.Session {
	return t.records.Sessions(ctx)
}

// RecentSessions returns up to limit completed sessions, newest first.
func (t *Tracker) RecentSessions(ctx context.Context, limit int) []storage.Session {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	sessions := t.records.Sessions(ctx)
	recent := make([]storage.Session, 0, limit)
	for i := len(sessions) - 1; i >= 0 && len(recent) < limit; i-- {
		if sessions[i].Open() {
			continue
		}
		recent = append(recent, sessions[i])
	}
	return recent
}

// SessionsInRange returns completed sessions ending inside r as of now.
func (t *Tracker) SessionsInRange(ctx context.Context, r Range) []storage.Session {
	return FilterRange(t.records.Sessions(ctx), r, t.Now())
}

// Stats aggregates the sessions in r by category.
func (t *Tracker) Stats(ctx context.Context, r Range) Stats {
	now := t.Now()
	start, end := Bounds(r, now)
	totals := AggregateByCategory(FilterRange(t.records.Sessions(ctx), r, now))

	var total time.Duration
	for _, c := range totals {
		total += c.Total
	}
	return Stats{
		Range:  r,
		Start:  start,
		End:    end,
		Totals: totals,
		Total:  total,
	}
}
