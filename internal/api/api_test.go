package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goodtune/sessiontimer/internal/storage"
	"github.com/goodtune/sessiontimer/internal/storage/bolt"
	"github.com/goodtune/sessiontimer/internal/tracker"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler http.Handler
	tracker *tracker.Tracker
	clock   *tracker.TestClock
}

func setupTestAPI(t *testing.T) *testEnv {
	t.Helper()

	store, err := bolt.Open(filepath.Join(t.TempDir(), "api.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := &tracker.TestClock{CurrentTime: time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)}
	seq := 0
	tr := tracker.New(tracker.NewRecords(store, tracker.DefaultKeys(""), zerolog.Nop()), tracker.Config{
		Clock:    clock,
		Location: time.UTC,
		NewID:    func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}, zerolog.Nop())

	server := NewServer(Config{Location: time.UTC, RecentLimit: 20, DefaultRange: "all"}, tr, zerolog.Nop())
	return &testEnv{handler: server.Handler(), tracker: tr, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	env := setupTestAPI(t)

	rec := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "healthy")
}

func TestCategoriesEndpoints(t *testing.T) {
	env := setupTestAPI(t)

	rec := env.do(t, http.MethodPost, "/api/categories", `{"name":"Work"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created storage.Category
	decode(t, rec, &created)
	require.Equal(t, "Work", created.Name)
	require.NotEmpty(t, created.ID)

	rec = env.do(t, http.MethodPost, "/api/categories", `{"name":"  "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Categories []storage.Category `json:"categories"`
		Count      int                `json:"count"`
	}
	decode(t, rec, &list)
	require.Equal(t, 1, list.Count)
	require.Equal(t, created, list.Categories[0])
}

func TestSessionLifecycle(t *testing.T) {
	env := setupTestAPI(t)
	ctx := context.Background()

	category, err := env.tracker.AddCategory(ctx, "Work")
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/sessions/start", fmt.Sprintf(`{"categoryId":%q}`, category.ID))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/sessions/start", fmt.Sprintf(`{"categoryId":%q}`, category.ID))
	require.Equal(t, http.StatusConflict, rec.Code)

	env.clock.Advance(61 * time.Second)
	rec = env.do(t, http.MethodGet, "/api/active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var active struct {
		Active    *storage.ActiveSession `json:"active"`
		ElapsedMS int64                  `json:"elapsedMs"`
		Elapsed   string                 `json:"elapsed"`
	}
	decode(t, rec, &active)
	require.NotNil(t, active.Active)
	require.Equal(t, int64(61000), active.ElapsedMS)
	require.Equal(t, "00:01:01", active.Elapsed)

	rec = env.do(t, http.MethodPost, "/api/sessions/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stopped struct {
		Session *storage.Session `json:"session"`
	}
	decode(t, rec, &stopped)
	require.NotNil(t, stopped.Session)
	require.False(t, stopped.Session.Open())

	rec = env.do(t, http.MethodPost, "/api/sessions/stop", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/active", "")
	decode(t, rec, &active)
	require.Nil(t, active.Active)
}

func TestStartUnknownCategory(t *testing.T) {
	env := setupTestAPI(t)

	rec := env.do(t, http.MethodPost, "/api/sessions/start", `{"categoryId":"missing"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/sessions/start", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessions(t *testing.T) {
	env := setupTestAPI(t)
	ctx := context.Background()

	end1 := "2025-03-10T10:00:00.000Z"
	end2 := "2025-03-11T10:00:00.000Z"
	env.tracker.Records().SetSessions(ctx, []storage.Session{
		{ID: "s1", CategoryID: "c1", CategoryName: "Work", StartTime: "2025-03-10T09:00:00.000Z", EndTime: &end1},
		{ID: "s2", CategoryID: "c1", CategoryName: "Work", StartTime: "2025-03-11T09:00:00.000Z", EndTime: &end2},
	})

	rec := env.do(t, http.MethodGet, "/api/sessions?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Sessions []storage.Session `json:"sessions"`
		Count    int               `json:"count"`
	}
	decode(t, rec, &list)
	require.Equal(t, 1, list.Count)
	require.Equal(t, "s2", list.Sessions[0].ID)

	rec = env.do(t, http.MethodGet, "/api/sessions?limit=zero", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditAndDeleteSession(t *testing.T) {
	env := setupTestAPI(t)
	ctx := context.Background()

	env.tracker.Records().SetCategories(ctx, []storage.Category{{ID: "c1", Name: "Work"}, {ID: "c2", Name: "Reading"}})
	end := "2025-03-10T10:00:00.000Z"
	env.tracker.Records().SetSessions(ctx, []storage.Session{
		{ID: "s1", CategoryID: "c1", CategoryName: "Work", StartTime: "2025-03-10T09:00:00.000Z", EndTime: &end},
	})

	rec := env.do(t, http.MethodPut, "/api/sessions/s1", `{"categoryId":"c2","start":"2025-03-10T08:00","end":"2025-03-10T07:00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/sessions/s1", `{"categoryId":"c2","start":"yesterday","end":"2025-03-10T07:00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/sessions/nope", `{"categoryId":"c2","start":"2025-03-10T08:00","end":"2025-03-10T09:30"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/sessions/s1", `{"categoryId":"c2","start":"2025-03-10T08:00","end":"2025-03-10T09:30"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	sessions := env.tracker.Sessions(ctx)
	require.Equal(t, "Reading", sessions[0].CategoryName)
	require.Equal(t, "2025-03-10T08:00:00.000Z", sessions[0].StartTime)
	require.Equal(t, "2025-03-10T09:30:00.000Z", *sessions[0].EndTime)

	rec = env.do(t, http.MethodDelete, "/api/sessions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, env.tracker.Sessions(ctx))
}

func TestDeleteRunningSession(t *testing.T) {
	env := setupTestAPI(t)
	ctx := context.Background()

	category, err := env.tracker.AddCategory(ctx, "Work")
	require.NoError(t, err)
	session, err := env.tracker.StartSession(ctx, category.ID)
	require.NoError(t, err)

	rec := env.do(t, http.MethodDelete, "/api/sessions/"+session.ID, "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	env := setupTestAPI(t)
	ctx := context.Background()

	end1 := "2025-03-10T10:00:00.000Z"
	end2 := "2025-03-10T11:30:00.000Z"
	end3 := "2025-03-11T10:00:00.000Z"
	env.tracker.Records().SetSessions(ctx, []storage.Session{
		{ID: "s1", CategoryID: "c1", CategoryName: "Work", StartTime: "2025-03-10T09:00:00.000Z", EndTime: &end1},
		{ID: "s2", CategoryID: "c2", CategoryName: "Reading", StartTime: "2025-03-10T10:00:00.000Z", EndTime: &end2},
		{ID: "s3", CategoryID: "c1", CategoryName: "Work", StartTime: "2025-03-11T09:00:00.000Z", EndTime: &end3},
	})

	rec := env.do(t, http.MethodGet, "/api/stats?range=week", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		Range      string `json:"range"`
		TotalMS    int64  `json:"totalMs"`
		Categories []struct {
			CategoryID string `json:"categoryId"`
			MS         int64  `json:"ms"`
		} `json:"categories"`
	}
	decode(t, rec, &stats)
	require.Equal(t, "week", stats.Range)
	require.Equal(t, int64(12600000), stats.TotalMS)
	require.Len(t, stats.Categories, 2)
	require.Equal(t, "c1", stats.Categories[0].CategoryID)
	require.Equal(t, int64(7200000), stats.Categories[0].MS)
	require.Equal(t, int64(5400000), stats.Categories[1].MS)

	rec = env.do(t, http.MethodGet, "/api/stats?range=decade", "")
	decode(t, rec, &stats)
	require.Equal(t, "all", stats.Range)
}

func TestExportImport(t *testing.T) {
	env := setupTestAPI(t)
	ctx := context.Background()

	_, err := env.tracker.AddCategory(ctx, "Work")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "session-timer-data.json")
	exported := rec.Body.Bytes()

	other := setupTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(exported))
	rec = httptest.NewRecorder()
	other.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, env.tracker.Categories(ctx), other.tracker.Categories(ctx))
}

func TestImportMalformed(t *testing.T) {
	env := setupTestAPI(t)
	ctx := context.Background()

	_, err := env.tracker.AddCategory(ctx, "Work")
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/import", `{"categories": [`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.tracker.Categories(ctx), 1)
}
