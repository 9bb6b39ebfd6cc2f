package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goodtune/sessiontimer/internal/storage"
	"github.com/goodtune/sessiontimer/internal/tracker"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies, import documents included.
const maxBodyBytes = 10 << 20

// Handler serves the tracker over HTTP.
type Handler struct {
	tracker      *tracker.Tracker
	location     *time.Location
	recentLimit  int
	defaultRange tracker.Range
	logger       zerolog.Logger
}

// NewHandler creates a new tracker handler.
func NewHandler(t *tracker.Tracker, cfg Config, logger zerolog.Logger) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		tracker:      t,
		location:     loc,
		recentLimit:  cfg.RecentLimit,
		defaultRange: tracker.ParseRange(cfg.DefaultRange),
		logger:       logger.With().Str("handler", "tracker").Logger(),
	}
}

// Register mounts the API routes on router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/categories", h.ListCategories).Methods("GET")
	api.HandleFunc("/categories", h.CreateCategory).Methods("POST")
	api.HandleFunc("/active", h.GetActive).Methods("GET")
	api.HandleFunc("/sessions", h.ListSessions).Methods("GET")
	api.HandleFunc("/sessions/start", h.StartSession).Methods("POST")
	api.HandleFunc("/sessions/stop", h.StopSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", h.EditSession).Methods("PUT")
	api.HandleFunc("/sessions/{id}", h.DeleteSession).Methods("DELETE")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/export", h.Export).Methods("GET")
	api.HandleFunc("/import", h.Import).Methods("POST")
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
	})
}

// ListCategories returns all categories in creation order.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.tracker.Categories(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory adds a category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.tracker.AddCategory(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, tracker.ErrEmptyName) {
			writeError(w, http.StatusBadRequest, "Category name is required")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to create category")
		writeError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

type activeResponse struct {
	Active    *storage.ActiveSession `json:"active"`
	ElapsedMS int64                  `json:"elapsedMs"`
	Elapsed   string                 `json:"elapsed"`
}

// GetActive returns the running session marker and its elapsed time.
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := activeResponse{Active: h.tracker.ActiveSession(ctx)}
	if elapsed, ok := h.tracker.Elapsed(ctx); ok {
		resp.ElapsedMS = elapsed.Milliseconds()
		resp.Elapsed = tracker.FormatShort(elapsed)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListSessions returns recent completed sessions, newest first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := h.recentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	sessions := h.tracker.RecentSessions(r.Context(), limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

type startSessionRequest struct {
	CategoryID string `json:"categoryId"`
}

// StartSession opens a session for the requested category.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CategoryID == "" {
		writeError(w, http.StatusBadRequest, "categoryId is required")
		return
	}

	session, err := h.tracker.StartSession(r.Context(), req.CategoryID)
	switch {
	case errors.Is(err, tracker.ErrActiveSession):
		writeError(w, http.StatusConflict, "A session is already running")
		return
	case errors.Is(err, tracker.ErrUnknownCategory):
		writeError(w, http.StatusNotFound, "Category not found")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("category_id", req.CategoryID).Msg("Failed to start session")
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// StopSession closes the running session.
func (h *Handler) StopSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.tracker.StopSession(r.Context())
	if err != nil {
		if errors.Is(err, tracker.ErrNoActiveSession) {
			writeError(w, http.StatusConflict, "No session is running")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to stop session")
		writeError(w, http.StatusInternalServerError, "Failed to stop session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
	})
}

type editSessionRequest struct {
	CategoryID string `json:"categoryId"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// EditSession replaces a session's category and times. Times are local
// wall-clock values (YYYY-MM-DDTHH:MM) or RFC 3339 instants.
func (h *Handler) EditSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req editSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, err := tracker.ParseLocalInput(req.Start, h.location)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid start: %v", err))
		return
	}
	end, err := tracker.ParseLocalInput(req.End, h.location)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid end: %v", err))
		return
	}

	err = h.tracker.EditSessionCategory(r.Context(), id, req.CategoryID, start, end)
	switch {
	case errors.Is(err, tracker.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "End time must be after start time")
		return
	case errors.Is(err, tracker.ErrUnknownCategory):
		writeError(w, http.StatusBadRequest, "Unknown category")
		return
	case errors.Is(err, tracker.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
		return
	case errors.Is(err, tracker.ErrSessionRunning):
		writeError(w, http.StatusConflict, "Stop the session before editing it")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to edit session")
		writeError(w, http.StatusInternalServerError, "Failed to edit session")
		return
	}

	h.logger.Info().Str("id", id).Msg("Session edited")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Session updated successfully",
	})
}

// DeleteSession removes a completed session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.tracker.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, tracker.ErrSessionRunning) {
			writeError(w, http.StatusConflict, "Stop the session before deleting it")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to delete session")
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Session deleted successfully",
	})
}

// GetStats aggregates sessions for the requested range.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	rng := h.defaultRange
	if raw := r.URL.Query().Get("range"); raw != "" {
		rng = tracker.ParseRange(raw)
	}

	writeJSON(w, http.StatusOK, h.tracker.Stats(r.Context(), rng))
}

// Export downloads every record as a JSON document.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc := h.tracker.ExportAll(r.Context())

	w.Header().Set("Content-Type", tracker.ExportMediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tracker.ExportFilename))
	w.WriteHeader(http.StatusOK)
	if err := doc.Encode(w); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write export")
	}
}

// Import replaces every record with the posted document.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.tracker.ImportAll(ctx, http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, tracker.ErrInvalidDocument) {
			writeError(w, http.StatusBadRequest, "Import file is not a valid export document")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to import document")
		writeError(w, http.StatusInternalServerError, "Failed to import data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Import applied successfully",
		"categories": len(h.tracker.Categories(ctx)),
		"sessions":   len(h.tracker.Sessions(ctx)),
	})
}
