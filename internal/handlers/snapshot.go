package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mind-insight/apiserver/internal/auth"
	"github.com/mind-insight/apiserver/internal/query"
	"github.com/mind-insight/apiserver/internal/services"
	"github.com/mind-insight/apiserver/types"
)

// SnapshotHandler archives and retrieves admin dashboard snapshots.
type SnapshotHandler struct {
	gate              *auth.Gate
	snapshots         *services.SnapshotService
	defaultWindowDays int
}

func NewSnapshotHandler(gate *auth.Gate, snapshots *services.SnapshotService, defaultWindowDays int) *SnapshotHandler {
	return &SnapshotHandler{
		gate:              gate,
		snapshots:         snapshots,
		defaultWindowDays: defaultWindowDays,
	}
}

// SnapshotRouter registers snapshot routes on the given router.
func SnapshotRouter(r chi.Router, gate *auth.Gate, snapshots *services.SnapshotService, defaultWindowDays int) {
	handler := NewSnapshotHandler(gate, snapshots, defaultWindowDays)

	r.Post("/", handler.Capture)
	r.Get("/*", handler.Fetch)
}

type SnapshotResponse struct {
	Key string `json:"key"`
}

// Capture archives the admin dashboard under the request's filters.
func (h *SnapshotHandler) Capture(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if err := h.gate.Authorize(session, types.RoleAdmin); err != nil {
		writeAuthError(w, err)
		return
	}

	params := r.URL.Query()
	filters, err := query.BuildFilter(query.RawFilters{
		StartDate:  params.Get("start_date"),
		EndDate:    params.Get("end_date"),
		Cohort:     params.Get("cohort"),
		Department: params.Get("department"),
		Campus:     params.Get("campus"),
	}, h.defaultWindowDays, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.snapshots.Capture(r.Context(), session, filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to capture snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, SnapshotResponse{Key: key})
}

// Fetch streams one archived snapshot document.
func (h *SnapshotHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if err := h.gate.Authorize(session, types.RoleAdmin); err != nil {
		writeAuthError(w, err)
		return
	}

	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, http.StatusBadRequest, "snapshot key is required")
		return
	}

	data, err := h.snapshots.Fetch(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
