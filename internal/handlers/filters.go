package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mind-insight/apiserver/internal/auth"
	"github.com/mind-insight/apiserver/internal/query"
	"github.com/mind-insight/apiserver/internal/store"
	"github.com/mind-insight/apiserver/types"
)

// FiltersHandler serves the distinct filter values backing the dropdowns.
type FiltersHandler struct {
	lookups *store.LookupStore
}

func NewFiltersHandler(lookups *store.LookupStore) *FiltersHandler {
	return &FiltersHandler{lookups: lookups}
}

// FiltersRouter registers filter lookup routes on the given router.
func FiltersRouter(r chi.Router, lookups *store.LookupStore) {
	handler := NewFiltersHandler(lookups)
	r.Get("/options", handler.Options)
}

type FilterOptionsResponse struct {
	Dimension string   `json:"dimension"`
	Values    []string `json:"values"`
}

// Options returns the selectable values for one dimension, sentinel
// first. The lookups feed every dashboard's dropdowns, so any
// authenticated role may read them; anonymous callers may not. Severity
// is a fixed enum and needs no lookup.
func (h *FiltersHandler) Options(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if !session.Authenticated {
		writeAuthError(w, auth.ErrUnauthenticated)
		return
	}

	dimension := r.URL.Query().Get("dimension")
	if dimension == "" {
		writeError(w, http.StatusBadRequest, "dimension is required")
		return
	}

	if query.Dimension(dimension) == query.DimSeverity {
		values := make([]string, 0, len(types.Severities))
		for _, severity := range types.Severities {
			values = append(values, string(severity))
		}
		writeJSON(w, http.StatusOK, FilterOptionsResponse{Dimension: dimension, Values: values})
		return
	}

	values, err := h.lookups.Options(r.Context(), query.Dimension(dimension))
	if err != nil {
		if errors.Is(err, store.ErrUnknownDimension) {
			writeError(w, http.StatusBadRequest, "unknown dimension")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load filter options")
		return
	}

	writeJSON(w, http.StatusOK, FilterOptionsResponse{
		Dimension: dimension,
		Values:    append([]string{types.FilterAll}, values...),
	})
}
