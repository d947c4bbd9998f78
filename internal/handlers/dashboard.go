package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mind-insight/apiserver/internal/auth"
	"github.com/mind-insight/apiserver/internal/query"
	"github.com/mind-insight/apiserver/internal/services"
	"github.com/mind-insight/apiserver/types"
)

// dashboardRoles maps the URL segment to the role that owns the view.
var dashboardRoles = map[string]types.Role{
	"student":   types.RoleStudent,
	"faculty":   types.RoleFaculty,
	"developer": types.RoleDeveloper,
	"admin":     types.RoleAdmin,
}

// DashboardHandler serves the role-gated dashboard views.
type DashboardHandler struct {
	gate              *auth.Gate
	dashboards        *services.DashboardService
	defaultWindowDays int
}

func NewDashboardHandler(gate *auth.Gate, dashboards *services.DashboardService, defaultWindowDays int) *DashboardHandler {
	return &DashboardHandler{
		gate:              gate,
		dashboards:        dashboards,
		defaultWindowDays: defaultWindowDays,
	}
}

// DashboardRouter registers dashboard routes on the given router.
func DashboardRouter(r chi.Router, gate *auth.Gate, dashboards *services.DashboardService, defaultWindowDays int) {
	handler := NewDashboardHandler(gate, dashboards, defaultWindowDays)

	r.Get("/{dashboard}", handler.GetDashboard)
	r.Get("/{dashboard}/sections/{templateID}", handler.GetSection)
}

// GetDashboard runs every template the dashboard's role owns. The
// authorize call comes first and short-circuits the view on failure;
// nothing renders after a denial.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	role, ok := dashboardRoles[chi.URLParam(r, "dashboard")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown dashboard")
		return
	}

	session := auth.SessionFromContext(r.Context())
	if err := h.gate.Authorize(session, role); err != nil {
		writeAuthError(w, err)
		return
	}

	filters, err := h.parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.dashboards.ValidateMembership(r.Context(), filters); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dashboard, err := h.dashboards.RunDashboard(r.Context(), session, role, filters)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// GetSection runs a single catalog template. A query failure degrades to
// an empty section with an error summary rather than a failed response.
func (h *DashboardHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	role, ok := dashboardRoles[chi.URLParam(r, "dashboard")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown dashboard")
		return
	}

	templateID := query.TemplateID(chi.URLParam(r, "templateID"))
	template, err := query.Lookup(templateID)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown template")
		return
	}
	if template.Role != role {
		writeError(w, http.StatusNotFound, "template does not belong to this dashboard")
		return
	}

	session := auth.SessionFromContext(r.Context())
	if err := h.gate.Authorize(session, role); err != nil {
		writeAuthError(w, err)
		return
	}

	filters, err := h.parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.dashboards.ValidateMembership(r.Context(), filters); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	section := services.Section{TemplateID: templateID}
	result, err := h.dashboards.RunTemplate(r.Context(), session, templateID, filters)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) || errors.Is(err, auth.ErrForbidden) {
			writeAuthError(w, err)
			return
		}
		section.Result = types.ResultSet{Rows: []types.Row{}}
		section.Error = err.Error()
	} else {
		section.Result = result
	}
	writeJSON(w, http.StatusOK, section)
}

func (h *DashboardHandler) parseFilters(r *http.Request) (types.FilterSpec, error) {
	params := r.URL.Query()
	raw := query.RawFilters{
		StartDate:  params.Get("start_date"),
		EndDate:    params.Get("end_date"),
		Cohort:     params.Get("cohort"),
		Department: params.Get("department"),
		Campus:     params.Get("campus"),
		APIName:    params.Get("api_name"),
		Location:   params.Get("location"),
		Severity:   params.Get("severity"),
	}
	return query.BuildFilter(raw, h.defaultWindowDays, time.Now())
}
