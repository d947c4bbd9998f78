package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mind-insight/apiserver/internal/audit"
	"github.com/mind-insight/apiserver/internal/auth"
	"github.com/mind-insight/apiserver/internal/query"
	"github.com/mind-insight/apiserver/types"
)

// QueryExecutor runs a built query. Satisfied by query.Executor.
type QueryExecutor interface {
	Execute(ctx context.Context, built query.BuiltQuery) (types.ResultSet, error)
}

// MembershipChecker answers whether a filter value exists in the backing
// data. Satisfied by store.LookupStore.
type MembershipChecker interface {
	Contains(ctx context.Context, dim query.Dimension, value string) (bool, error)
}

// Section is one template's output within a dashboard. A failed template
// degrades to an empty result plus an error summary; the rest of the
// dashboard still renders.
type Section struct {
	TemplateID query.TemplateID `json:"template_id"`
	Result     types.ResultSet  `json:"result"`
	Error      string           `json:"error,omitempty"`
}

// Dashboard is the full response for one role's view.
type Dashboard struct {
	Role     types.Role       `json:"role"`
	Filters  types.FilterSpec `json:"filters"`
	Sections []Section        `json:"sections"`
}

// DashboardService runs catalog templates for authorized sessions. Each
// call is a short sequential chain: authorize, build, execute, report.
type DashboardService struct {
	gate    *auth.Gate
	exec    QueryExecutor
	audit   *audit.Publisher
	lookups MembershipChecker
}

// NewDashboardService wires the service. audit and lookups may be nil;
// auditing becomes a no-op and membership validation is skipped.
func NewDashboardService(gate *auth.Gate, exec QueryExecutor, auditPub *audit.Publisher, lookups MembershipChecker) *DashboardService {
	return &DashboardService{
		gate:    gate,
		exec:    exec,
		audit:   auditPub,
		lookups: lookups,
	}
}

// RunTemplate authorizes and executes a single catalog template. Student
// templates are scoped to the session's own identity, so a student can
// only ever query their own rows.
func (s *DashboardService) RunTemplate(ctx context.Context, session types.Session, id query.TemplateID, filters types.FilterSpec) (types.ResultSet, error) {
	t, err := query.Lookup(id)
	if err != nil {
		return types.ResultSet{}, err
	}
	if err := s.gate.Authorize(session, t.Role); err != nil {
		return types.ResultSet{}, err
	}

	studentID := ""
	if t.StudentColumn != "" {
		studentID = session.Username
	}
	built := query.BuildForStudent(t, filters, studentID)

	started := time.Now()
	result, err := s.exec.Execute(ctx, built)
	elapsed := time.Since(started)

	if err != nil {
		s.audit.Publish(ctx, audit.Event{
			Type:       audit.EventQueryFailed,
			Username:   session.Username,
			Role:       string(session.Role),
			TemplateID: string(id),
			DurationMS: elapsed.Milliseconds(),
			Error:      err.Error(),
		})
		return types.ResultSet{}, err
	}

	s.audit.Publish(ctx, audit.Event{
		Type:       audit.EventQueryExecuted,
		Username:   session.Username,
		Role:       string(session.Role),
		TemplateID: string(id),
		Rows:       len(result.Rows),
		DurationMS: elapsed.Milliseconds(),
	})
	return result, nil
}

// RunDashboard authorizes the view once, then runs every template the role
// owns. Query failures degrade section by section; auth failures abort the
// whole view.
func (s *DashboardService) RunDashboard(ctx context.Context, session types.Session, role types.Role, filters types.FilterSpec) (Dashboard, error) {
	if err := s.gate.Authorize(session, role); err != nil {
		return Dashboard{}, err
	}

	templates := query.ForRole(role)
	dashboard := Dashboard{
		Role:     role,
		Filters:  filters,
		Sections: make([]Section, 0, len(templates)),
	}

	for _, t := range templates {
		section := Section{TemplateID: t.ID}
		result, err := s.RunTemplate(ctx, session, t.ID, filters)
		if err != nil {
			section.Result = types.ResultSet{Rows: []types.Row{}}
			section.Error = err.Error()
		} else {
			section.Result = result
		}
		dashboard.Sections = append(dashboard.Sections, section)
	}
	return dashboard, nil
}

// ValidateMembership checks every non-"All" dropdown value against the
// distinct-values lookup. Skipped when no lookup store is wired.
func (s *DashboardService) ValidateMembership(ctx context.Context, filters types.FilterSpec) error {
	if s.lookups == nil {
		return nil
	}

	checks := []struct {
		dim   query.Dimension
		value string
	}{
		{query.DimCohort, filters.Cohort},
		{query.DimDepartment, filters.Department},
		{query.DimCampus, filters.Campus},
		{query.DimAPIName, filters.APIName},
		{query.DimLocation, filters.Location},
	}

	for _, check := range checks {
		if check.value == "" || check.value == types.FilterAll {
			continue
		}
		ok, err := s.lookups.Contains(ctx, check.dim, check.value)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("unknown %s %q", check.dim, check.value)
		}
	}
	return nil
}
