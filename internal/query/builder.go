package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/mind-insight/apiserver/types"
)

// TemplateID identifies one shape from the fixed query catalog.
type TemplateID string

// Dimension names a filterable column a template may expose.
type Dimension string

const (
	DimCohort     Dimension = "cohort"
	DimDepartment Dimension = "department"
	DimCampus     Dimension = "campus"
	DimAPIName    Dimension = "api_name"
	DimLocation   Dimension = "location"
	DimSeverity   Dimension = "severity"
)

// dimensionOrder fixes the order conditions are emitted in, so a built
// query is deterministic for a given FilterSpec.
var dimensionOrder = []Dimension{DimCohort, DimDepartment, DimCampus, DimAPIName, DimLocation, DimSeverity}

// Template describes one catalog entry: its projection, join path, the
// timestamp column the date range binds to, and which filter dimensions
// resolve to which (possibly joined) columns. The template picks the join
// path; callers never compose SQL.
type Template struct {
	ID   TemplateID
	Role types.Role

	Select string
	From   string

	// DateColumn receives the two inclusive date-bound conditions.
	DateColumn string

	// StudentColumn, when set, scopes the template to one student.
	StudentColumn string

	// Dims maps a filter dimension to the column that carries it.
	Dims map[Dimension]string

	// Static is a fixed extra condition ANDed into the WHERE clause.
	Static string

	// Tail holds GROUP BY / ORDER BY clauses.
	Tail string
}

// BuiltQuery pairs parameterized SQL with its bound arguments. Every
// dynamic value travels through Args; none is ever formatted into SQL.
type BuiltQuery struct {
	TemplateID TemplateID
	SQL        string
	Args       []any
}

// Wide-open bounds used when a FilterSpec carries zero dates, keeping the
// query shape uniform instead of branching into an unbounded variant.
var (
	openStart = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	openEnd   = time.Date(2999, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// Build assembles the parameterized query for a template and filter.
func Build(t Template, f types.FilterSpec) BuiltQuery {
	return BuildForStudent(t, f, "")
}

// BuildForStudent additionally scopes a student-owned template to the
// given student ID. The ID is bound like any other parameter.
func BuildForStudent(t Template, f types.FilterSpec, studentID string) BuiltQuery {
	var conds []string
	var args []any

	start := f.StartDate
	if start.IsZero() {
		start = openStart
	}
	end := f.EndDate
	if end.IsZero() {
		end = openEnd
	}

	args = append(args, dayStart(start))
	conds = append(conds, fmt.Sprintf("%s >= $%d", t.DateColumn, len(args)))
	args = append(args, dayEnd(end))
	conds = append(conds, fmt.Sprintf("%s <= $%d", t.DateColumn, len(args)))

	for _, dim := range dimensionOrder {
		column, ok := t.Dims[dim]
		if !ok {
			continue
		}
		value := dimensionValue(f, dim)
		if value == "" || value == types.FilterAll {
			continue
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if t.StudentColumn != "" && studentID != "" {
		args = append(args, studentID)
		conds = append(conds, fmt.Sprintf("%s = $%d", t.StudentColumn, len(args)))
	}

	if t.Static != "" {
		conds = append(conds, t.Static)
	}

	var sb strings.Builder
	sb.WriteString(t.Select)
	sb.WriteString("\n")
	sb.WriteString(t.From)
	sb.WriteString("\nWHERE ")
	sb.WriteString(strings.Join(conds, "\n  AND "))
	if t.Tail != "" {
		sb.WriteString("\n")
		sb.WriteString(t.Tail)
	}

	return BuiltQuery{
		TemplateID: t.ID,
		SQL:        sb.String(),
		Args:       args,
	}
}

func dimensionValue(f types.FilterSpec, dim Dimension) string {
	switch dim {
	case DimCohort:
		return f.Cohort
	case DimDepartment:
		return f.Department
	case DimCampus:
		return f.Campus
	case DimAPIName:
		return f.APIName
	case DimLocation:
		return f.Location
	case DimSeverity:
		if f.Severity == "" {
			return ""
		}
		return string(f.Severity)
	default:
		return ""
	}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}
