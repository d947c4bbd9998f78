package types

import "time"

// FilterAll is the sentinel meaning "no restriction" for a dropdown filter.
const FilterAll = "All"

// Severity classifies system reliability records.
type Severity string

const (
	SeverityAll      Severity = "All"
	SeverityInfo     Severity = "Info"
	SeverityWarning  Severity = "Warning"
	SeverityCritical Severity = "Critical"
)

// Severities lists the selectable severity values, sentinel first.
var Severities = []Severity{SeverityAll, SeverityInfo, SeverityWarning, SeverityCritical}

// FilterSpec is the validated, normalized set of filter criteria for one
// dashboard view. Dates are date-only; the query builder widens them to
// inclusive day bounds. It is built fresh per request and never shared.
type FilterSpec struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Cohort     string   `json:"cohort"`
	Department string   `json:"department"`
	Campus     string   `json:"campus"`
	APIName    string   `json:"api_name"`
	Location   string   `json:"location"`
	Severity   Severity `json:"severity"`
}
