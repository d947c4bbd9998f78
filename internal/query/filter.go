package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-insight/apiserver/types"
)

const dateLayout = "2006-01-02"

// ErrInvalidRange is returned when the start date falls after the end
// date. The caller must stop processing; the range is never corrected
// silently.
var ErrInvalidRange = errors.New("start date is after end date")

// RawFilters holds the unvalidated filter input exactly as the UI sent it.
type RawFilters struct {
	StartDate  string
	EndDate    string
	Cohort     string
	Department string
	Campus     string
	APIName    string
	Location   string
	Severity   string
}

// BuildFilter validates and normalizes raw filter input into a FilterSpec.
// Empty dropdown values become the "All" sentinel. When no explicit date
// range is given, a default window of defaultWindowDays ending at now is
// applied; a partial range keeps the given bound and defaults the other.
func BuildFilter(raw RawFilters, defaultWindowDays int, now time.Time) (types.FilterSpec, error) {
	if defaultWindowDays <= 0 {
		defaultWindowDays = 30
	}

	var start, end time.Time
	var err error

	if strings.TrimSpace(raw.StartDate) != "" {
		start, err = time.Parse(dateLayout, strings.TrimSpace(raw.StartDate))
		if err != nil {
			return types.FilterSpec{}, fmt.Errorf("invalid start_date %q: %w", raw.StartDate, err)
		}
	}
	if strings.TrimSpace(raw.EndDate) != "" {
		end, err = time.Parse(dateLayout, strings.TrimSpace(raw.EndDate))
		if err != nil {
			return types.FilterSpec{}, fmt.Errorf("invalid end_date %q: %w", raw.EndDate, err)
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if end.IsZero() {
		end = today
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -defaultWindowDays)
	}

	if start.After(end) {
		return types.FilterSpec{}, ErrInvalidRange
	}

	severity, err := parseSeverity(raw.Severity)
	if err != nil {
		return types.FilterSpec{}, err
	}

	return types.FilterSpec{
		StartDate:  start,
		EndDate:    end,
		Cohort:     normalizeChoice(raw.Cohort),
		Department: normalizeChoice(raw.Department),
		Campus:     normalizeChoice(raw.Campus),
		APIName:    normalizeChoice(raw.APIName),
		Location:   normalizeChoice(raw.Location),
		Severity:   severity,
	}, nil
}

func normalizeChoice(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return types.FilterAll
	}
	return value
}

func parseSeverity(value string) (types.Severity, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return types.SeverityAll, nil
	}
	for _, severity := range types.Severities {
		if string(severity) == value {
			return severity, nil
		}
	}
	return "", fmt.Errorf("invalid severity %q", value)
}
