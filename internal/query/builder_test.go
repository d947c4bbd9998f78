package query

import (
	"strings"
	"testing"
	"time"

	"github.com/mind-insight/apiserver/types"
)

func januaryFilters() types.FilterSpec {
	return types.FilterSpec{
		StartDate:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		Cohort:     types.FilterAll,
		Department: types.FilterAll,
		Campus:     types.FilterAll,
		APIName:    types.FilterAll,
		Location:   types.FilterAll,
		Severity:   types.SeverityAll,
	}
}

func TestBuildBindsSingleDimension(t *testing.T) {
	template, err := Lookup(CaseStudySummary)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	filters := januaryFilters()
	filters.Cohort = "2024A"

	built := Build(template, filters)

	// Two date bounds plus the cohort equality, nothing else.
	if len(built.Args) != 3 {
		t.Fatalf("bound %d args, want 3: %v", len(built.Args), built.Args)
	}
	if built.Args[2] != "2024A" {
		t.Errorf("third arg = %v, want cohort value", built.Args[2])
	}
	if strings.Contains(built.SQL, "2024A") {
		t.Error("filter value leaked into SQL text")
	}
	if !strings.Contains(built.SQL, "s.cohort_id = $3") {
		t.Errorf("missing cohort condition:\n%s", built.SQL)
	}
	if strings.Count(built.SQL, " = $") != 1 {
		t.Errorf("expected exactly one equality condition:\n%s", built.SQL)
	}
}

func TestBuildAllSentinelAddsNoConditions(t *testing.T) {
	template, err := Lookup(CaseStudySummary)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	built := Build(template, januaryFilters())

	if len(built.Args) != 2 {
		t.Fatalf("bound %d args, want only the date bounds", len(built.Args))
	}
	if strings.Contains(built.SQL, "= $3") {
		t.Errorf("unexpected dimension condition:\n%s", built.SQL)
	}
}

func TestBuildNormalizesDayBounds(t *testing.T) {
	template, err := Lookup(CaseStudySummary)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	built := Build(template, januaryFilters())

	start, ok := built.Args[0].(time.Time)
	if !ok {
		t.Fatalf("first arg is %T", built.Args[0])
	}
	end, ok := built.Args[1].(time.Time)
	if !ok {
		t.Fatalf("second arg is %T", built.Args[1])
	}
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("start bound not at start of day: %s", start)
	}
	if end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
		t.Errorf("end bound not at end of day: %s", end)
	}
}

func TestBuildZeroDatesUseOpenBounds(t *testing.T) {
	template, err := Lookup(CaseStudySummary)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	built := Build(template, types.FilterSpec{})

	start := built.Args[0].(time.Time)
	end := built.Args[1].(time.Time)
	if start.Year() != 1900 {
		t.Errorf("open start = %s", start)
	}
	if end.Year() != 2999 {
		t.Errorf("open end = %s", end)
	}
	// The query shape stays uniform: both bounds are still present.
	if !strings.Contains(built.SQL, ">= $1") || !strings.Contains(built.SQL, "<= $2") {
		t.Errorf("missing date bounds:\n%s", built.SQL)
	}
}

func TestBuildForStudentScopesToIdentity(t *testing.T) {
	template, err := Lookup(ScoreTrend)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	built := BuildForStudent(template, januaryFilters(), "S001")

	if len(built.Args) != 3 {
		t.Fatalf("bound %d args, want 3", len(built.Args))
	}
	if built.Args[2] != "S001" {
		t.Errorf("student arg = %v", built.Args[2])
	}
	if !strings.Contains(built.SQL, "a.student_id = $3") {
		t.Errorf("missing student scope:\n%s", built.SQL)
	}
}

func TestBuildDimensionOrderIsDeterministic(t *testing.T) {
	template := Template{
		ID:         "test_template",
		Role:       types.RoleFaculty,
		Select:     "SELECT 1",
		From:       "FROM attempts a",
		DateColumn: "a.timestamp",
		Dims: map[Dimension]string{
			DimCampus:     "s.campus",
			DimCohort:     "s.cohort_id",
			DimDepartment: "s.department",
		},
	}
	filters := januaryFilters()
	filters.Cohort = "2024A"
	filters.Department = "Nursing"
	filters.Campus = "North"

	first := Build(template, filters)
	for i := 0; i < 10; i++ {
		if again := Build(template, filters); again.SQL != first.SQL {
			t.Fatal("built SQL varies across runs")
		}
	}
	if first.Args[2] != "2024A" || first.Args[3] != "Nursing" || first.Args[4] != "North" {
		t.Fatalf("args out of order: %v", first.Args)
	}
}

func TestBuildAppendsStaticAndTail(t *testing.T) {
	template, err := Lookup(CampusPerformance)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	built := Build(template, januaryFilters())

	if !strings.Contains(built.SQL, "s.campus IS NOT NULL") {
		t.Errorf("missing static condition:\n%s", built.SQL)
	}
	if !strings.Contains(built.SQL, "GROUP BY s.campus") {
		t.Errorf("missing tail:\n%s", built.SQL)
	}
}
