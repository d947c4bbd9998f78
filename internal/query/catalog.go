package query

import (
	"errors"

	"github.com/mind-insight/apiserver/types"
)

// ErrUnknownTemplate is returned for a template ID outside the catalog.
var ErrUnknownTemplate = errors.New("unknown template")

// Student dashboard templates.
const (
	StudentPerformanceSummary TemplateID = "student_performance_summary"
	ScoreTrend                TemplateID = "score_trend"
	AttemptImprovement        TemplateID = "attempt_improvement"
	LatestAttemptsPerCase     TemplateID = "latest_attempts_per_case"
	StudentEngagementByAction TemplateID = "student_engagement_by_action"
	StudentRubricScores       TemplateID = "student_rubric_scores"
)

// Faculty dashboard templates.
const (
	CaseStudySummary         TemplateID = "case_study_summary"
	CohortOverview           TemplateID = "cohort_overview"
	CampusPerformance        TemplateID = "campus_performance"
	RubricDimensionAverages  TemplateID = "rubric_dimension_averages"
	RubricCaseDimensionGrid  TemplateID = "rubric_case_dimension_matrix"
	DailyEngagement          TemplateID = "daily_engagement"
	EngagementPerCase        TemplateID = "engagement_per_case"
	AtRiskStudents           TemplateID = "at_risk_students"
)

// Developer dashboard templates.
const (
	SystemStatusOverview   TemplateID = "system_status_overview"
	APILatencySummary      TemplateID = "api_latency_summary"
	APIErrorRates          TemplateID = "api_error_rates"
	SeverityDistribution   TemplateID = "severity_distribution"
	LocationDistribution   TemplateID = "location_distribution"
	EnvironmentSummary     TemplateID = "environment_summary"
	DeviceTypeDistribution TemplateID = "device_type_distribution"
	EnvironmentAttempts    TemplateID = "environment_with_attempts"
)

// Admin dashboard templates.
const (
	AdminAggregates    TemplateID = "admin_aggregates"
	AdminMetricTrend   TemplateID = "admin_metric_trend"
	ActiveStudents     TemplateID = "active_students"
	TotalAttempts      TemplateID = "total_attempts"
	AverageScore       TemplateID = "average_score"
	AverageCES         TemplateID = "average_ces"
	AverageTimeOnTask  TemplateID = "average_time_on_task"
	CampusSummary      TemplateID = "campus_summary"
	DepartmentSummary  TemplateID = "department_summary"
)

// studentDims is the join-resolved dimension set for metrics that filter on
// student attributes living on the students table.
func studentDims() map[Dimension]string {
	return map[Dimension]string{
		DimCohort:     "s.cohort_id",
		DimDepartment: "s.department",
		DimCampus:     "s.campus",
	}
}

// reliabilityDims covers the system_reliability table, where every filter
// column lives locally.
func reliabilityDims() map[Dimension]string {
	return map[Dimension]string{
		DimAPIName:  "sr.api_name",
		DimLocation: "sr.location",
		DimSeverity: "sr.severity",
	}
}

var catalog = []Template{
	// ----- Student -----
	{
		ID:   StudentPerformanceSummary,
		Role: types.RoleStudent,
		Select: `SELECT COUNT(a.attempt_id) AS total_attempts,
       COUNT(DISTINCT a.case_id) AS cases_attempted,
       AVG(a.score)::numeric(10,2) AS avg_score,
       AVG(a.duration_seconds)::numeric(10,2) AS avg_duration,
       AVG(a.ces_value)::numeric(10,2) AS avg_ces`,
		From:          `FROM attempts a`,
		DateColumn:    "a.timestamp",
		StudentColumn: "a.student_id",
	},
	{
		ID:            ScoreTrend,
		Role:          types.RoleStudent,
		Select:        `SELECT a.timestamp, a.case_id, a.attempt_number, a.score`,
		From:          `FROM attempts a`,
		DateColumn:    "a.timestamp",
		StudentColumn: "a.student_id",
		Tail:          `ORDER BY a.timestamp`,
	},
	{
		ID:   AttemptImprovement,
		Role: types.RoleStudent,
		Select: `SELECT a.case_id,
       AVG(CASE WHEN a.attempt_number = 1 THEN a.score END)::numeric(10,2) AS avg_first,
       AVG(CASE WHEN a.attempt_number = 2 THEN a.score END)::numeric(10,2) AS avg_second`,
		From:          `FROM attempts a`,
		DateColumn:    "a.timestamp",
		StudentColumn: "a.student_id",
		Tail: `GROUP BY a.case_id
ORDER BY a.case_id`,
	},
	{
		ID:   LatestAttemptsPerCase,
		Role: types.RoleStudent,
		Select: `SELECT DISTINCT ON (a.case_id)
       a.case_id, a.attempt_number, a.score, a.duration_seconds,
       a.ces_value, a.timestamp, a.state`,
		From:          `FROM attempts a`,
		DateColumn:    "a.timestamp",
		StudentColumn: "a.student_id",
		Tail:          `ORDER BY a.case_id, a.attempt_number DESC`,
	},
	{
		ID:   StudentEngagementByAction,
		Role: types.RoleStudent,
		Select: `SELECT el.action_type,
       COUNT(*) AS events,
       SUM(el.duration_seconds) AS total_seconds`,
		From:          `FROM engagement_logs el`,
		DateColumn:    "el.timestamp",
		StudentColumn: "el.student_id",
		Tail: `GROUP BY el.action_type
ORDER BY events DESC`,
	},
	{
		ID:   StudentRubricScores,
		Role: types.RoleStudent,
		Select: `SELECT r.rubric_dimension, r.score, r.max_score, r.improvement_flag,
       a.case_id, a.attempt_number, a.timestamp`,
		From: `FROM rubric_scores r
JOIN attempts a ON r.attempt_id = a.attempt_id`,
		DateColumn:    "a.timestamp",
		StudentColumn: "a.student_id",
		Tail:          `ORDER BY a.timestamp, r.rubric_dimension`,
	},

	// ----- Faculty -----
	{
		ID:   CaseStudySummary,
		Role: types.RoleFaculty,
		Select: `SELECT a.case_id,
       COUNT(a.attempt_id) AS total_attempts,
       COUNT(DISTINCT a.student_id) AS total_students,
       AVG(a.score)::numeric(10,2) AS avg_score,
       AVG(a.duration_seconds)::numeric(10,2) AS avg_duration_sec`,
		From: `FROM attempts a
JOIN students s ON a.student_id = s.student_id`,
		DateColumn: "a.timestamp",
		Dims:       studentDims(),
		Tail: `GROUP BY a.case_id
ORDER BY avg_score DESC`,
	},
	{
		ID:   CohortOverview,
		Role: types.RoleFaculty,
		Select: `SELECT s.cohort_id,
       COUNT(DISTINCT a.student_id) AS students,
       COUNT(a.attempt_id) AS attempts,
       AVG(a.score)::numeric(10,2) AS avg_score`,
		From: `FROM attempts a
JOIN students s ON a.student_id = s.student_id`,
		DateColumn: "a.timestamp",
		Dims:       studentDims(),
		Tail: `GROUP BY s.cohort_id
ORDER BY s.cohort_id`,
	},
	{
		ID:   CampusPerformance,
		Role: types.RoleFaculty,
		Select: `SELECT s.campus,
       COUNT(DISTINCT a.student_id) AS active_students,
       AVG(a.score)::numeric(10,2) AS avg_score`,
		From: `FROM attempts a
JOIN students s ON a.student_id = s.student_id`,
		DateColumn: "a.timestamp",
		Dims:       studentDims(),
		Static:     "s.campus IS NOT NULL",
		Tail: `GROUP BY s.campus
ORDER BY avg_score DESC`,
	},
	{
		ID:   RubricDimensionAverages,
		Role: types.RoleFaculty,
		Select: `SELECT r.rubric_dimension,
       AVG(r.score)::numeric(10,2) AS avg_score,
       AVG(r.max_score)::numeric(10,2) AS avg_max,
       AVG(r.score * 1.0 / r.max_score)::numeric(10,4) AS mastery_rate`,
		From: `FROM rubric_scores r
JOIN attempts a ON r.attempt_id = a.attempt_id
JOIN students s ON a.student_id = s.student_id`,
		DateColumn: "a.timestamp",
		Dims:       studentDims(),
		Tail: `GROUP BY r.rubric_dimension
ORDER BY r.rubric_dimension`,
	},
	{
		ID:   RubricCaseDimensionGrid,
		Role: types.RoleFaculty,
		Select: `SELECT a.case_id,
       r.rubric_dimension,
       AVG(r.score * 1.0 / r.max_score)::numeric(10,4) AS mastery`,
		From: `FROM rubric_scores r
JOIN attempts a ON r.attempt_id = a.attempt_id
JOIN students s ON a.student_id = s.student_id`,
		DateColumn: "a.timestamp",
		Dims:       studentDims(),
		Tail: `GROUP BY a.case_id, r.rubric_dimension
ORDER BY a.case_id, r.rubric_dimension`,
	},
	{
		ID:   DailyEngagement,
		Role: types.RoleFaculty,
		Select: `SELECT DATE(el.timestamp) AS day,
       COUNT(*) AS events`,
		From: `FROM engagement_logs el
JOIN students s ON el.student_id = s.student_id`,
		DateColumn: "el.timestamp",
		Dims:       studentDims(),
		Tail: `GROUP BY DATE(el.timestamp)
ORDER BY day`,
	},
	{
		ID:   EngagementPerCase,
		Role: types.RoleFaculty,
		Select: `SELECT el.case_id,
       SUM(el.duration_seconds) AS total_time`,
		From: `FROM engagement_logs el
JOIN students s ON el.student_id = s.student_id`,
		DateColumn: "el.timestamp",
		Dims:       studentDims(),
		Tail: `GROUP BY el.case_id
ORDER BY el.case_id`,
	},
	{
		ID:   AtRiskStudents,
		Role: types.RoleFaculty,
		Select: `SELECT s.student_id, s.name, s.cohort_id, s.department, s.campus,
       COUNT(a.attempt_id) AS attempts,
       AVG(a.score)::numeric(10,2) AS avg_score`,
		From: `FROM attempts a
JOIN students s ON a.student_id = s.student_id`,
		DateColumn: "a.timestamp",
		Dims:       studentDims(),
		Tail: `GROUP BY s.student_id, s.name, s.cohort_id, s.department, s.campus
HAVING AVG(a.score) < 60
ORDER BY avg_score ASC`,
	},

	// ----- Developer -----
	{
		ID:   SystemStatusOverview,
		Role: types.RoleDeveloper,
		Select: `SELECT AVG(sr.latency_ms)::numeric(10,2) AS avg_latency,
       AVG(sr.error_rate)::numeric(10,4) AS avg_error_rate,
       AVG(sr.reliability_index)::numeric(10,4) AS avg_reliability,
       COUNT(DISTINCT sr.api_name) AS api_count`,
		From:       `FROM system_reliability sr`,
		DateColumn: "sr.timestamp",
		Dims:       reliabilityDims(),
	},
	{
		ID:   APILatencySummary,
		Role: types.RoleDeveloper,
		Select: `SELECT sr.api_name,
       AVG(sr.latency_ms)::numeric(10,2) AS avg_latency,
       MAX(sr.latency_ms)::numeric(10,2) AS max_latency`,
		From:       `FROM system_reliability sr`,
		DateColumn: "sr.timestamp",
		Dims:       reliabilityDims(),
		Tail: `GROUP BY sr.api_name
ORDER BY avg_latency DESC`,
	},
	{
		ID:   APIErrorRates,
		Role: types.RoleDeveloper,
		Select: `SELECT sr.api_name,
       AVG(sr.error_rate)::numeric(10,4) AS avg_error_rate,
       AVG(sr.reliability_index)::numeric(10,4) AS avg_reliability`,
		From:       `FROM system_reliability sr`,
		DateColumn: "sr.timestamp",
		Dims:       reliabilityDims(),
		Tail: `GROUP BY sr.api_name
ORDER BY avg_error_rate DESC`,
	},
	{
		ID:   SeverityDistribution,
		Role: types.RoleDeveloper,
		Select: `SELECT sr.severity,
       COUNT(*) AS count`,
		From:       `FROM system_reliability sr`,
		DateColumn: "sr.timestamp",
		Dims:       reliabilityDims(),
		Tail: `GROUP BY sr.severity
ORDER BY CASE sr.severity
    WHEN 'Critical' THEN 1
    WHEN 'Warning' THEN 2
    WHEN 'Info' THEN 3
    ELSE 4
END`,
	},
	{
		ID:   LocationDistribution,
		Role: types.RoleDeveloper,
		Select: `SELECT sr.location,
       COUNT(*) AS count,
       AVG(sr.latency_ms)::numeric(10,2) AS avg_latency`,
		From:       `FROM system_reliability sr`,
		DateColumn: "sr.timestamp",
		Dims:       reliabilityDims(),
		Static:     "sr.location IS NOT NULL",
		Tail: `GROUP BY sr.location
ORDER BY count DESC`,
	},
	{
		ID:   EnvironmentSummary,
		Role: types.RoleDeveloper,
		Select: `SELECT COUNT(e.attempt_id) AS total_records,
       AVG(e.noise_level)::numeric(10,2) AS avg_noise,
       AVG(e.noise_quality_index)::numeric(10,2) AS avg_noise_quality,
       AVG(e.internet_latency_ms)::numeric(10,2) AS avg_latency,
       AVG(e.internet_stability_score)::numeric(10,2) AS avg_stability,
       AVG(e.connection_drops)::numeric(10,2) AS avg_drops`,
		From: `FROM environment_metrics e
JOIN attempts a ON e.attempt_id = a.attempt_id`,
		DateColumn: "a.timestamp",
	},
	{
		ID:   DeviceTypeDistribution,
		Role: types.RoleDeveloper,
		Select: `SELECT e.device_type,
       COUNT(e.attempt_id) AS count`,
		From: `FROM environment_metrics e
JOIN attempts a ON e.attempt_id = a.attempt_id`,
		DateColumn: "a.timestamp",
		Tail: `GROUP BY e.device_type
ORDER BY count DESC`,
	},
	{
		ID:   EnvironmentAttempts,
		Role: types.RoleDeveloper,
		Select: `SELECT e.attempt_id, e.device_type, e.internet_latency_ms,
       e.internet_stability_score, e.connection_drops,
       a.score, a.duration_seconds, a.timestamp AS attempt_time`,
		From: `FROM environment_metrics e
JOIN attempts a ON e.attempt_id = a.attempt_id`,
		DateColumn: "a.timestamp",
		Tail:       `ORDER BY a.timestamp`,
	},

	// ----- Admin -----
	{
		ID:         AdminAggregates,
		Role:       types.RoleAdmin,
		Select:     `SELECT aa.metric_name, aa.metric_value, aa.timestamp`,
		From:       `FROM admin_aggregates aa`,
		DateColumn: "aa.timestamp",
		Tail:       `ORDER BY aa.timestamp`,
	},
	{
		ID:   AdminMetricTrend,
		Role: types.RoleAdmin,
		Select: `SELECT aa.metric_name,
       DATE(aa.timestamp) AS day,
       AVG(aa.metric_value)::numeric(14,4) AS avg_value`,
		From:       `FROM admin_aggregates aa`,
		DateColumn: "aa.timestamp",
		Tail: `GROUP BY aa.metric_name, DATE(aa.timestamp)
ORDER BY aa.metric_name, day`,
	},
	{
		ID:     ActiveStudents,
		Role:   types.RoleAdmin,
		Select: `SELECT COUNT(DISTINCT a.student_id) AS active_students`,
		From: `FROM attempts a
JOIN students s ON a.student_id = s.student_id`,
		DateColumn: "a.timestamp",
		Dims:       studentDims(),
	},
	{
		ID:     TotalAttempts,
		Role:   types.RoleAdmin,
		Select: `SELECT COUNT(*) AS attempts_count`,
		From: `FROM attempts a
JOIN students s ON a.student_id = s.student_id`,
		DateColumn: "a.timestamp",
		Dims:       studentDims(),
	},
	{
		ID:   AverageScore,
		Role: types.RoleAdmin,
		Select: `SELECT AVG(a.score)::numeric(10,2) AS avg_score,
       AVG(a.duration_seconds)::numeric(10,2) AS avg_duration`,
		From: `FROM attempts a
JOIN students s ON a.student_id = s.student_id`,
		DateColumn: "a.timestamp",
		Dims:       studentDims(),
	},
	{
		ID:     AverageCES,
		Role:   types.RoleAdmin,
		Select: `SELECT AVG(a.ces_value)::numeric(10,2) AS avg_ces`,
		From: `FROM attempts a
JOIN students s ON a.student_id = s.student_id`,
		DateColumn: "a.timestamp",
		Dims:       studentDims(),
		Static:     "a.ces_value IS NOT NULL",
	},
	{
		ID:     AverageTimeOnTask,
		Role:   types.RoleAdmin,
		Select: `SELECT AVG(a.duration_seconds)::numeric(10,2) AS avg_time`,
		From: `FROM attempts a
JOIN students s ON a.student_id = s.student_id`,
		DateColumn: "a.timestamp",
		Dims:       studentDims(),
		Static:     "a.duration_seconds IS NOT NULL",
	},
	{
		ID:         CampusSummary,
		Role:       types.RoleAdmin,
		Select:     `SELECT cm.campus_name, cm.avg_score, cm.active_students, cm.last_updated`,
		From:       `FROM campus_metrics cm`,
		DateColumn: "cm.last_updated",
		Tail:       `ORDER BY cm.active_students DESC`,
	},
	{
		ID:         DepartmentSummary,
		Role:       types.RoleAdmin,
		Select:     `SELECT dm.department_name, dm.avg_mastery, dm.total_students, dm.last_updated`,
		From:       `FROM department_metrics dm`,
		DateColumn: "dm.last_updated",
		Tail:       `ORDER BY dm.avg_mastery DESC`,
	},
}

var catalogByID = func() map[TemplateID]Template {
	byID := make(map[TemplateID]Template, len(catalog))
	for _, t := range catalog {
		byID[t.ID] = t
	}
	return byID
}()

// Lookup resolves a template ID against the catalog.
func Lookup(id TemplateID) (Template, error) {
	t, ok := catalogByID[id]
	if !ok {
		return Template{}, ErrUnknownTemplate
	}
	return t, nil
}

// ForRole returns the templates owned by a role, in catalog order. This is
// the role's dashboard; authorization for cross-role access (Admin) is
// decided by the auth gate, not here.
func ForRole(role types.Role) []Template {
	var templates []Template
	for _, t := range catalog {
		if t.Role == role {
			templates = append(templates, t)
		}
	}
	return templates
}

// All returns the full catalog in stable order.
func All() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}
