package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mind-insight/apiserver/internal/auth"
	"github.com/mind-insight/apiserver/internal/query"
	"github.com/mind-insight/apiserver/types"

	"golang.org/x/crypto/bcrypt"
)

type stubExecutor struct {
	built  []query.BuiltQuery
	result types.ResultSet
	err    error
}

func (s *stubExecutor) Execute(_ context.Context, built query.BuiltQuery) (types.ResultSet, error) {
	s.built = append(s.built, built)
	if s.err != nil {
		return types.ResultSet{}, s.err
	}
	return s.result, nil
}

type stubLookups struct {
	known map[string]bool
}

func (s *stubLookups) Contains(_ context.Context, _ query.Dimension, value string) (bool, error) {
	return s.known[value], nil
}

func testGate(t *testing.T) *auth.Gate {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secretpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	data := fmt.Sprintf(`users:
  - username: student1
    password_hash: %q
    role: Student
  - username: admin1
    password_hash: %q
    role: Admin
`, hash, hash)

	store, err := auth.ParseCredentials([]byte(data))
	if err != nil {
		t.Fatalf("parse credentials: %v", err)
	}
	return auth.NewGate(store)
}

func studentSession() types.Session {
	return types.Session{Authenticated: true, Username: "student1", Role: types.RoleStudent}
}

func adminSession() types.Session {
	return types.Session{Authenticated: true, Username: "admin1", Role: types.RoleAdmin}
}

func TestRunTemplateScopesStudentToOwnIdentity(t *testing.T) {
	exec := &stubExecutor{result: types.ResultSet{Columns: []string{"score"}, Rows: []types.Row{}}}
	svc := NewDashboardService(testGate(t), exec, nil, nil)

	_, err := svc.RunTemplate(context.Background(), studentSession(), query.ScoreTrend, types.FilterSpec{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(exec.built) != 1 {
		t.Fatalf("executed %d queries", len(exec.built))
	}
	built := exec.built[0]
	if !strings.Contains(built.SQL, "a.student_id = $") {
		t.Errorf("query not scoped to student:\n%s", built.SQL)
	}
	if built.Args[len(built.Args)-1] != "student1" {
		t.Errorf("student scope bound to %v", built.Args[len(built.Args)-1])
	}
}

func TestRunTemplateDeniesCrossRoleAccess(t *testing.T) {
	exec := &stubExecutor{}
	svc := NewDashboardService(testGate(t), exec, nil, nil)

	_, err := svc.RunTemplate(context.Background(), studentSession(), query.CohortOverview, types.FilterSpec{})
	if !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(exec.built) != 0 {
		t.Fatal("denied request must not reach the executor")
	}
}

func TestRunTemplateAdminOverride(t *testing.T) {
	exec := &stubExecutor{result: types.ResultSet{Rows: []types.Row{}}}
	svc := NewDashboardService(testGate(t), exec, nil, nil)

	if _, err := svc.RunTemplate(context.Background(), adminSession(), query.CohortOverview, types.FilterSpec{}); err != nil {
		t.Fatalf("admin denied faculty template: %v", err)
	}
}

func TestRunTemplateUnknownID(t *testing.T) {
	svc := NewDashboardService(testGate(t), &stubExecutor{}, nil, nil)

	if _, err := svc.RunTemplate(context.Background(), adminSession(), "no_such_template", types.FilterSpec{}); !errors.Is(err, query.ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestRunDashboardRunsEveryRoleTemplate(t *testing.T) {
	exec := &stubExecutor{result: types.ResultSet{Rows: []types.Row{{"n": int64(1)}}}}
	svc := NewDashboardService(testGate(t), exec, nil, nil)

	dashboard, err := svc.RunDashboard(context.Background(), studentSession(), types.RoleStudent, types.FilterSpec{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := len(query.ForRole(types.RoleStudent))
	if len(dashboard.Sections) != want {
		t.Fatalf("got %d sections, want %d", len(dashboard.Sections), want)
	}
	for _, section := range dashboard.Sections {
		if section.Error != "" {
			t.Errorf("section %s failed: %s", section.TemplateID, section.Error)
		}
	}
}

func TestRunDashboardDegradesFailedSections(t *testing.T) {
	exec := &stubExecutor{err: &query.QueryError{TemplateID: "x", Reason: "postgres error: syntax_error"}}
	svc := NewDashboardService(testGate(t), exec, nil, nil)

	dashboard, err := svc.RunDashboard(context.Background(), studentSession(), types.RoleStudent, types.FilterSpec{})
	if err != nil {
		t.Fatalf("a query fault must not fail the dashboard: %v", err)
	}

	for _, section := range dashboard.Sections {
		if section.Error == "" {
			t.Errorf("section %s should carry the error summary", section.TemplateID)
		}
		if section.Result.Rows == nil || len(section.Result.Rows) != 0 {
			t.Errorf("section %s should degrade to an empty result", section.TemplateID)
		}
	}
}

func TestRunDashboardAbortsOnDenial(t *testing.T) {
	exec := &stubExecutor{}
	svc := NewDashboardService(testGate(t), exec, nil, nil)

	if _, err := svc.RunDashboard(context.Background(), studentSession(), types.RoleFaculty, types.FilterSpec{}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.RunDashboard(context.Background(), types.Anonymous(), types.RoleStudent, types.FilterSpec{}); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if len(exec.built) != 0 {
		t.Fatal("denied dashboard must not execute queries")
	}
}

func TestValidateMembership(t *testing.T) {
	lookups := &stubLookups{known: map[string]bool{"2024A": true}}
	svc := NewDashboardService(testGate(t), &stubExecutor{}, nil, lookups)

	ok := types.FilterSpec{Cohort: "2024A", Department: types.FilterAll}
	if err := svc.ValidateMembership(context.Background(), ok); err != nil {
		t.Fatalf("known value rejected: %v", err)
	}

	bad := types.FilterSpec{Cohort: "1999Z"}
	if err := svc.ValidateMembership(context.Background(), bad); err == nil {
		t.Fatal("unknown value accepted")
	}
}

func TestValidateMembershipSkippedWithoutLookups(t *testing.T) {
	svc := NewDashboardService(testGate(t), &stubExecutor{}, nil, nil)

	if err := svc.ValidateMembership(context.Background(), types.FilterSpec{Cohort: "anything"}); err != nil {
		t.Fatalf("validation should be skipped: %v", err)
	}
}
