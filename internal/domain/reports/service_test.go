package reports_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/policy"
	"leadtrack/internal/domain/reports"
	"leadtrack/internal/domain/tracking"
	"leadtrack/internal/storage/memory"
)

var (
	manager  = auth.Identity{ID: "m1", Role: auth.RoleManager}
	employee = auth.Identity{ID: "e1", Role: auth.RoleEmployee}
)

func setup(t *testing.T) (*reports.Service, *tracking.Service) {
	t.Helper()
	table, err := policy.DefaultTable()
	require.NoError(t, err)
	pol := policy.New(table)
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, tracking.Employee{ID: "e1", Name: "Ada", Email: "ada@example.test", Role: auth.RoleEmployee}))
	require.NoError(t, store.SaveEmployee(ctx, tracking.Employee{ID: "e2", Name: "Bob", Role: auth.RoleEmployee}))
	require.NoError(t, store.SaveEmployee(ctx, tracking.Employee{ID: "m1", Name: "Meg", Role: auth.RoleManager}))
	svc := tracking.NewService(store, pol)
	return reports.NewService(svc, pol), svc
}

func seed(t *testing.T, svc *tracking.Service, employeeID string, goal, achieved int) {
	t.Helper()
	ctx := context.Background()
	target, err := svc.CreateTarget(ctx, tracking.TargetDefinition{
		EmployeeID: employeeID,
		Type:       tracking.TargetTypeMonthly,
		StartDate:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		Goal:       tracking.Counts{JobsFetched: goal},
	}, manager)
	require.NoError(t, err)
	if achieved > 0 {
		_, err = svc.RecordProfileAchievement(ctx, target.ID, "p1", tracking.Counts{JobsFetched: achieved}, manager)
		require.NoError(t, err)
	}
	_, err = svc.AppendEvent(ctx, tracking.EventInput{
		TargetID: target.ID, ProfileID: "p1", Date: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		JobDetails: []tracking.JobDetail{{JobTitle: "Dev", Company: "Acme", Source: "board", Status: tracking.JobApplied}},
	}, manager)
	require.NoError(t, err)
}

func TestEmployeeReport(t *testing.T) {
	svc, tr := setup(t)
	seed(t, tr, "e1", 10, 5)
	seed(t, tr, "e2", 10, 10)

	report, err := svc.EmployeeReport(context.Background(), "e1", reports.Window{}, manager)
	require.NoError(t, err)
	assert.Equal(t, "Ada", report.Employee.Name)
	assert.Len(t, report.Targets, 1)
	assert.Len(t, report.Events, 1)
	assert.InDelta(t, 50.0, report.TargetSummary.CompletionRate, 1e-9)
	assert.Equal(t, 1, report.EventSummary.TotalJobsApplied)

	var buf bytes.Buffer
	require.NoError(t, reports.RenderEmployeePDF(&buf, report))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestEmployeeReportEmptyRendersPDF(t *testing.T) {
	svc, _ := setup(t)
	report, err := svc.EmployeeReport(context.Background(), "e2", reports.Window{From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, manager)
	require.NoError(t, err)
	assert.Empty(t, report.Targets)

	var buf bytes.Buffer
	require.NoError(t, reports.RenderEmployeePDF(&buf, report))
	assert.NotZero(t, buf.Len())
}

func TestReportsRequireGrant(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.EmployeeReport(context.Background(), "e1", reports.Window{}, employee)
	assert.ErrorIs(t, err, tracking.ErrForbidden)
	assert.ErrorIs(t, svc.CanExport(employee), tracking.ErrForbidden)
	assert.NoError(t, svc.CanExport(manager))
}

func TestEmployeeReportUnknownEmployee(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.EmployeeReport(context.Background(), "ghost", reports.Window{}, manager)
	assert.ErrorIs(t, err, tracking.ErrNotFound)
}

func TestTeamReport(t *testing.T) {
	svc, tr := setup(t)
	seed(t, tr, "e1", 10, 5)
	seed(t, tr, "e2", 30, 30)

	report, err := svc.TeamReport(context.Background(), reports.Window{}, manager)
	require.NoError(t, err)
	require.Len(t, report.Employees, 2)
	assert.Equal(t, "e1", report.Employees[0].EmployeeID)
	assert.InDelta(t, 100*35.0/40.0, report.Overall.CompletionRate, 1e-9)
}
