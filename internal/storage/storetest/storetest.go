// Package storetest holds the behaviour every tracking.Store must share.
// Each store package runs it against its own backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/tracking"
)

func at(day int) time.Time {
	return time.Date(2026, 4, day, 0, 0, 0, 0, time.UTC)
}

// Run exercises newStore, which must return an empty store per call.
func Run(t *testing.T, newStore func(t *testing.T) tracking.Store) {
	t.Run("employees", func(t *testing.T) { employees(t, newStore(t)) })
	t.Run("targets", func(t *testing.T) { targets(t, newStore(t)) })
	t.Run("target filters", func(t *testing.T) { targetFilters(t, newStore(t)) })
	t.Run("events", func(t *testing.T) { events(t, newStore(t)) })
	t.Run("profiles", func(t *testing.T) { profiles(t, newStore(t)) })
}

func seedEmployees(t *testing.T, store tracking.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, store.SaveEmployee(context.Background(), tracking.Employee{
			ID: id, Name: "Name " + id, Email: id + "@example.test", Role: auth.RoleEmployee, CreatedAt: at(1),
		}))
	}
}

func employees(t *testing.T, store tracking.Store) {
	ctx := context.Background()
	_, err := store.LoadEmployee(ctx, "nobody")
	assert.ErrorIs(t, err, tracking.ErrNotFound)

	seedEmployees(t, store, "e1")
	require.NoError(t, store.SaveEmployee(ctx, tracking.Employee{ID: "e1", Name: "Renamed", Role: auth.RoleManager, CreatedAt: at(1)}))
	emp, err := store.LoadEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", emp.Name)
	assert.Equal(t, auth.RoleManager, emp.Role)

	seedEmployees(t, store, "e3", "e2")
	staff, err := store.QueryEmployees(ctx, tracking.EmployeeFilter{Role: auth.RoleEmployee})
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "e2", staff[0].ID, "ordered by name")
	assert.Equal(t, "e3", staff[1].ID)

	everyone, err := store.QueryEmployees(ctx, tracking.EmployeeFilter{})
	require.NoError(t, err)
	assert.Len(t, everyone, 3)
}

func target(id, employee string, start int, goal, achieved tracking.Counts) tracking.Target {
	return tracking.Target{
		ID:         id,
		EmployeeID: employee,
		Type:       tracking.TargetTypeWeekly,
		StartDate:  at(start),
		EndDate:    at(start + 6),
		Goal:       goal,
		Achieved:   achieved,
		ProfileBreakdown: []tracking.ProfileProgress{
			{ProfileID: "p1", Goal: goal, Achieved: achieved},
		},
		CreatedBy: "m1",
		UpdatedBy: "m1",
		CreatedAt: at(1),
		UpdatedAt: at(1),
	}
}

func targets(t *testing.T, store tracking.Store) {
	ctx := context.Background()
	seedEmployees(t, store, "e1")

	_, err := store.LoadTarget(ctx, "missing")
	assert.ErrorIs(t, err, tracking.ErrNotFound)

	tgt := target("t1", "e1", 1, tracking.Counts{JobsFetched: 10, JobsApplied: 10}, tracking.Counts{JobsFetched: 5})
	require.NoError(t, store.SaveTarget(ctx, tgt))

	got, err := store.LoadTarget(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, tgt.Goal, got.Goal)
	assert.Equal(t, tgt.Achieved, got.Achieved)
	assert.True(t, tgt.StartDate.Equal(got.StartDate))
	assert.Equal(t, tracking.StatusInProgress, got.Status)
	assert.InDelta(t, 25.0, got.CompletionRate, 1e-9)
	require.Len(t, got.ProfileBreakdown, 1)
	assert.Equal(t, "p1", got.ProfileBreakdown[0].ProfileID)

	tgt.Achieved = tracking.Counts{JobsFetched: 10, JobsApplied: 10}
	require.NoError(t, store.SaveTarget(ctx, tgt))
	got, err = store.LoadTarget(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, tracking.StatusCompleted, got.Status)

	require.NoError(t, store.DeleteTarget(ctx, "t1"))
	assert.ErrorIs(t, store.DeleteTarget(ctx, "t1"), tracking.ErrNotFound)
}

func targetFilters(t *testing.T, store tracking.Store) {
	ctx := context.Background()
	seedEmployees(t, store, "e1", "e2")
	require.NoError(t, store.SaveTarget(ctx, target("a", "e1", 1, tracking.Counts{JobsFetched: 5}, tracking.Counts{})))
	require.NoError(t, store.SaveTarget(ctx, target("b", "e1", 10, tracking.Counts{JobsFetched: 5}, tracking.Counts{JobsFetched: 5})))
	other := target("c", "e2", 20, tracking.Counts{JobsFetched: 5}, tracking.Counts{JobsFetched: 1})
	other.CreatedBy = "m2"
	other.Type = tracking.TargetTypeMonthly
	require.NoError(t, store.SaveTarget(ctx, other))

	cases := []struct {
		name   string
		filter tracking.TargetFilter
		want   []string
	}{
		{"all newest first", tracking.TargetFilter{}, []string{"c", "b", "a"}},
		{"employee", tracking.TargetFilter{EmployeeID: "e1"}, []string{"b", "a"}},
		{"creator", tracking.TargetFilter{CreatedBy: "m2"}, []string{"c"}},
		{"type", tracking.TargetFilter{Type: tracking.TargetTypeMonthly}, []string{"c"}},
		{"completed", tracking.TargetFilter{Status: tracking.StatusCompleted}, []string{"b"}},
		{"pending", tracking.TargetFilter{Status: tracking.StatusPending}, []string{"a"}},
		{"overlapping window", tracking.TargetFilter{From: at(8), To: at(12)}, []string{"b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.QueryTargets(ctx, tc.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, tgt := range got {
				ids = append(ids, tgt.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func events(t *testing.T, store tracking.Store) {
	ctx := context.Background()
	details := []tracking.JobDetail{
		{JobTitle: "Dev", Company: "Acme", Source: "board", Status: tracking.JobFetched},
		{JobTitle: "Ops", Company: "Acme", Source: "board", Status: tracking.JobInterview},
	}
	first := tracking.AchievementEvent{
		ID: "ev1", TargetID: "t1", EmployeeID: "e1", ProfileID: "p1", Date: at(3),
		JobDetails: details, Metrics: tracking.ComputeMetrics(details), CreatedBy: "e1", CreatedAt: at(3),
	}
	second := first
	second.ID, second.Date, second.Supersedes = "ev2", at(4), "ev1"
	require.NoError(t, store.AppendAchievementEvent(ctx, first))
	require.NoError(t, store.AppendAchievementEvent(ctx, second))

	got, err := store.LoadEvent(ctx, "ev2")
	require.NoError(t, err)
	assert.Equal(t, "ev1", got.Supersedes)
	assert.Equal(t, first.Metrics, got.Metrics)
	require.Len(t, got.JobDetails, 2)
	assert.Equal(t, tracking.JobInterview, got.JobDetails[1].Status)

	first.SupersededBy = "ev2"
	require.NoError(t, store.SaveEvent(ctx, first))

	listed, err := store.QueryEvents(ctx, tracking.EventFilter{EmployeeID: "e1"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "ev2", listed[0].ID)

	listed, err = store.QueryEvents(ctx, tracking.EventFilter{TargetID: "t1", IncludeSuperseded: true})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "ev2", listed[0].ID, "newest first")

	listed, err = store.QueryEvents(ctx, tracking.EventFilter{To: at(3), IncludeSuperseded: true})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = store.LoadEvent(ctx, "missing")
	assert.ErrorIs(t, err, tracking.ErrNotFound)
	assert.ErrorIs(t, store.SaveEvent(ctx, tracking.AchievementEvent{ID: "missing"}), tracking.ErrNotFound)
}

func profiles(t *testing.T, store tracking.Store) {
	ctx := context.Background()
	assigned := tracking.Profile{
		ID: "p1", Name: "Acme", Status: tracking.ProfileNew, CreatedBy: "m1", CreatedAt: at(1), UpdatedAt: at(1),
		Assignments: []tracking.Assignment{{
			EmployeeID: "e1",
			AssignedAt: at(1),
			Status:     tracking.AssignmentActive,
			Targets:    []tracking.AssignmentTarget{{ID: "st1", Month: 4, Year: 2026, TargetAmount: 10, AchievedAmount: 10}},
		}},
	}
	loose := tracking.Profile{ID: "p2", Name: "Beta", Status: tracking.ProfileClosed, CreatedBy: "m1", CreatedAt: at(1), UpdatedAt: at(1)}
	require.NoError(t, store.SaveProfile(ctx, assigned))
	require.NoError(t, store.SaveProfile(ctx, loose))

	got, err := store.LoadProfile(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got.Assignments, 1)
	assert.Equal(t, tracking.StatusCompleted, got.Assignments[0].Targets[0].Status)

	mine, err := store.QueryProfiles(ctx, tracking.ProfileFilter{EmployeeID: "e1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "p1", mine[0].ID)

	closed, err := store.QueryProfiles(ctx, tracking.ProfileFilter{Status: tracking.ProfileClosed})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, "p2", closed[0].ID)

	all, err := store.QueryProfiles(ctx, tracking.ProfileFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = store.LoadProfile(ctx, "missing")
	assert.ErrorIs(t, err, tracking.ErrNotFound)

	require.NoError(t, store.DeleteProfile(ctx, "p2"))
	_, err = store.LoadProfile(ctx, "p2")
	assert.ErrorIs(t, err, tracking.ErrNotFound)
	assert.ErrorIs(t, store.DeleteProfile(ctx, "p2"), tracking.ErrNotFound)
}
