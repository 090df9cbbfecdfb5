package tracking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/policy"
	"leadtrack/internal/domain/tracking"
	"leadtrack/internal/storage/memory"
)

var (
	employee  = auth.Identity{ID: "emp-1", Role: auth.RoleEmployee}
	colleague = auth.Identity{ID: "emp-2", Role: auth.RoleEmployee}
	manager   = auth.Identity{ID: "mgr-1", Role: auth.RoleManager}
	other     = auth.Identity{ID: "mgr-2", Role: auth.RoleManager}
	admin     = auth.Identity{ID: "adm-1", Role: auth.RoleAdmin}
)

type fixture struct {
	svc   *tracking.Service
	store *memory.Store
}

func newFixture(t *testing.T, opts ...tracking.Option) fixture {
	t.Helper()
	table, err := policy.DefaultTable()
	require.NoError(t, err)
	store := memory.New()
	ctx := context.Background()
	for _, id := range []auth.Identity{employee, colleague, manager, other, admin} {
		require.NoError(t, store.SaveEmployee(ctx, tracking.Employee{ID: id.ID, Name: id.ID, Role: id.Role}))
	}
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	opts = append([]tracking.Option{tracking.WithClock(func() time.Time { return clock })}, opts...)
	return fixture{svc: tracking.NewService(store, policy.New(table), opts...), store: store}
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func definition(goal tracking.Counts) tracking.TargetDefinition {
	return tracking.TargetDefinition{
		EmployeeID: employee.ID,
		Type:       tracking.TargetTypeWeekly,
		StartDate:  day(2),
		EndDate:    day(8),
		Goal:       goal,
	}
}

func (f fixture) createTarget(t *testing.T, goal tracking.Counts) tracking.Target {
	t.Helper()
	target, err := f.svc.CreateTarget(context.Background(), definition(goal), manager)
	require.NoError(t, err)
	return target
}

func intPtr(v int) *int { return &v }
