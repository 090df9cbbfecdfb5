package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"leadtrack/internal/domain/policy"
)

func intPtr(v int) *int { return &v }

func TestTargetPatchNarrowEmployeeOwner(t *testing.T) {
	status := StatusCompleted
	patch := TargetPatch{
		Goal:     &CountsPatch{JobsFetched: intPtr(1)},
		Achieved: &CountsPatch{JobsFetched: intPtr(4), JobsApplied: intPtr(2)},
		Status:   &status,
	}
	allowed := policy.NewFieldSet(policy.FieldAchievedJobsFetched, policy.FieldAchievedJobsApplied)

	got, dropped := patch.Narrow(allowed)

	assert.Nil(t, got.Goal)
	assert.Nil(t, got.Status)
	if assert.NotNil(t, got.Achieved) {
		assert.Equal(t, 4, *got.Achieved.JobsFetched)
		assert.Equal(t, 2, *got.Achieved.JobsApplied)
	}
	assert.ElementsMatch(t, []policy.Field{policy.FieldGoalJobsFetched, "status"}, dropped)
}

func TestTargetPatchNarrowKeepsAllowedDates(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	owner := "e1"
	patch := TargetPatch{StartDate: &start, EmployeeID: &owner}
	allowed := policy.NewFieldSet(policy.FieldStartDate)

	got, dropped := patch.Narrow(allowed)

	assert.Equal(t, &start, got.StartDate)
	assert.Nil(t, got.EmployeeID)
	assert.Equal(t, []policy.Field{policy.FieldEmployeeID}, dropped)
}

func TestTargetPatchFields(t *testing.T) {
	kind := TargetTypeWeekly
	patch := TargetPatch{Type: &kind, Achieved: &CountsPatch{JobsApplied: intPtr(1)}}
	assert.Equal(t, []policy.Field{policy.FieldType, policy.FieldAchievedJobsApplied}, patch.Fields())
}

func TestAssignmentTargetPatchNarrow(t *testing.T) {
	patch := AssignmentTargetPatch{TargetAmount: intPtr(50), AchievedAmount: intPtr(5)}
	got, dropped := patch.Narrow(policy.NewFieldSet(policy.FieldAchievedAmount))
	assert.Nil(t, got.TargetAmount)
	assert.Equal(t, 5, *got.AchievedAmount)
	assert.Equal(t, []policy.Field{policy.FieldTargetAmount}, dropped)
}
