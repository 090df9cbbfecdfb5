package tracking_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadtrack/internal/domain/tracking"
)

func (f fixture) assignedProfile(t *testing.T) (tracking.Profile, string) {
	t.Helper()
	ctx := context.Background()
	profile, err := f.svc.CreateProfile(ctx, tracking.ProfileInput{Name: "Globex", Email: "ops@globex.test"}, manager)
	require.NoError(t, err)
	_, err = f.svc.AssignProfile(ctx, profile.ID, employee.ID, manager)
	require.NoError(t, err)
	profile, err = f.svc.AddAssignmentTarget(ctx, profile.ID, tracking.AssignmentTargetInput{
		EmployeeID: employee.ID, Month: 3, Year: 2026, TargetAmount: 20,
	}, manager)
	require.NoError(t, err)
	return profile, profile.Assignments[0].Targets[0].ID
}

func TestCreateProfileDefaults(t *testing.T) {
	f := newFixture(t)
	profile, err := f.svc.CreateProfile(context.Background(), tracking.ProfileInput{Name: "Initech"}, manager)
	require.NoError(t, err)
	assert.Equal(t, tracking.ProfileNew, profile.Status)
	assert.Empty(t, profile.Assignments)

	_, err = f.svc.CreateProfile(context.Background(), tracking.ProfileInput{Name: "Initech"}, employee)
	assert.ErrorIs(t, err, tracking.ErrForbidden)

	_, err = f.svc.CreateProfile(context.Background(), tracking.ProfileInput{Email: "bad"}, manager)
	assert.ErrorIs(t, err, tracking.ErrValidation)
}

func TestAssignProfileRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile, _ := f.assignedProfile(t)

	_, err := f.svc.AssignProfile(ctx, profile.ID, employee.ID, manager)
	assert.ErrorIs(t, err, tracking.ErrValidation, "duplicate assignment")

	_, err = f.svc.AssignProfile(ctx, profile.ID, manager.ID, manager)
	assert.ErrorIs(t, err, tracking.ErrValidation)

	_, err = f.svc.AssignProfile(ctx, profile.ID, "ghost", manager)
	assert.ErrorIs(t, err, tracking.ErrNotFound)

	_, err = f.svc.AssignProfile(ctx, profile.ID, colleague.ID, employee)
	assert.ErrorIs(t, err, tracking.ErrForbidden)
}

func TestAddAssignmentTargetRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile, _ := f.assignedProfile(t)

	st := profile.Assignments[0].Targets[0]
	assert.Equal(t, tracking.StatusPending, st.Status)

	_, err := f.svc.AddAssignmentTarget(ctx, profile.ID, tracking.AssignmentTargetInput{
		EmployeeID: employee.ID, Month: 3, Year: 2026, TargetAmount: 5,
	}, manager)
	assert.ErrorIs(t, err, tracking.ErrValidation, "duplicate month")

	_, err = f.svc.AddAssignmentTarget(ctx, profile.ID, tracking.AssignmentTargetInput{
		EmployeeID: employee.ID, Month: 13, Year: 2026,
	}, manager)
	assert.ErrorIs(t, err, tracking.ErrValidation)

	_, err = f.svc.AddAssignmentTarget(ctx, profile.ID, tracking.AssignmentTargetInput{
		EmployeeID: colleague.ID, Month: 4, Year: 2026,
	}, manager)
	assert.ErrorIs(t, err, tracking.ErrNotFound)
}

func TestUpdateAssignmentTargetEmployeeNarrowed(t *testing.T) {
	f := newFixture(t)
	profile, subID := f.assignedProfile(t)

	got, err := f.svc.UpdateAssignmentTarget(context.Background(), profile.ID, subID, tracking.AssignmentTargetPatch{
		TargetAmount:   intPtr(1),
		AchievedAmount: intPtr(10),
	}, employee)
	require.NoError(t, err)

	st := got.Assignments[0].Targets[0]
	assert.Equal(t, 20, st.TargetAmount)
	assert.Equal(t, 10, st.AchievedAmount)
	assert.Equal(t, tracking.StatusInProgress, st.Status)
	assert.InDelta(t, 50.0, st.CompletionRate, 1e-9)
}

func TestUpdateAssignmentTargetManager(t *testing.T) {
	f := newFixture(t)
	profile, subID := f.assignedProfile(t)

	got, err := f.svc.UpdateAssignmentTarget(context.Background(), profile.ID, subID, tracking.AssignmentTargetPatch{
		TargetAmount:   intPtr(10),
		AchievedAmount: intPtr(10),
	}, manager)
	require.NoError(t, err)
	assert.Equal(t, tracking.StatusCompleted, got.Assignments[0].Targets[0].Status)
}

func TestUpdateAssignmentTargetOtherEmployee(t *testing.T) {
	f := newFixture(t)
	profile, subID := f.assignedProfile(t)
	ctx := context.Background()

	_, err := f.svc.UpdateAssignmentTarget(ctx, profile.ID, subID, tracking.AssignmentTargetPatch{AchievedAmount: intPtr(1)}, colleague)
	assert.ErrorIs(t, err, tracking.ErrForbidden)

	_, err = f.svc.UpdateAssignmentTarget(ctx, profile.ID, "missing", tracking.AssignmentTargetPatch{AchievedAmount: intPtr(1)}, employee)
	assert.ErrorIs(t, err, tracking.ErrNotFound)

	_, err = f.svc.UpdateAssignmentTarget(ctx, profile.ID, subID, tracking.AssignmentTargetPatch{AchievedAmount: intPtr(-1)}, employee)
	assert.ErrorIs(t, err, tracking.ErrValidation)
}

func TestProfileVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile, _ := f.assignedProfile(t)
	_, err := f.svc.CreateProfile(ctx, tracking.ProfileInput{Name: "Umbrella"}, manager)
	require.NoError(t, err)

	mine, err := f.svc.ListProfiles(ctx, tracking.ProfileFilter{}, employee)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, profile.ID, mine[0].ID)

	all, err := f.svc.ListProfiles(ctx, tracking.ProfileFilter{}, manager)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.GetProfile(ctx, profile.ID, colleague)
	assert.ErrorIs(t, err, tracking.ErrNotFound)

	got, err := f.svc.GetProfile(ctx, profile.ID, employee)
	require.NoError(t, err)
	assert.Equal(t, "Globex", got.Name)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile, _ := f.assignedProfile(t)

	got, err := f.svc.UpdateProfile(ctx, profile.ID, tracking.ProfileInput{Name: "Globex Corp", Status: tracking.ProfileQualified}, manager)
	require.NoError(t, err)
	assert.Equal(t, "Globex Corp", got.Name)
	assert.Equal(t, tracking.ProfileQualified, got.Status)
	assert.Len(t, got.Assignments, 1, "assignments survive a profile update")

	_, err = f.svc.UpdateProfile(ctx, profile.ID, tracking.ProfileInput{Name: "x"}, employee)
	assert.ErrorIs(t, err, tracking.ErrForbidden)
}

func TestUpdateAssignmentTargetBounds(t *testing.T) {
	f := newFixture(t)
	profile, subID := f.assignedProfile(t)
	ctx := context.Background()

	cases := []tracking.AssignmentTargetPatch{
		{Year: intPtr(10000)},
		{Year: intPtr(1999)},
		{Month: intPtr(0)},
		{Month: intPtr(13)},
		{TargetAmount: intPtr(-5)},
	}
	for _, patch := range cases {
		_, err := f.svc.UpdateAssignmentTarget(ctx, profile.ID, subID, patch, manager)
		assert.ErrorIs(t, err, tracking.ErrValidation, "%+v", patch)
	}

	got, err := f.svc.UpdateAssignmentTarget(ctx, profile.ID, subID, tracking.AssignmentTargetPatch{Year: intPtr(9999)}, manager)
	require.NoError(t, err)
	assert.Equal(t, 9999, got.Assignments[0].Targets[0].Year)
}

func TestDeleteProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile, _ := f.assignedProfile(t)

	assert.ErrorIs(t, f.svc.DeleteProfile(ctx, profile.ID, employee), tracking.ErrForbidden)
	require.NoError(t, f.svc.DeleteProfile(ctx, profile.ID, manager))
	_, err := f.svc.GetProfile(ctx, profile.ID, manager)
	assert.ErrorIs(t, err, tracking.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteProfile(ctx, profile.ID, manager), tracking.ErrNotFound)
}
