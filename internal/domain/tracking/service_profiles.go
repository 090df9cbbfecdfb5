package tracking

import (
	"context"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/policy"
	"leadtrack/internal/requestctx"
)

func (s *Service) CreateProfile(ctx context.Context, in ProfileInput, actor auth.Identity) (Profile, error) {
	if !actor.IsManagerLevel() {
		return Profile{}, forbidden(actor.Role, "create profiles")
	}
	if err := s.authorize(actor, policy.ResourceProfiles, policy.ActionCreate); err != nil {
		return Profile{}, err
	}
	if err := checkStruct(in); err != nil {
		return Profile{}, err
	}
	now := s.now()
	profile := Profile{
		ID:          s.newID(),
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Company:     in.Company,
		Status:      in.Status,
		Assignments: []Assignment{},
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if profile.Status == "" {
		profile.Status = ProfileNew
	}
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput, actor auth.Identity) (Profile, error) {
	if !actor.IsManagerLevel() {
		return Profile{}, forbidden(actor.Role, "update profiles")
	}
	if err := s.authorize(actor, policy.ResourceProfiles, policy.ActionUpdate); err != nil {
		return Profile{}, err
	}
	if err := checkStruct(in); err != nil {
		return Profile{}, err
	}
	profile, err := s.store.LoadProfile(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	profile.Name = in.Name
	profile.Email = in.Email
	profile.Phone = in.Phone
	profile.Company = in.Company
	if in.Status != "" {
		profile.Status = in.Status
	}
	profile.UpdatedAt = s.now()
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func (s *Service) ListProfiles(ctx context.Context, filter ProfileFilter, actor auth.Identity) ([]Profile, error) {
	if err := s.authorize(actor, policy.ResourceProfiles, policy.ActionRead); err != nil {
		return nil, err
	}
	if !actor.IsManagerLevel() {
		if filter.EmployeeID != "" && filter.EmployeeID != actor.ID {
			return nil, forbidden(actor.Role, "view other employees' profiles")
		}
		filter.EmployeeID = actor.ID
	}
	return s.store.QueryProfiles(ctx, filter)
}

func (s *Service) GetProfile(ctx context.Context, id string, actor auth.Identity) (Profile, error) {
	if err := s.authorize(actor, policy.ResourceProfiles, policy.ActionRead); err != nil {
		return Profile{}, err
	}
	profile, err := s.store.LoadProfile(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if !actor.IsManagerLevel() && assignmentIndex(profile, actor.ID) < 0 {
		return Profile{}, &NotFoundError{Kind: "profile", ID: id}
	}
	return profile, nil
}

func (s *Service) DeleteProfile(ctx context.Context, id string, actor auth.Identity) error {
	if !actor.IsManagerLevel() {
		return forbidden(actor.Role, "delete profiles")
	}
	if err := s.authorize(actor, policy.ResourceProfiles, policy.ActionDelete); err != nil {
		return err
	}
	return s.store.DeleteProfile(ctx, id)
}

func (s *Service) AssignProfile(ctx context.Context, profileID, employeeID string, actor auth.Identity) (Profile, error) {
	if !actor.IsManagerLevel() {
		return Profile{}, forbidden(actor.Role, "assign profiles")
	}
	if err := s.authorize(actor, policy.ResourceProfiles, policy.ActionAssign); err != nil {
		return Profile{}, err
	}
	if employeeID == "" {
		return Profile{}, invalid("employeeId", "is required")
	}
	profile, err := s.store.LoadProfile(ctx, profileID)
	if err != nil {
		return Profile{}, err
	}
	if err := s.requireEmployee(ctx, employeeID); err != nil {
		return Profile{}, err
	}
	if assignmentIndex(profile, employeeID) >= 0 {
		return Profile{}, invalid("employeeId", "profile is already assigned to this employee")
	}
	now := s.now()
	profile.Assignments = append(profile.Assignments, Assignment{
		EmployeeID: employeeID,
		Targets:    []AssignmentTarget{},
		AssignedAt: now,
		Status:     AssignmentActive,
	})
	profile.UpdatedAt = now
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func (s *Service) AddAssignmentTarget(ctx context.Context, profileID string, in AssignmentTargetInput, actor auth.Identity) (Profile, error) {
	if !actor.IsManagerLevel() {
		return Profile{}, forbidden(actor.Role, "set profile targets")
	}
	if err := s.authorize(actor, policy.ResourceProfiles, policy.ActionAssign); err != nil {
		return Profile{}, err
	}
	if err := checkStruct(in); err != nil {
		return Profile{}, err
	}
	profile, err := s.store.LoadProfile(ctx, profileID)
	if err != nil {
		return Profile{}, err
	}
	idx := assignmentIndex(profile, in.EmployeeID)
	if idx < 0 {
		return Profile{}, &NotFoundError{Kind: "assignment", ID: in.EmployeeID}
	}
	for _, st := range profile.Assignments[idx].Targets {
		if st.Month == in.Month && st.Year == in.Year {
			return Profile{}, invalid("month", "a target for this month already exists")
		}
	}
	st := AssignmentTarget{
		ID:           s.newID(),
		Month:        in.Month,
		Year:         in.Year,
		TargetAmount: in.TargetAmount,
	}
	RecomputeAssignmentTarget(&st)
	profile.Assignments[idx].Targets = append(profile.Assignments[idx].Targets, st)
	profile.UpdatedAt = s.now()
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// UpdateAssignmentTarget applies the same narrowing rule as targets: an
// employee on their own assignment may only move achievedAmount.
func (s *Service) UpdateAssignmentTarget(ctx context.Context, profileID, subTargetID string, patch AssignmentTargetPatch, actor auth.Identity) (Profile, error) {
	profile, err := s.store.LoadProfile(ctx, profileID)
	if err != nil {
		return Profile{}, err
	}
	ai, ti := -1, -1
	for i, a := range profile.Assignments {
		for j, st := range a.Targets {
			if st.ID == subTargetID {
				ai, ti = i, j
			}
		}
	}
	if ai < 0 {
		return Profile{}, &NotFoundError{Kind: "assignment target", ID: subTargetID}
	}
	owner := profile.Assignments[ai].EmployeeID == actor.ID
	allowed := s.policy.AllowedFields(actor.Role, policy.OpUpdateAssignmentTarget, owner)
	if allowed.Empty() {
		return Profile{}, forbidden(actor.Role, "update assignment target")
	}
	narrowed, dropped := patch.Narrow(allowed)
	if len(dropped) > 0 {
		requestctx.Logger(ctx).Debug("assignment target patch narrowed", "profileId", profileID, "role", actor.Role, "dropped", dropped)
	}

	if err := checkStruct(narrowed); err != nil {
		return Profile{}, err
	}

	st := profile.Assignments[ai].Targets[ti]
	if narrowed.Month != nil {
		st.Month = *narrowed.Month
	}
	if narrowed.Year != nil {
		st.Year = *narrowed.Year
	}
	if narrowed.TargetAmount != nil {
		st.TargetAmount = *narrowed.TargetAmount
	}
	if narrowed.AchievedAmount != nil {
		st.AchievedAmount = *narrowed.AchievedAmount
	}
	for j, other := range profile.Assignments[ai].Targets {
		if j != ti && other.Month == st.Month && other.Year == st.Year {
			return Profile{}, invalid("month", "a target for this month already exists")
		}
	}
	RecomputeAssignmentTarget(&st)
	profile.Assignments[ai].Targets[ti] = st
	profile.UpdatedAt = s.now()
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func assignmentIndex(p Profile, employeeID string) int {
	for i, a := range p.Assignments {
		if a.EmployeeID == employeeID {
			return i
		}
	}
	return -1
}
