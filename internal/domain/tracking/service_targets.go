package tracking

import (
	"context"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/policy"
	"leadtrack/internal/requestctx"
)

func (s *Service) CreateTarget(ctx context.Context, def TargetDefinition, actor auth.Identity) (Target, error) {
	if !actor.IsManagerLevel() {
		return Target{}, forbidden(actor.Role, "create targets")
	}
	if err := s.authorize(actor, policy.ResourceTargets, policy.ActionCreate); err != nil {
		return Target{}, err
	}
	if err := checkStruct(def); err != nil {
		return Target{}, err
	}
	if def.StartDate.After(def.EndDate) {
		return Target{}, invalid("endDate", "must not be before startDate")
	}
	if err := s.requireEmployee(ctx, def.EmployeeID); err != nil {
		return Target{}, err
	}

	now := s.now()
	target := Target{
		ID:         s.newID(),
		EmployeeID: def.EmployeeID,
		Type:       def.Type,
		StartDate:  def.StartDate.UTC(),
		EndDate:    def.EndDate.UTC(),
		Goal:       def.Goal,
		CreatedBy:  actor.ID,
		UpdatedBy:  actor.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	target.ProfileBreakdown = make([]ProfileProgress, 0, len(def.ProfileBreakdown))
	for _, pg := range def.ProfileBreakdown {
		target.ProfileBreakdown = append(target.ProfileBreakdown, ProfileProgress{ProfileID: pg.ProfileID, Goal: pg.Goal})
	}
	Recompute(&target)

	if err := s.store.SaveTarget(ctx, target); err != nil {
		return Target{}, err
	}
	return target, nil
}

// UpdateTarget narrows the patch to what the actor may change, then merges
// what is left. A patch whose every field was dropped still succeeds and
// returns the unchanged target.
func (s *Service) UpdateTarget(ctx context.Context, id string, patch TargetPatch, actor auth.Identity) (Target, error) {
	target, err := s.store.LoadTarget(ctx, id)
	if err != nil {
		return Target{}, err
	}
	// Employees are rejected by the field policy below; managers restricted
	// to their own targets never learn that others exist.
	if actor.Role == auth.RoleManager && !s.canSeeTarget(target, actor) {
		return Target{}, &NotFoundError{Kind: "target", ID: id}
	}

	allowed := s.policy.AllowedFields(actor.Role, policy.OpUpdateTarget, target.EmployeeID == actor.ID)
	if allowed.Empty() {
		return Target{}, forbidden(actor.Role, "update target")
	}
	narrowed, dropped := patch.Narrow(allowed)
	if len(dropped) > 0 {
		requestctx.Logger(ctx).Debug("target patch narrowed", "targetId", id, "role", actor.Role, "dropped", dropped)
	}

	if err := s.applyTargetPatch(ctx, &target, narrowed, actor); err != nil {
		return Target{}, err
	}
	target.UpdatedBy = actor.ID
	target.UpdatedAt = s.now()
	Recompute(&target)

	if err := s.store.SaveTarget(ctx, target); err != nil {
		return Target{}, err
	}
	return target, nil
}

func (s *Service) applyTargetPatch(ctx context.Context, t *Target, p TargetPatch, actor auth.Identity) error {
	if p.Type != nil {
		switch *p.Type {
		case TargetTypeDaily, TargetTypeWeekly, TargetTypeMonthly, TargetTypeYearly:
			t.Type = *p.Type
		default:
			return invalid("type", "must be one of: daily weekly monthly yearly")
		}
	}
	if p.StartDate != nil {
		t.StartDate = p.StartDate.UTC()
	}
	if p.EndDate != nil {
		t.EndDate = p.EndDate.UTC()
	}
	if t.StartDate.After(t.EndDate) {
		return invalid("endDate", "must not be before startDate")
	}

	if p.Goal != nil {
		next := mergeCounts(t.Goal, p.Goal)
		if next.negative() {
			return invalid("goal", "counts must be non-negative")
		}
		t.Goal = next
	}
	if p.Achieved != nil {
		next := mergeCounts(t.Achieved, p.Achieved)
		if next.negative() {
			return invalid("achieved", "counts must be non-negative")
		}
		if !actor.IsManagerLevel() && (next.JobsFetched < t.Achieved.JobsFetched || next.JobsApplied < t.Achieved.JobsApplied) {
			return invalid("achieved", "counts may not decrease")
		}
		t.Achieved = next
	}
	if p.ProfileBreakdown != nil {
		for _, pp := range *p.ProfileBreakdown {
			if pp.ProfileID == "" {
				return invalid("profileBreakdown", "profileId is required")
			}
			if pp.Goal.negative() || pp.Achieved.negative() {
				return invalid("profileBreakdown", "counts must be non-negative")
			}
		}
		t.ProfileBreakdown = append([]ProfileProgress{}, *p.ProfileBreakdown...)
	}
	if p.EmployeeID != nil && *p.EmployeeID != t.EmployeeID {
		if err := s.requireEmployee(ctx, *p.EmployeeID); err != nil {
			return err
		}
		t.EmployeeID = *p.EmployeeID
	}
	if p.CreatedBy != nil {
		if *p.CreatedBy == "" {
			return invalid("createdBy", "is required")
		}
		t.CreatedBy = *p.CreatedBy
	}
	return nil
}

func mergeCounts(base Counts, p *CountsPatch) Counts {
	if p.JobsFetched != nil {
		base.JobsFetched = *p.JobsFetched
	}
	if p.JobsApplied != nil {
		base.JobsApplied = *p.JobsApplied
	}
	return base
}

// RecordProfileAchievement adds delta to one profile's progress and to the
// target's achieved totals. A profile missing from the breakdown is added
// with a zero goal.
func (s *Service) RecordProfileAchievement(ctx context.Context, targetID, profileID string, delta Counts, actor auth.Identity) (Target, error) {
	if profileID == "" {
		return Target{}, invalid("profileId", "is required")
	}
	if delta.negative() {
		return Target{}, invalid("delta", "counts must be non-negative")
	}
	if err := s.authorize(actor, policy.ResourceTargets, policy.ActionUpdate); err != nil {
		return Target{}, err
	}
	target, err := s.store.LoadTarget(ctx, targetID)
	if err != nil {
		return Target{}, err
	}
	if !actor.IsManagerLevel() && target.EmployeeID != actor.ID {
		return Target{}, forbidden(actor.Role, "record achievements on another employee's target")
	}
	if actor.Role == auth.RoleManager && !s.canSeeTarget(target, actor) {
		return Target{}, &NotFoundError{Kind: "target", ID: targetID}
	}

	found := false
	for i := range target.ProfileBreakdown {
		if target.ProfileBreakdown[i].ProfileID == profileID {
			target.ProfileBreakdown[i].Achieved = target.ProfileBreakdown[i].Achieved.Add(delta)
			found = true
			break
		}
	}
	if !found {
		target.ProfileBreakdown = append(target.ProfileBreakdown, ProfileProgress{ProfileID: profileID, Achieved: delta})
	}
	target.Achieved = target.Achieved.Add(delta)
	target.UpdatedBy = actor.ID
	target.UpdatedAt = s.now()
	Recompute(&target)

	if err := s.store.SaveTarget(ctx, target); err != nil {
		return Target{}, err
	}
	return target, nil
}

func (s *Service) ListTargets(ctx context.Context, filter TargetFilter, actor auth.Identity) ([]Target, error) {
	if err := s.authorize(actor, policy.ResourceTargets, policy.ActionRead); err != nil {
		return nil, err
	}
	scoped, err := s.scopeTargetFilter(filter, actor)
	if err != nil {
		return nil, err
	}
	if !scoped.From.IsZero() && !scoped.To.IsZero() && scoped.From.After(scoped.To) {
		return nil, invalid("from", "must not be after to")
	}
	return s.store.QueryTargets(ctx, scoped)
}

func (s *Service) scopeTargetFilter(filter TargetFilter, actor auth.Identity) (TargetFilter, error) {
	switch actor.Role {
	case auth.RoleAdmin:
	case auth.RoleManager:
		if s.scope == ManagerScopeCreated {
			filter.CreatedBy = actor.ID
		}
	default:
		if filter.EmployeeID != "" && filter.EmployeeID != actor.ID {
			return TargetFilter{}, forbidden(actor.Role, "view other employees' targets")
		}
		filter.EmployeeID = actor.ID
	}
	return filter, nil
}

func (s *Service) canSeeTarget(t Target, actor auth.Identity) bool {
	switch actor.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleManager:
		return s.scope != ManagerScopeCreated || t.CreatedBy == actor.ID
	default:
		return t.EmployeeID == actor.ID
	}
}

func (s *Service) GetTarget(ctx context.Context, id string, actor auth.Identity) (Target, error) {
	if err := s.authorize(actor, policy.ResourceTargets, policy.ActionRead); err != nil {
		return Target{}, err
	}
	target, err := s.store.LoadTarget(ctx, id)
	if err != nil {
		return Target{}, err
	}
	if !s.canSeeTarget(target, actor) {
		return Target{}, &NotFoundError{Kind: "target", ID: id}
	}
	return target, nil
}

func (s *Service) DeleteTarget(ctx context.Context, id string, actor auth.Identity) error {
	if !actor.IsManagerLevel() {
		return forbidden(actor.Role, "delete targets")
	}
	if err := s.authorize(actor, policy.ResourceTargets, policy.ActionDelete); err != nil {
		return err
	}
	target, err := s.store.LoadTarget(ctx, id)
	if err != nil {
		return err
	}
	if !s.canSeeTarget(target, actor) {
		return &NotFoundError{Kind: "target", ID: id}
	}
	// The ledger is append-only, so a target with recorded events stays.
	events, err := s.store.QueryEvents(ctx, EventFilter{TargetID: id, IncludeSuperseded: true})
	if err != nil {
		return err
	}
	if len(events) > 0 {
		return invalid("targetId", "target has recorded events")
	}
	return s.store.DeleteTarget(ctx, id)
}

func (s *Service) requireEmployee(ctx context.Context, id string) error {
	emp, err := s.store.LoadEmployee(ctx, id)
	if err != nil {
		return err
	}
	if emp.Role != auth.RoleEmployee {
		return invalid("employeeId", "must reference an EMPLOYEE")
	}
	return nil
}
