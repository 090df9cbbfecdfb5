package tracking

import "leadtrack/internal/domain/policy"

// Fields lists the fields present in the patch, status included.
func (p TargetPatch) Fields() []policy.Field {
	var out []policy.Field
	if p.Type != nil {
		out = append(out, policy.FieldType)
	}
	if p.StartDate != nil {
		out = append(out, policy.FieldStartDate)
	}
	if p.EndDate != nil {
		out = append(out, policy.FieldEndDate)
	}
	if p.Goal != nil {
		if p.Goal.JobsFetched != nil {
			out = append(out, policy.FieldGoalJobsFetched)
		}
		if p.Goal.JobsApplied != nil {
			out = append(out, policy.FieldGoalJobsApplied)
		}
	}
	if p.Achieved != nil {
		if p.Achieved.JobsFetched != nil {
			out = append(out, policy.FieldAchievedJobsFetched)
		}
		if p.Achieved.JobsApplied != nil {
			out = append(out, policy.FieldAchievedJobsApplied)
		}
	}
	if p.ProfileBreakdown != nil {
		out = append(out, policy.FieldProfileBreakdown)
	}
	if p.EmployeeID != nil {
		out = append(out, policy.FieldEmployeeID)
	}
	if p.CreatedBy != nil {
		out = append(out, policy.FieldCreatedBy)
	}
	if p.Status != nil {
		out = append(out, "status")
	}
	return out
}

// Narrow keeps only the allowed fields and reports the ones it dropped.
// Status never survives.
func (p TargetPatch) Narrow(allowed policy.FieldSet) (TargetPatch, []policy.Field) {
	var out TargetPatch
	var dropped []policy.Field
	keep := func(f policy.Field) bool {
		if allowed.Has(f) {
			return true
		}
		dropped = append(dropped, f)
		return false
	}

	if p.Type != nil && keep(policy.FieldType) {
		out.Type = p.Type
	}
	if p.StartDate != nil && keep(policy.FieldStartDate) {
		out.StartDate = p.StartDate
	}
	if p.EndDate != nil && keep(policy.FieldEndDate) {
		out.EndDate = p.EndDate
	}
	if p.Goal != nil {
		out.Goal = narrowCounts(p.Goal, policy.FieldGoalJobsFetched, policy.FieldGoalJobsApplied, keep)
	}
	if p.Achieved != nil {
		out.Achieved = narrowCounts(p.Achieved, policy.FieldAchievedJobsFetched, policy.FieldAchievedJobsApplied, keep)
	}
	if p.ProfileBreakdown != nil && keep(policy.FieldProfileBreakdown) {
		out.ProfileBreakdown = p.ProfileBreakdown
	}
	if p.EmployeeID != nil && keep(policy.FieldEmployeeID) {
		out.EmployeeID = p.EmployeeID
	}
	if p.CreatedBy != nil && keep(policy.FieldCreatedBy) {
		out.CreatedBy = p.CreatedBy
	}
	if p.Status != nil {
		dropped = append(dropped, "status")
	}
	return out, dropped
}

func narrowCounts(in *CountsPatch, fetched, applied policy.Field, keep func(policy.Field) bool) *CountsPatch {
	var out CountsPatch
	if in.JobsFetched != nil && keep(fetched) {
		out.JobsFetched = in.JobsFetched
	}
	if in.JobsApplied != nil && keep(applied) {
		out.JobsApplied = in.JobsApplied
	}
	if out.JobsFetched == nil && out.JobsApplied == nil {
		return nil
	}
	return &out
}

func (p AssignmentTargetPatch) Narrow(allowed policy.FieldSet) (AssignmentTargetPatch, []policy.Field) {
	var out AssignmentTargetPatch
	var dropped []policy.Field
	pick := func(v *int, f policy.Field) *int {
		if v == nil {
			return nil
		}
		if !allowed.Has(f) {
			dropped = append(dropped, f)
			return nil
		}
		return v
	}
	out.Month = pick(p.Month, policy.FieldMonth)
	out.Year = pick(p.Year, policy.FieldYear)
	out.TargetAmount = pick(p.TargetAmount, policy.FieldTargetAmount)
	out.AchievedAmount = pick(p.AchievedAmount, policy.FieldAchievedAmount)
	return out, dropped
}
