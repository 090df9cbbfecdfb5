package tracking

// DeriveStatus is shared by targets and profile assignment sub-targets.
// A zero goal with any achievement counts as completed.
func DeriveStatus(goalTotal, achievedTotal int) TargetStatus {
	switch {
	case achievedTotal == 0:
		return StatusPending
	case achievedTotal >= goalTotal:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

func CompletionRate(goalTotal, achievedTotal int) float64 {
	if goalTotal <= 0 {
		return 0
	}
	return 100 * float64(achievedTotal) / float64(goalTotal)
}

// Recompute refreshes the derived fields of a target. Stores call it on load.
func Recompute(t *Target) {
	goal, achieved := t.Goal.Total(), t.Achieved.Total()
	t.Status = DeriveStatus(goal, achieved)
	t.CompletionRate = CompletionRate(goal, achieved)
}

func RecomputeAssignmentTarget(st *AssignmentTarget) {
	st.Status = DeriveStatus(st.TargetAmount, st.AchievedAmount)
	st.CompletionRate = CompletionRate(st.TargetAmount, st.AchievedAmount)
}

// RecomputeProfile refreshes every sub-target of every assignment.
func RecomputeProfile(p *Profile) {
	for i := range p.Assignments {
		for j := range p.Assignments[i].Targets {
			RecomputeAssignmentTarget(&p.Assignments[i].Targets[j])
		}
	}
}
