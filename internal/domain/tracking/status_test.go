package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name     string
		goal     int
		achieved int
		want     TargetStatus
	}{
		{"nothing achieved", 15, 0, StatusPending},
		{"zero goal nothing achieved", 0, 0, StatusPending},
		{"zero goal with achievement", 0, 3, StatusCompleted},
		{"partial", 15, 7, StatusInProgress},
		{"exact", 15, 15, StatusCompleted},
		{"over", 15, 20, StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.goal, tc.achieved))
		})
	}
}

func TestRecomputeScenarios(t *testing.T) {
	full := Target{Goal: Counts{JobsFetched: 10, JobsApplied: 5}}
	full.Achieved = full.Achieved.Add(Counts{JobsFetched: 10, JobsApplied: 5})
	Recompute(&full)
	assert.Equal(t, StatusCompleted, full.Status)
	assert.InDelta(t, 100.0, full.CompletionRate, 1e-9)

	empty := Target{}
	Recompute(&empty)
	assert.Equal(t, StatusPending, empty.Status)
	assert.Zero(t, empty.CompletionRate)
}

func TestRecomputeMatchesFormula(t *testing.T) {
	for goal := 0; goal <= 12; goal += 3 {
		for achieved := 0; achieved <= 15; achieved++ {
			tgt := Target{
				Goal:     Counts{JobsFetched: goal, JobsApplied: goal / 3},
				Achieved: Counts{JobsFetched: achieved, JobsApplied: achieved / 2},
			}
			Recompute(&tgt)
			g, a := tgt.Goal.Total(), tgt.Achieved.Total()
			want := 0.0
			if g > 0 {
				want = 100 * float64(a) / float64(g)
			}
			assert.InDelta(t, want, tgt.CompletionRate, 1e-9)
			switch {
			case a == 0:
				assert.Equal(t, StatusPending, tgt.Status)
			case a >= g:
				assert.Equal(t, StatusCompleted, tgt.Status)
			default:
				assert.Equal(t, StatusInProgress, tgt.Status)
			}
		}
	}
}

func TestRecomputeProfileSubTargets(t *testing.T) {
	p := Profile{Assignments: []Assignment{{Targets: []AssignmentTarget{
		{TargetAmount: 10, AchievedAmount: 0},
		{TargetAmount: 10, AchievedAmount: 4},
		{TargetAmount: 10, AchievedAmount: 10},
		{TargetAmount: 0, AchievedAmount: 1},
	}}}}
	RecomputeProfile(&p)
	got := p.Assignments[0].Targets
	assert.Equal(t, StatusPending, got[0].Status)
	assert.Equal(t, StatusInProgress, got[1].Status)
	assert.InDelta(t, 40.0, got[1].CompletionRate, 1e-9)
	assert.Equal(t, StatusCompleted, got[2].Status)
	assert.Equal(t, StatusCompleted, got[3].Status)
	assert.Zero(t, got[3].CompletionRate)
}
