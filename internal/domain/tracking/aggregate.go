package tracking

import "sort"

type TargetSummary struct {
	Count          int                  `json:"count"`
	Goal           Counts               `json:"goal"`
	Achieved       Counts               `json:"achieved"`
	GoalTotal      int                  `json:"goalTotal"`
	AchievedTotal  int                  `json:"achievedTotal"`
	CompletionRate float64              `json:"completionRate"`
	ByStatus       map[TargetStatus]int `json:"byStatus"`
}

type EventSummary struct {
	Events           int     `json:"events"`
	TotalJobsFetched int     `json:"totalJobsFetched"`
	TotalJobsApplied int     `json:"totalJobsApplied"`
	AvgResponseRate  float64 `json:"avgResponseRate"`
	AvgInterviewRate float64 `json:"avgInterviewRate"`
}

type EmployeeSummary struct {
	EmployeeID string `json:"employeeId"`
	TargetSummary
}

// Summarize returns the weighted completion rate of the set, which is not
// the mean of the per-target rates.
func Summarize(targets []Target) TargetSummary {
	s := TargetSummary{ByStatus: map[TargetStatus]int{
		StatusPending:    0,
		StatusInProgress: 0,
		StatusCompleted:  0,
	}}
	for _, t := range targets {
		s.Count++
		s.Goal = s.Goal.Add(t.Goal)
		s.Achieved = s.Achieved.Add(t.Achieved)
		s.ByStatus[DeriveStatus(t.Goal.Total(), t.Achieved.Total())]++
	}
	s.GoalTotal = s.Goal.Total()
	s.AchievedTotal = s.Achieved.Total()
	s.CompletionRate = CompletionRate(s.GoalTotal, s.AchievedTotal)
	return s
}

func SummarizeEvents(events []AchievementEvent) EventSummary {
	var s EventSummary
	if len(events) == 0 {
		return s
	}
	var responseSum, interviewSum float64
	for _, e := range events {
		s.Events++
		s.TotalJobsFetched += e.Metrics.JobsFetched
		s.TotalJobsApplied += e.Metrics.JobsApplied
		responseSum += e.Metrics.ResponseRate
		interviewSum += e.Metrics.InterviewRate
	}
	s.AvgResponseRate = responseSum / float64(s.Events)
	s.AvgInterviewRate = interviewSum / float64(s.Events)
	return s
}

// SummarizeByEmployee groups targets per employee, ordered by employee id.
func SummarizeByEmployee(targets []Target) []EmployeeSummary {
	grouped := make(map[string][]Target)
	for _, t := range targets {
		grouped[t.EmployeeID] = append(grouped[t.EmployeeID], t)
	}
	out := make([]EmployeeSummary, 0, len(grouped))
	for id, list := range grouped {
		out = append(out, EmployeeSummary{EmployeeID: id, TargetSummary: Summarize(list)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}
