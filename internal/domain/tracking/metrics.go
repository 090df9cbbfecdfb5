package tracking

func ComputeMetrics(details []JobDetail) EventMetrics {
	var m EventMetrics
	responses, interviews := 0, 0
	for _, d := range details {
		if d.Status == JobFetched {
			m.JobsFetched++
			continue
		}
		m.JobsApplied++
		switch d.Status {
		case JobRejected:
			responses++
		case JobInterview, JobOffered:
			responses++
			interviews++
		}
	}
	if m.JobsApplied > 0 {
		m.ResponseRate = 100 * float64(responses) / float64(m.JobsApplied)
		m.InterviewRate = 100 * float64(interviews) / float64(m.JobsApplied)
	}
	return m
}
