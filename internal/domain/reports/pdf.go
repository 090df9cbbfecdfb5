package reports

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const dateLayout = "2006-01-02"

// RenderEmployeePDF writes a one-document performance report: header,
// rollup, a targets table and an achievements table.
func RenderEmployeePDF(w io.Writer, report EmployeeReport) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Performance report "+report.Employee.Name, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Performance Report")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s (%s)", report.Employee.Name, report.Employee.Email))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Period: "+windowLabel(report.Window))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Generated: "+report.GeneratedAt.Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	ts, es := report.TargetSummary, report.EventSummary
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Targets: %d  Goal: %d  Achieved: %d  Completion: %.2f%%", ts.Count, ts.GoalTotal, ts.AchievedTotal, ts.CompletionRate))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Jobs fetched: %d  Jobs applied: %d  Avg response: %.2f%%  Avg interview: %.2f%%",
		es.TotalJobsFetched, es.TotalJobsApplied, es.AvgResponseRate, es.AvgInterviewRate))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Targets")
	pdf.Ln(8)
	table(pdf, []float64{22, 48, 30, 30, 25, 25},
		[]string{"Type", "Period", "Goal F/A", "Achieved F/A", "Completion", "Status"},
		func(row func(...string)) {
			for _, t := range report.Targets {
				row(string(t.Type),
					t.StartDate.Format(dateLayout)+" - "+t.EndDate.Format(dateLayout),
					fmt.Sprintf("%d/%d", t.Goal.JobsFetched, t.Goal.JobsApplied),
					fmt.Sprintf("%d/%d", t.Achieved.JobsFetched, t.Achieved.JobsApplied),
					fmt.Sprintf("%.2f%%", t.CompletionRate),
					string(t.Status))
			}
		})
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Achievements")
	pdf.Ln(8)
	table(pdf, []float64{28, 40, 24, 24, 32, 32},
		[]string{"Date", "Profile", "Fetched", "Applied", "Response", "Interview"},
		func(row func(...string)) {
			for _, e := range report.Events {
				row(e.Date.Format(dateLayout), e.ProfileID,
					fmt.Sprintf("%d", e.Metrics.JobsFetched),
					fmt.Sprintf("%d", e.Metrics.JobsApplied),
					fmt.Sprintf("%.2f%%", e.Metrics.ResponseRate),
					fmt.Sprintf("%.2f%%", e.Metrics.InterviewRate))
			}
		})

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.Output(w)
}

func table(pdf *gofpdf.Fpdf, widths []float64, header []string, rows func(func(...string))) {
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	empty := true
	rows(func(cells ...string) {
		empty = false
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	})
	if empty {
		total := 0.0
		for _, w := range widths {
			total += w
		}
		pdf.CellFormat(total, 6, "No records", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
}

func windowLabel(w Window) string {
	switch {
	case w.From.IsZero() && w.To.IsZero():
		return "all time"
	case w.From.IsZero():
		return "until " + w.To.Format(dateLayout)
	case w.To.IsZero():
		return "since " + w.From.Format(dateLayout)
	default:
		return w.From.Format(dateLayout) + " - " + w.To.Format(dateLayout)
	}
}
