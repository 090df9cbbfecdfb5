package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/policy"
	"leadtrack/internal/domain/tracking"
)

// Source is the slice of the tracking service reports read from.
type Source interface {
	LoadEmployee(ctx context.Context, id string) (tracking.Employee, error)
	ListTargets(ctx context.Context, filter tracking.TargetFilter, actor auth.Identity) ([]tracking.Target, error)
	ListEvents(ctx context.Context, filter tracking.EventFilter, actor auth.Identity) ([]tracking.AchievementEvent, error)
}

type Window struct {
	From time.Time
	To   time.Time
}

type EmployeeReport struct {
	Employee      tracking.Employee           `json:"employee"`
	Window        Window                      `json:"window"`
	Targets       []tracking.Target           `json:"targets"`
	Events        []tracking.AchievementEvent `json:"events"`
	TargetSummary tracking.TargetSummary      `json:"targetSummary"`
	EventSummary  tracking.EventSummary       `json:"eventSummary"`
	GeneratedAt   time.Time                   `json:"generatedAt"`
}

type TeamReport struct {
	Window      Window                     `json:"window"`
	Employees   []tracking.EmployeeSummary `json:"employees"`
	Overall     tracking.TargetSummary     `json:"overall"`
	GeneratedAt time.Time                  `json:"generatedAt"`
}

type Service struct {
	source Source
	policy *policy.Policy
	now    func() time.Time
}

func NewService(source Source, pol *policy.Policy) *Service {
	return &Service{source: source, policy: pol, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) authorize(actor auth.Identity, action string) error {
	if !s.policy.Allows(actor.Role, policy.ResourceReports, action) {
		return &tracking.AuthorizationError{Role: actor.Role, Action: action + " reports"}
	}
	return nil
}

// EmployeeReport loads the employee's targets and events concurrently and
// rolls them up. Visibility rules of the tracking service still apply.
func (s *Service) EmployeeReport(ctx context.Context, employeeID string, window Window, actor auth.Identity) (EmployeeReport, error) {
	if err := s.authorize(actor, policy.ActionRead); err != nil {
		return EmployeeReport{}, err
	}
	employee, err := s.source.LoadEmployee(ctx, employeeID)
	if err != nil {
		return EmployeeReport{}, err
	}

	report := EmployeeReport{Employee: employee, Window: window, GeneratedAt: s.now()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		targets, err := s.source.ListTargets(gctx, tracking.TargetFilter{EmployeeID: employeeID, From: window.From, To: window.To}, actor)
		if err != nil {
			return fmt.Errorf("load targets: %w", err)
		}
		report.Targets = targets
		return nil
	})
	g.Go(func() error {
		events, err := s.source.ListEvents(gctx, tracking.EventFilter{EmployeeID: employeeID, From: window.From, To: window.To}, actor)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		report.Events = events
		return nil
	})
	if err := g.Wait(); err != nil {
		return EmployeeReport{}, err
	}

	report.TargetSummary = tracking.Summarize(report.Targets)
	report.EventSummary = tracking.SummarizeEvents(report.Events)
	return report, nil
}

func (s *Service) TeamReport(ctx context.Context, window Window, actor auth.Identity) (TeamReport, error) {
	if err := s.authorize(actor, policy.ActionRead); err != nil {
		return TeamReport{}, err
	}
	targets, err := s.source.ListTargets(ctx, tracking.TargetFilter{From: window.From, To: window.To}, actor)
	if err != nil {
		return TeamReport{}, err
	}
	return TeamReport{
		Window:      window,
		Employees:   tracking.SummarizeByEmployee(targets),
		Overall:     tracking.Summarize(targets),
		GeneratedAt: s.now(),
	}, nil
}

// CanExport reports whether actor may download rendered reports.
func (s *Service) CanExport(actor auth.Identity) error {
	return s.authorize(actor, policy.ActionExport)
}
