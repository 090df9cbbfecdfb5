package tracking

import (
	"context"
	"errors"
	"fmt"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/policy"
)

// AppendEvent records one achievement event. When in.Supersedes names an
// earlier event of the same target, that event is marked superseded after
// the new one is stored.
func (s *Service) AppendEvent(ctx context.Context, in EventInput, actor auth.Identity) (AchievementEvent, error) {
	if err := s.authorize(actor, policy.ResourceEvents, policy.ActionCreate); err != nil {
		return AchievementEvent{}, err
	}
	if err := checkStruct(in); err != nil {
		return AchievementEvent{}, err
	}
	target, err := s.store.LoadTarget(ctx, in.TargetID)
	if err != nil {
		return AchievementEvent{}, err
	}
	if !actor.IsManagerLevel() && target.EmployeeID != actor.ID {
		return AchievementEvent{}, forbidden(actor.Role, "record events for another employee")
	}
	if actor.Role == auth.RoleManager && !s.canSeeTarget(target, actor) {
		return AchievementEvent{}, &NotFoundError{Kind: "target", ID: in.TargetID}
	}

	var original AchievementEvent
	if in.Supersedes != "" {
		original, err = s.store.LoadEvent(ctx, in.Supersedes)
		if err != nil {
			return AchievementEvent{}, err
		}
		if original.TargetID != in.TargetID {
			return AchievementEvent{}, invalid("supersedes", "must reference an event of the same target")
		}
		if original.SupersededBy != "" {
			return AchievementEvent{}, invalid("supersedes", "event is already superseded")
		}
	}

	event := AchievementEvent{
		ID:         s.newID(),
		TargetID:   target.ID,
		EmployeeID: target.EmployeeID,
		ProfileID:  in.ProfileID,
		Date:       in.Date.UTC(),
		JobDetails: append([]JobDetail{}, in.JobDetails...),
		Metrics:    ComputeMetrics(in.JobDetails),
		Supersedes: in.Supersedes,
		CreatedBy:  actor.ID,
		CreatedAt:  s.now(),
	}
	if err := s.store.AppendAchievementEvent(ctx, event); err != nil {
		return AchievementEvent{}, err
	}

	if in.Supersedes != "" {
		original.SupersededBy = event.ID
		if err := s.store.SaveEvent(ctx, original); err != nil {
			return event, fmt.Errorf("event %s stored but %s not marked superseded: %w", event.ID, original.ID, err)
		}
	}
	return event, nil
}

// AppendJobDetails extends an event's job list and recomputes its metrics.
// Existing details are never rewritten.
func (s *Service) AppendJobDetails(ctx context.Context, eventID string, details []JobDetail, actor auth.Identity) (AchievementEvent, error) {
	if err := s.authorize(actor, policy.ResourceEvents, policy.ActionCreate); err != nil {
		return AchievementEvent{}, err
	}
	if len(details) == 0 {
		return AchievementEvent{}, invalid("jobDetails", "is required")
	}
	if err := checkStruct(struct {
		JobDetails []JobDetail `json:"jobDetails" validate:"dive"`
	}{details}); err != nil {
		return AchievementEvent{}, err
	}
	event, err := s.store.LoadEvent(ctx, eventID)
	if err != nil {
		return AchievementEvent{}, err
	}
	if !actor.IsManagerLevel() && event.EmployeeID != actor.ID {
		return AchievementEvent{}, forbidden(actor.Role, "modify another employee's events")
	}
	if ok, err := s.eventInScope(ctx, event, actor); err != nil {
		return AchievementEvent{}, err
	} else if !ok {
		return AchievementEvent{}, &NotFoundError{Kind: "event", ID: eventID}
	}
	if event.SupersededBy != "" {
		return AchievementEvent{}, invalid("eventId", "event is superseded")
	}

	event.JobDetails = append(event.JobDetails, details...)
	event.Metrics = ComputeMetrics(event.JobDetails)
	if err := s.store.SaveEvent(ctx, event); err != nil {
		return AchievementEvent{}, err
	}
	return event, nil
}

func (s *Service) ListEvents(ctx context.Context, filter EventFilter, actor auth.Identity) ([]AchievementEvent, error) {
	if err := s.authorize(actor, policy.ResourceEvents, policy.ActionRead); err != nil {
		return nil, err
	}
	if !actor.IsManagerLevel() {
		if filter.EmployeeID != "" && filter.EmployeeID != actor.ID {
			return nil, forbidden(actor.Role, "view other employees' events")
		}
		filter.EmployeeID = actor.ID
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, invalid("from", "must not be after to")
	}
	events, err := s.store.QueryEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	if actor.Role != auth.RoleManager || s.scope != ManagerScopeCreated {
		return events, nil
	}

	targets, err := s.store.QueryTargets(ctx, TargetFilter{EmployeeID: filter.EmployeeID, CreatedBy: actor.ID})
	if err != nil {
		return nil, err
	}
	visible := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		visible[t.ID] = struct{}{}
	}
	scoped := make([]AchievementEvent, 0, len(events))
	for _, e := range events {
		if _, ok := visible[e.TargetID]; ok {
			scoped = append(scoped, e)
		}
	}
	return scoped, nil
}

// eventInScope reports whether a manager restricted to the targets they
// created may see the event. Other actors are checked by the callers.
func (s *Service) eventInScope(ctx context.Context, event AchievementEvent, actor auth.Identity) (bool, error) {
	if actor.Role != auth.RoleManager || s.scope != ManagerScopeCreated {
		return true, nil
	}
	target, err := s.store.LoadTarget(ctx, event.TargetID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.canSeeTarget(target, actor), nil
}

func (s *Service) GetEvent(ctx context.Context, id string, actor auth.Identity) (AchievementEvent, error) {
	if err := s.authorize(actor, policy.ResourceEvents, policy.ActionRead); err != nil {
		return AchievementEvent{}, err
	}
	event, err := s.store.LoadEvent(ctx, id)
	if err != nil {
		return AchievementEvent{}, err
	}
	if !actor.IsManagerLevel() && event.EmployeeID != actor.ID {
		return AchievementEvent{}, &NotFoundError{Kind: "event", ID: id}
	}
	if ok, err := s.eventInScope(ctx, event, actor); err != nil {
		return AchievementEvent{}, err
	} else if !ok {
		return AchievementEvent{}, &NotFoundError{Kind: "event", ID: id}
	}
	return event, nil
}

// SummarizeTargets loads the visible targets and rolls them up.
func (s *Service) SummarizeTargets(ctx context.Context, filter TargetFilter, actor auth.Identity) (TargetSummary, error) {
	targets, err := s.ListTargets(ctx, filter, actor)
	if err != nil {
		return TargetSummary{}, err
	}
	return Summarize(targets), nil
}

func (s *Service) SummarizeEventWindow(ctx context.Context, filter EventFilter, actor auth.Identity) (EventSummary, error) {
	events, err := s.ListEvents(ctx, filter, actor)
	if err != nil {
		return EventSummary{}, err
	}
	return SummarizeEvents(events), nil
}

func (s *Service) LoadEmployee(ctx context.Context, id string) (Employee, error) {
	return s.store.LoadEmployee(ctx, id)
}

// ListEmployees serves the assignee picker; the role filter is optional.
func (s *Service) ListEmployees(ctx context.Context, filter EmployeeFilter, actor auth.Identity) ([]Employee, error) {
	if err := s.authorize(actor, policy.ResourceEmployees, policy.ActionRead); err != nil {
		return nil, err
	}
	if filter.Role != "" {
		role, ok := auth.ParseRole(string(filter.Role))
		if !ok {
			return nil, invalid("role", "must be one of: EMPLOYEE MANAGER ADMIN")
		}
		filter.Role = role
	}
	return s.store.QueryEmployees(ctx, filter)
}

func (s *Service) RegisterEmployee(ctx context.Context, emp Employee) (Employee, error) {
	if emp.ID == "" {
		emp.ID = s.newID()
	}
	if emp.Name == "" {
		return Employee{}, invalid("name", "is required")
	}
	role, ok := auth.ParseRole(string(emp.Role))
	if !ok {
		return Employee{}, invalid("role", "must be one of: EMPLOYEE MANAGER ADMIN")
	}
	emp.Role = role
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = s.now()
	}
	if err := s.store.SaveEmployee(ctx, emp); err != nil {
		return Employee{}, err
	}
	return emp, nil
}
