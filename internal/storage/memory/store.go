// Package memory keeps tracking records in process memory. It backs tests
// and STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"leadtrack/internal/domain/tracking"
)

type Store struct {
	mu        sync.RWMutex
	employees map[string]tracking.Employee
	targets   map[string]tracking.Target
	events    map[string]tracking.AchievementEvent
	profiles  map[string]tracking.Profile
}

var _ tracking.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		employees: map[string]tracking.Employee{},
		targets:   map[string]tracking.Target{},
		events:    map[string]tracking.AchievementEvent{},
		profiles:  map[string]tracking.Profile{},
	}
}

func (s *Store) LoadEmployee(_ context.Context, id string) (tracking.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	if !ok {
		return tracking.Employee{}, &tracking.NotFoundError{Kind: "employee", ID: id}
	}
	return emp, nil
}

func (s *Store) SaveEmployee(_ context.Context, employee tracking.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[employee.ID] = employee
	return nil
}

func (s *Store) QueryEmployees(_ context.Context, filter tracking.EmployeeFilter) ([]tracking.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []tracking.Employee{}
	for _, emp := range s.employees {
		if filter.Role != "" && emp.Role != filter.Role {
			continue
		}
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) LoadTarget(_ context.Context, id string) (tracking.Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.targets[id]
	if !ok {
		return tracking.Target{}, &tracking.NotFoundError{Kind: "target", ID: id}
	}
	return copyTarget(t), nil
}

func (s *Store) SaveTarget(_ context.Context, target tracking.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[target.ID] = copyTarget(target)
	return nil
}

func (s *Store) DeleteTarget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.targets[id]; !ok {
		return &tracking.NotFoundError{Kind: "target", ID: id}
	}
	delete(s.targets, id)
	return nil
}

func (s *Store) QueryTargets(_ context.Context, filter tracking.TargetFilter) ([]tracking.Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []tracking.Target{}
	for _, t := range s.targets {
		if !matchTarget(t, filter) {
			continue
		}
		out = append(out, copyTarget(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchTarget(t tracking.Target, f tracking.TargetFilter) bool {
	if f.EmployeeID != "" && t.EmployeeID != f.EmployeeID {
		return false
	}
	if f.CreatedBy != "" && t.CreatedBy != f.CreatedBy {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Status != "" && tracking.DeriveStatus(t.Goal.Total(), t.Achieved.Total()) != f.Status {
		return false
	}
	if !f.From.IsZero() && t.EndDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.StartDate.After(f.To) {
		return false
	}
	return true
}

func (s *Store) AppendAchievementEvent(_ context.Context, event tracking.AchievementEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = copyEvent(event)
	return nil
}

func (s *Store) LoadEvent(_ context.Context, id string) (tracking.AchievementEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return tracking.AchievementEvent{}, &tracking.NotFoundError{Kind: "event", ID: id}
	}
	return copyEvent(e), nil
}

func (s *Store) SaveEvent(_ context.Context, event tracking.AchievementEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[event.ID]
	if !ok {
		return &tracking.NotFoundError{Kind: "event", ID: event.ID}
	}
	existing.JobDetails = append([]tracking.JobDetail{}, event.JobDetails...)
	existing.Metrics = event.Metrics
	existing.SupersededBy = event.SupersededBy
	s.events[event.ID] = existing
	return nil
}

func (s *Store) QueryEvents(_ context.Context, filter tracking.EventFilter) ([]tracking.AchievementEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []tracking.AchievementEvent{}
	for _, e := range s.events {
		if !matchEvent(e, filter) {
			continue
		}
		out = append(out, copyEvent(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchEvent(e tracking.AchievementEvent, f tracking.EventFilter) bool {
	if f.EmployeeID != "" && e.EmployeeID != f.EmployeeID {
		return false
	}
	if f.ProfileID != "" && e.ProfileID != f.ProfileID {
		return false
	}
	if f.TargetID != "" && e.TargetID != f.TargetID {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false
	}
	if !f.IncludeSuperseded && e.SupersededBy != "" {
		return false
	}
	return true
}

func (s *Store) LoadProfile(_ context.Context, id string) (tracking.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return tracking.Profile{}, &tracking.NotFoundError{Kind: "profile", ID: id}
	}
	return copyProfile(p), nil
}

func (s *Store) SaveProfile(_ context.Context, profile tracking.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = copyProfile(profile)
	return nil
}

func (s *Store) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return &tracking.NotFoundError{Kind: "profile", ID: id}
	}
	delete(s.profiles, id)
	return nil
}

func (s *Store) QueryProfiles(_ context.Context, filter tracking.ProfileFilter) ([]tracking.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []tracking.Profile{}
	for _, p := range s.profiles {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.EmployeeID != "" && !assignedTo(p, filter.EmployeeID) {
			continue
		}
		out = append(out, copyProfile(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func assignedTo(p tracking.Profile, employeeID string) bool {
	for _, a := range p.Assignments {
		if a.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

func copyTarget(t tracking.Target) tracking.Target {
	t.ProfileBreakdown = append([]tracking.ProfileProgress{}, t.ProfileBreakdown...)
	tracking.Recompute(&t)
	return t
}

func copyEvent(e tracking.AchievementEvent) tracking.AchievementEvent {
	e.JobDetails = append([]tracking.JobDetail{}, e.JobDetails...)
	return e
}

func copyProfile(p tracking.Profile) tracking.Profile {
	assignments := make([]tracking.Assignment, len(p.Assignments))
	for i, a := range p.Assignments {
		a.Targets = append([]tracking.AssignmentTarget{}, a.Targets...)
		assignments[i] = a
	}
	p.Assignments = assignments
	tracking.RecomputeProfile(&p)
	return p
}
