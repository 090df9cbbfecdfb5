package tracking

import "context"

// Store is the persistence collaborator. Missing records are reported as
// *NotFoundError. Writes are last-writer-wins.
type Store interface {
	EmployeeDirectory
	TargetRepository
	EventRepository
	ProfileRepository
}

type EmployeeDirectory interface {
	LoadEmployee(ctx context.Context, id string) (Employee, error)
	SaveEmployee(ctx context.Context, employee Employee) error
	// QueryEmployees returns matches ordered by name, then id.
	QueryEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
}

type TargetRepository interface {
	LoadTarget(ctx context.Context, id string) (Target, error)
	SaveTarget(ctx context.Context, target Target) error
	DeleteTarget(ctx context.Context, id string) error
	// QueryTargets returns matches ordered by start date, newest first.
	QueryTargets(ctx context.Context, filter TargetFilter) ([]Target, error)
}

type EventRepository interface {
	AppendAchievementEvent(ctx context.Context, event AchievementEvent) error
	LoadEvent(ctx context.Context, id string) (AchievementEvent, error)
	// SaveEvent persists the mutable parts of an existing event: job details,
	// metrics and the superseding event id.
	SaveEvent(ctx context.Context, event AchievementEvent) error
	// QueryEvents returns matches ordered by date, newest first.
	QueryEvents(ctx context.Context, filter EventFilter) ([]AchievementEvent, error)
}

type ProfileRepository interface {
	LoadProfile(ctx context.Context, id string) (Profile, error)
	SaveProfile(ctx context.Context, profile Profile) error
	DeleteProfile(ctx context.Context, id string) error
	QueryProfiles(ctx context.Context, filter ProfileFilter) ([]Profile, error)
}
