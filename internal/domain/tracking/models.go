package tracking

import (
	"time"

	"leadtrack/internal/domain/auth"
)

type Counts struct {
	JobsFetched int `json:"jobsFetched" validate:"gte=0"`
	JobsApplied int `json:"jobsApplied" validate:"gte=0"`
}

func (c Counts) Total() int {
	return c.JobsFetched + c.JobsApplied
}

func (c Counts) Add(delta Counts) Counts {
	return Counts{JobsFetched: c.JobsFetched + delta.JobsFetched, JobsApplied: c.JobsApplied + delta.JobsApplied}
}

func (c Counts) negative() bool {
	return c.JobsFetched < 0 || c.JobsApplied < 0
}

type ProfileProgress struct {
	ProfileID string `json:"profileId" validate:"required"`
	Goal      Counts `json:"goal"`
	Achieved  Counts `json:"achieved"`
}

type Target struct {
	ID               string            `json:"id"`
	EmployeeID       string            `json:"employeeId"`
	Type             TargetType        `json:"type"`
	StartDate        time.Time         `json:"startDate"`
	EndDate          time.Time         `json:"endDate"`
	Goal             Counts            `json:"goal"`
	Achieved         Counts            `json:"achieved"`
	ProfileBreakdown []ProfileProgress `json:"profileBreakdown"`
	Status           TargetStatus      `json:"status"`
	CompletionRate   float64           `json:"completionRate"`
	CreatedBy        string            `json:"createdBy"`
	UpdatedBy        string            `json:"updatedBy"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

type ProfileGoal struct {
	ProfileID string `json:"profileId" validate:"required"`
	Goal      Counts `json:"goal"`
}

type TargetDefinition struct {
	EmployeeID       string        `json:"employeeId" validate:"required"`
	Type             TargetType    `json:"type" validate:"required,oneof=daily weekly monthly yearly"`
	StartDate        time.Time     `json:"startDate" validate:"required"`
	EndDate          time.Time     `json:"endDate" validate:"required"`
	Goal             Counts        `json:"goal"`
	ProfileBreakdown []ProfileGoal `json:"profileBreakdown" validate:"dive"`
}

type CountsPatch struct {
	JobsFetched *int `json:"jobsFetched,omitempty"`
	JobsApplied *int `json:"jobsApplied,omitempty"`
}

// TargetPatch carries the caller's requested changes. Nil fields are absent.
// Status is accepted so it can be dropped explicitly; it is derived.
type TargetPatch struct {
	Type             *TargetType        `json:"type,omitempty"`
	StartDate        *time.Time         `json:"startDate,omitempty"`
	EndDate          *time.Time         `json:"endDate,omitempty"`
	Goal             *CountsPatch       `json:"goal,omitempty"`
	Achieved         *CountsPatch       `json:"achieved,omitempty"`
	ProfileBreakdown *[]ProfileProgress `json:"profileBreakdown,omitempty"`
	EmployeeID       *string            `json:"employeeId,omitempty"`
	CreatedBy        *string            `json:"createdBy,omitempty"`
	Status           *TargetStatus      `json:"status,omitempty"`
}

type TargetFilter struct {
	EmployeeID string
	CreatedBy  string
	Type       TargetType
	Status     TargetStatus
	From       time.Time
	To         time.Time
}

type JobDetail struct {
	JobTitle        string     `json:"jobTitle" validate:"required"`
	Company         string     `json:"company" validate:"required"`
	Source          string     `json:"source" validate:"required"`
	Status          JobStatus  `json:"status" validate:"required,oneof=fetched applied rejected interview offered"`
	ApplicationDate *time.Time `json:"applicationDate,omitempty"`
	ResponseDate    *time.Time `json:"responseDate,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

type EventMetrics struct {
	JobsFetched   int     `json:"jobsFetched"`
	JobsApplied   int     `json:"jobsApplied"`
	ResponseRate  float64 `json:"responseRate"`
	InterviewRate float64 `json:"interviewRate"`
}

type AchievementEvent struct {
	ID           string       `json:"id"`
	TargetID     string       `json:"targetId"`
	EmployeeID   string       `json:"employeeId"`
	ProfileID    string       `json:"profileId"`
	Date         time.Time    `json:"date"`
	JobDetails   []JobDetail  `json:"jobDetails"`
	Metrics      EventMetrics `json:"metrics"`
	Supersedes   string       `json:"supersedes,omitempty"`
	SupersededBy string       `json:"supersededBy,omitempty"`
	CreatedBy    string       `json:"createdBy"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type EventInput struct {
	TargetID   string      `json:"targetId" validate:"required"`
	ProfileID  string      `json:"profileId" validate:"required"`
	Date       time.Time   `json:"date" validate:"required"`
	JobDetails []JobDetail `json:"jobDetails" validate:"dive"`
	Supersedes string      `json:"supersedes,omitempty"`
}

type EventFilter struct {
	EmployeeID        string
	ProfileID         string
	TargetID          string
	From              time.Time
	To                time.Time
	IncludeSuperseded bool
}

type Employee struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Role      auth.Role `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"createdAt" yaml:"-"`
}

type EmployeeFilter struct {
	Role auth.Role
}

type AssignmentTarget struct {
	ID             string       `json:"id"`
	Month          int          `json:"month"`
	Year           int          `json:"year"`
	TargetAmount   int          `json:"targetAmount"`
	AchievedAmount int          `json:"achievedAmount"`
	Status         TargetStatus `json:"status"`
	CompletionRate float64      `json:"completionRate"`
}

type Assignment struct {
	EmployeeID string             `json:"employeeId"`
	Targets    []AssignmentTarget `json:"targets"`
	AssignedAt time.Time          `json:"assignedAt"`
	Status     string             `json:"status"`
}

type Profile struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone"`
	Company     string        `json:"company"`
	Status      ProfileStatus `json:"status"`
	Assignments []Assignment  `json:"assignments"`
	CreatedBy   string        `json:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type ProfileInput struct {
	Name    string        `json:"name" validate:"required"`
	Email   string        `json:"email" validate:"omitempty,email"`
	Phone   string        `json:"phone"`
	Company string        `json:"company"`
	Status  ProfileStatus `json:"status" validate:"omitempty,oneof=new contacted qualified proposal negotiation closed"`
}

type AssignmentTargetInput struct {
	EmployeeID   string `json:"employeeId" validate:"required"`
	Month        int    `json:"month" validate:"min=1,max=12"`
	Year         int    `json:"year" validate:"min=2000,max=9999"`
	TargetAmount int    `json:"targetAmount" validate:"gte=0"`
}

// AssignmentTargetPatch shares its bounds with AssignmentTargetInput.
type AssignmentTargetPatch struct {
	Month          *int `json:"month,omitempty" validate:"omitnil,min=1,max=12"`
	Year           *int `json:"year,omitempty" validate:"omitnil,min=2000,max=9999"`
	TargetAmount   *int `json:"targetAmount,omitempty" validate:"omitnil,gte=0"`
	AchievedAmount *int `json:"achievedAmount,omitempty" validate:"omitnil,gte=0"`
}

type ProfileFilter struct {
	EmployeeID string
	Status     ProfileStatus
}
