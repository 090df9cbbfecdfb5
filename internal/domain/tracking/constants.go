package tracking

type TargetType string

const (
	TargetTypeDaily   TargetType = "daily"
	TargetTypeWeekly  TargetType = "weekly"
	TargetTypeMonthly TargetType = "monthly"
	TargetTypeYearly  TargetType = "yearly"
)

type TargetStatus string

const (
	StatusPending    TargetStatus = "pending"
	StatusInProgress TargetStatus = "in_progress"
	StatusCompleted  TargetStatus = "completed"
)

type JobStatus string

const (
	JobFetched   JobStatus = "fetched"
	JobApplied   JobStatus = "applied"
	JobRejected  JobStatus = "rejected"
	JobInterview JobStatus = "interview"
	JobOffered   JobStatus = "offered"
)

type ProfileStatus string

const (
	ProfileNew         ProfileStatus = "new"
	ProfileContacted   ProfileStatus = "contacted"
	ProfileQualified   ProfileStatus = "qualified"
	ProfileProposal    ProfileStatus = "proposal"
	ProfileNegotiation ProfileStatus = "negotiation"
	ProfileClosed      ProfileStatus = "closed"
)

const (
	AssignmentActive   = "active"
	AssignmentInactive = "inactive"
)

// ManagerScope controls which targets a manager sees when listing.
type ManagerScope string

const (
	ManagerScopeAll     ManagerScope = "all"
	ManagerScopeCreated ManagerScope = "created"
)
