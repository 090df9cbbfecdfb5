package policy

import (
	"sort"

	"leadtrack/internal/domain/auth"
)

type Field string

const (
	FieldType                Field = "type"
	FieldStartDate           Field = "startDate"
	FieldEndDate             Field = "endDate"
	FieldGoalJobsFetched     Field = "goal.jobsFetched"
	FieldGoalJobsApplied     Field = "goal.jobsApplied"
	FieldAchievedJobsFetched Field = "achieved.jobsFetched"
	FieldAchievedJobsApplied Field = "achieved.jobsApplied"
	FieldProfileBreakdown    Field = "profileBreakdown"
	FieldEmployeeID          Field = "employeeId"
	FieldCreatedBy           Field = "createdBy"

	FieldMonth          Field = "month"
	FieldYear           Field = "year"
	FieldTargetAmount   Field = "targetAmount"
	FieldAchievedAmount Field = "achievedAmount"
)

type Operation string

const (
	OpUpdateTarget           Operation = "target.update"
	OpUpdateAssignmentTarget Operation = "assignment_target.update"
)

var (
	managerTargetFields = []Field{
		FieldType, FieldStartDate, FieldEndDate,
		FieldGoalJobsFetched, FieldGoalJobsApplied,
		FieldAchievedJobsFetched, FieldAchievedJobsApplied,
		FieldProfileBreakdown,
	}
	adminOnlyTargetFields  = []Field{FieldEmployeeID, FieldCreatedBy}
	employeeTargetFields   = []Field{FieldAchievedJobsFetched, FieldAchievedJobsApplied}
	managerSubTargetFields = []Field{FieldMonth, FieldYear, FieldTargetAmount, FieldAchievedAmount}
	employeeSubTarget      = []Field{FieldAchievedAmount}
)

type FieldSet map[Field]struct{}

func NewFieldSet(fields ...Field) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

func (s FieldSet) Empty() bool {
	return len(s) == 0
}

func (s FieldSet) Sorted() []Field {
	out := make([]Field, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Policy narrows mutations to the fields a caller may touch. Route-level
// grants come from the Table; field rules are fixed per role.
type Policy struct {
	table *Table
}

func New(table *Table) *Policy {
	return &Policy{table: table}
}

func (p *Policy) Table() *Table {
	return p.table
}

func (p *Policy) Allows(role auth.Role, resource, action string) bool {
	return p.table.Allows(role, resource, action)
}

// AllowedFields returns the mutable field set for role performing op on a
// record it does (isOwner) or does not own. An empty set means the whole
// mutation must be rejected.
func (p *Policy) AllowedFields(role auth.Role, op Operation, isOwner bool) FieldSet {
	switch op {
	case OpUpdateTarget:
		if !p.table.Allows(role, ResourceTargets, ActionUpdate) {
			return FieldSet{}
		}
		switch role {
		case auth.RoleAdmin:
			return NewFieldSet(append(append([]Field{}, managerTargetFields...), adminOnlyTargetFields...)...)
		case auth.RoleManager:
			return NewFieldSet(managerTargetFields...)
		case auth.RoleEmployee:
			if isOwner {
				return NewFieldSet(employeeTargetFields...)
			}
		}
	case OpUpdateAssignmentTarget:
		if !p.table.Allows(role, ResourceProfiles, ActionUpdate) {
			return FieldSet{}
		}
		switch role {
		case auth.RoleAdmin, auth.RoleManager:
			return NewFieldSet(managerSubTargetFields...)
		case auth.RoleEmployee:
			if isOwner {
				return NewFieldSet(employeeSubTarget...)
			}
		}
	}
	return FieldSet{}
}
