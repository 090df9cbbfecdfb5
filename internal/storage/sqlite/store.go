// Package sqlite persists tracking records in a single sqlite file through
// modernc.org/sqlite. Nested lists are stored as JSON text.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/tracking"
)

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	db *sql.DB
}

var _ tracking.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(timeLayout, value)
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) LoadEmployee(ctx context.Context, id string) (tracking.Employee, error) {
	var emp tracking.Employee
	var role, createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT id, name, email, role, created_at FROM employees WHERE id = ?`, id).
		Scan(&emp.ID, &emp.Name, &emp.Email, &role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tracking.Employee{}, &tracking.NotFoundError{Kind: "employee", ID: id}
	}
	if err != nil {
		return tracking.Employee{}, fmt.Errorf("load employee: %w", err)
	}
	emp.Role = auth.Role(role)
	if emp.CreatedAt, err = parseTime(createdAt); err != nil {
		return tracking.Employee{}, err
	}
	return emp, nil
}

func (s *Store) SaveEmployee(ctx context.Context, emp tracking.Employee) error {
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
    INSERT INTO employees (id, name, email, role, created_at) VALUES (?, ?, ?, ?, ?)
    ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email, role = excluded.role
  `, emp.ID, emp.Name, emp.Email, string(emp.Role), formatTime(emp.CreatedAt))
	if err != nil {
		return fmt.Errorf("save employee: %w", err)
	}
	return nil
}

func (s *Store) QueryEmployees(ctx context.Context, filter tracking.EmployeeFilter) ([]tracking.Employee, error) {
	var where []string
	var args []any
	if filter.Role != "" {
		where, args = append(where, "role = ?"), append(args, string(filter.Role))
	}
	query := `SELECT id, name, email, role, created_at FROM employees` + whereClause(where) + ` ORDER BY name, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()
	out := []tracking.Employee{}
	for rows.Next() {
		var emp tracking.Employee
		var role, createdAt string
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Email, &role, &createdAt); err != nil {
			return nil, err
		}
		emp.Role = auth.Role(role)
		if emp.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

const targetColumns = `id, employee_id, type, start_date, end_date,
    goal_jobs_fetched, goal_jobs_applied, achieved_jobs_fetched, achieved_jobs_applied,
    profile_breakdown, created_by, updated_by, created_at, updated_at`

func scanTarget(row scanner) (tracking.Target, error) {
	var t tracking.Target
	var kind, breakdown, start, end, createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.EmployeeID, &kind, &start, &end,
		&t.Goal.JobsFetched, &t.Goal.JobsApplied, &t.Achieved.JobsFetched, &t.Achieved.JobsApplied,
		&breakdown, &t.CreatedBy, &t.UpdatedBy, &createdAt, &updatedAt)
	if err != nil {
		return tracking.Target{}, err
	}
	t.Type = tracking.TargetType(kind)
	for _, pair := range []struct {
		dst *time.Time
		src string
	}{{&t.StartDate, start}, {&t.EndDate, end}, {&t.CreatedAt, createdAt}, {&t.UpdatedAt, updatedAt}} {
		if *pair.dst, err = parseTime(pair.src); err != nil {
			return tracking.Target{}, err
		}
	}
	t.ProfileBreakdown = []tracking.ProfileProgress{}
	if err := json.Unmarshal([]byte(breakdown), &t.ProfileBreakdown); err != nil {
		return tracking.Target{}, fmt.Errorf("decode profile breakdown: %w", err)
	}
	tracking.Recompute(&t)
	return t, nil
}

func (s *Store) LoadTarget(ctx context.Context, id string) (tracking.Target, error) {
	t, err := scanTarget(s.db.QueryRowContext(ctx, `SELECT `+targetColumns+` FROM targets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return tracking.Target{}, &tracking.NotFoundError{Kind: "target", ID: id}
	}
	if err != nil {
		return tracking.Target{}, fmt.Errorf("load target: %w", err)
	}
	return t, nil
}

func (s *Store) SaveTarget(ctx context.Context, t tracking.Target) error {
	breakdown := t.ProfileBreakdown
	if breakdown == nil {
		breakdown = []tracking.ProfileProgress{}
	}
	raw, err := json.Marshal(breakdown)
	if err != nil {
		return err
	}
	status := tracking.DeriveStatus(t.Goal.Total(), t.Achieved.Total())
	_, err = s.db.ExecContext(ctx, `
    INSERT INTO targets (id, employee_id, type, start_date, end_date,
      goal_jobs_fetched, goal_jobs_applied, achieved_jobs_fetched, achieved_jobs_applied,
      profile_breakdown, status, created_by, updated_by, created_at, updated_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT (id) DO UPDATE SET
      employee_id = excluded.employee_id,
      type = excluded.type,
      start_date = excluded.start_date,
      end_date = excluded.end_date,
      goal_jobs_fetched = excluded.goal_jobs_fetched,
      goal_jobs_applied = excluded.goal_jobs_applied,
      achieved_jobs_fetched = excluded.achieved_jobs_fetched,
      achieved_jobs_applied = excluded.achieved_jobs_applied,
      profile_breakdown = excluded.profile_breakdown,
      status = excluded.status,
      created_by = excluded.created_by,
      updated_by = excluded.updated_by,
      updated_at = excluded.updated_at
  `, t.ID, t.EmployeeID, string(t.Type), formatTime(t.StartDate), formatTime(t.EndDate),
		t.Goal.JobsFetched, t.Goal.JobsApplied, t.Achieved.JobsFetched, t.Achieved.JobsApplied,
		string(raw), string(status), t.CreatedBy, t.UpdatedBy, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save target: %w", err)
	}
	return nil
}

func (s *Store) DeleteTarget(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM targets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &tracking.NotFoundError{Kind: "target", ID: id}
	}
	return nil
}

func (s *Store) QueryTargets(ctx context.Context, filter tracking.TargetFilter) ([]tracking.Target, error) {
	var where []string
	var args []any
	if filter.EmployeeID != "" {
		where, args = append(where, "employee_id = ?"), append(args, filter.EmployeeID)
	}
	if filter.CreatedBy != "" {
		where, args = append(where, "created_by = ?"), append(args, filter.CreatedBy)
	}
	if filter.Type != "" {
		where, args = append(where, "type = ?"), append(args, string(filter.Type))
	}
	if filter.Status != "" {
		where, args = append(where, "status = ?"), append(args, string(filter.Status))
	}
	if !filter.From.IsZero() {
		where, args = append(where, "end_date >= ?"), append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		where, args = append(where, "start_date <= ?"), append(args, formatTime(filter.To))
	}
	query := `SELECT ` + targetColumns + ` FROM targets` + whereClause(where) + ` ORDER BY start_date DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	defer rows.Close()
	out := []tracking.Target{}
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const eventColumns = `id, target_id, employee_id, profile_id, event_date, job_details,
    jobs_fetched, jobs_applied, response_rate, interview_rate,
    COALESCE(supersedes, ''), COALESCE(superseded_by, ''), created_by, created_at`

func scanEvent(row scanner) (tracking.AchievementEvent, error) {
	var e tracking.AchievementEvent
	var date, details, createdAt string
	err := row.Scan(&e.ID, &e.TargetID, &e.EmployeeID, &e.ProfileID, &date, &details,
		&e.Metrics.JobsFetched, &e.Metrics.JobsApplied, &e.Metrics.ResponseRate, &e.Metrics.InterviewRate,
		&e.Supersedes, &e.SupersededBy, &e.CreatedBy, &createdAt)
	if err != nil {
		return tracking.AchievementEvent{}, err
	}
	if e.Date, err = parseTime(date); err != nil {
		return tracking.AchievementEvent{}, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return tracking.AchievementEvent{}, err
	}
	e.JobDetails = []tracking.JobDetail{}
	if err := json.Unmarshal([]byte(details), &e.JobDetails); err != nil {
		return tracking.AchievementEvent{}, fmt.Errorf("decode job details: %w", err)
	}
	return e, nil
}

func (s *Store) AppendAchievementEvent(ctx context.Context, e tracking.AchievementEvent) error {
	raw, err := marshalDetails(e.JobDetails)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
    INSERT INTO achievement_events (id, target_id, employee_id, profile_id, event_date, job_details,
      jobs_fetched, jobs_applied, response_rate, interview_rate, supersedes, created_by, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
  `, e.ID, e.TargetID, e.EmployeeID, e.ProfileID, formatTime(e.Date), raw,
		e.Metrics.JobsFetched, e.Metrics.JobsApplied, e.Metrics.ResponseRate, e.Metrics.InterviewRate,
		nullString(e.Supersedes), e.CreatedBy, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *Store) LoadEvent(ctx context.Context, id string) (tracking.AchievementEvent, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM achievement_events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return tracking.AchievementEvent{}, &tracking.NotFoundError{Kind: "event", ID: id}
	}
	if err != nil {
		return tracking.AchievementEvent{}, fmt.Errorf("load event: %w", err)
	}
	return e, nil
}

func (s *Store) SaveEvent(ctx context.Context, e tracking.AchievementEvent) error {
	raw, err := marshalDetails(e.JobDetails)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
    UPDATE achievement_events
    SET job_details = ?, jobs_fetched = ?, jobs_applied = ?, response_rate = ?, interview_rate = ?, superseded_by = ?
    WHERE id = ?
  `, raw, e.Metrics.JobsFetched, e.Metrics.JobsApplied, e.Metrics.ResponseRate, e.Metrics.InterviewRate,
		nullString(e.SupersededBy), e.ID)
	if err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &tracking.NotFoundError{Kind: "event", ID: e.ID}
	}
	return nil
}

func (s *Store) QueryEvents(ctx context.Context, filter tracking.EventFilter) ([]tracking.AchievementEvent, error) {
	var where []string
	var args []any
	if filter.EmployeeID != "" {
		where, args = append(where, "employee_id = ?"), append(args, filter.EmployeeID)
	}
	if filter.ProfileID != "" {
		where, args = append(where, "profile_id = ?"), append(args, filter.ProfileID)
	}
	if filter.TargetID != "" {
		where, args = append(where, "target_id = ?"), append(args, filter.TargetID)
	}
	if !filter.From.IsZero() {
		where, args = append(where, "event_date >= ?"), append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		where, args = append(where, "event_date <= ?"), append(args, formatTime(filter.To))
	}
	if !filter.IncludeSuperseded {
		where = append(where, "superseded_by IS NULL")
	}
	query := `SELECT ` + eventColumns + ` FROM achievement_events` + whereClause(where) +
		` ORDER BY event_date DESC, created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	out := []tracking.AchievementEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const profileColumns = `id, name, email, phone, company, status, assignments, created_by, created_at, updated_at`

func scanProfile(row scanner) (tracking.Profile, error) {
	var p tracking.Profile
	var status, assignments, createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Company, &status, &assignments,
		&p.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return tracking.Profile{}, err
	}
	p.Status = tracking.ProfileStatus(status)
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return tracking.Profile{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return tracking.Profile{}, err
	}
	p.Assignments = []tracking.Assignment{}
	if err := json.Unmarshal([]byte(assignments), &p.Assignments); err != nil {
		return tracking.Profile{}, fmt.Errorf("decode assignments: %w", err)
	}
	tracking.RecomputeProfile(&p)
	return p, nil
}

func (s *Store) LoadProfile(ctx context.Context, id string) (tracking.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return tracking.Profile{}, &tracking.NotFoundError{Kind: "profile", ID: id}
	}
	if err != nil {
		return tracking.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p tracking.Profile) error {
	assignments := p.Assignments
	if assignments == nil {
		assignments = []tracking.Assignment{}
	}
	raw, err := json.Marshal(assignments)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
    INSERT INTO profiles (id, name, email, phone, company, status, assignments, created_by, created_at, updated_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT (id) DO UPDATE SET
      name = excluded.name,
      email = excluded.email,
      phone = excluded.phone,
      company = excluded.company,
      status = excluded.status,
      assignments = excluded.assignments,
      updated_at = excluded.updated_at
  `, p.ID, p.Name, p.Email, p.Phone, p.Company, string(p.Status), string(raw), p.CreatedBy,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &tracking.NotFoundError{Kind: "profile", ID: id}
	}
	return nil
}

func (s *Store) QueryProfiles(ctx context.Context, filter tracking.ProfileFilter) ([]tracking.Profile, error) {
	var where []string
	var args []any
	if filter.Status != "" {
		where, args = append(where, "status = ?"), append(args, string(filter.Status))
	}
	if filter.EmployeeID != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(profiles.assignments) WHERE json_extract(value, '$.employeeId') = ?)`)
		args = append(args, filter.EmployeeID)
	}
	query := `SELECT ` + profileColumns + ` FROM profiles` + whereClause(where) + ` ORDER BY name, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()
	out := []tracking.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func whereClause(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

func marshalDetails(details []tracking.JobDetail) (string, error) {
	if details == nil {
		details = []tracking.JobDetail{}
	}
	raw, err := json.Marshal(details)
	return string(raw), err
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
