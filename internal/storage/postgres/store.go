// Package postgres persists tracking records with pgx. Nested lists
// (profile breakdowns, job details, assignments) live in jsonb columns.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/tracking"
	"leadtrack/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

var _ tracking.Store = (*Store)(nil)

func New(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) LoadEmployee(ctx context.Context, id string) (tracking.Employee, error) {
	var emp tracking.Employee
	var role string
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, email, role, created_at
    FROM employees
    WHERE id = $1
  `, id).Scan(&emp.ID, &emp.Name, &emp.Email, &role, &emp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return tracking.Employee{}, &tracking.NotFoundError{Kind: "employee", ID: id}
	}
	if err != nil {
		return tracking.Employee{}, fmt.Errorf("load employee: %w", err)
	}
	emp.Role = auth.Role(role)
	return emp, nil
}

func (s *Store) SaveEmployee(ctx context.Context, emp tracking.Employee) error {
	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employees (id, name, email, role, created_at)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role
  `, emp.ID, emp.Name, emp.Email, string(emp.Role), createdAt)
	if err != nil {
		return fmt.Errorf("save employee: %w", err)
	}
	return nil
}

func (s *Store) QueryEmployees(ctx context.Context, filter tracking.EmployeeFilter) ([]tracking.Employee, error) {
	query := `SELECT id, name, email, role, created_at FROM employees`
	var args []any
	if filter.Role != "" {
		query += ` WHERE role = $1`
		args = append(args, string(filter.Role))
	}
	query += ` ORDER BY name, id`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	out := []tracking.Employee{}
	for rows.Next() {
		var emp tracking.Employee
		var role string
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Email, &role, &emp.CreatedAt); err != nil {
			return nil, err
		}
		emp.Role = auth.Role(role)
		out = append(out, emp)
	}
	return out, rows.Err()
}

const targetColumns = `id, employee_id, type, start_date, end_date,
    goal_jobs_fetched, goal_jobs_applied, achieved_jobs_fetched, achieved_jobs_applied,
    profile_breakdown, created_by, updated_by, created_at, updated_at`

func scanTarget(row pgx.Row) (tracking.Target, error) {
	var t tracking.Target
	var kind string
	var breakdown []byte
	err := row.Scan(&t.ID, &t.EmployeeID, &kind, &t.StartDate, &t.EndDate,
		&t.Goal.JobsFetched, &t.Goal.JobsApplied, &t.Achieved.JobsFetched, &t.Achieved.JobsApplied,
		&breakdown, &t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return tracking.Target{}, err
	}
	t.Type = tracking.TargetType(kind)
	t.ProfileBreakdown = []tracking.ProfileProgress{}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &t.ProfileBreakdown); err != nil {
			return tracking.Target{}, fmt.Errorf("decode profile breakdown: %w", err)
		}
	}
	tracking.Recompute(&t)
	return t, nil
}

func (s *Store) LoadTarget(ctx context.Context, id string) (tracking.Target, error) {
	t, err := scanTarget(s.DB.QueryRow(ctx, `SELECT `+targetColumns+` FROM targets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return tracking.Target{}, &tracking.NotFoundError{Kind: "target", ID: id}
	}
	if err != nil {
		return tracking.Target{}, fmt.Errorf("load target: %w", err)
	}
	return t, nil
}

func (s *Store) SaveTarget(ctx context.Context, t tracking.Target) error {
	breakdown, err := json.Marshal(nonNilBreakdown(t.ProfileBreakdown))
	if err != nil {
		return err
	}
	status := tracking.DeriveStatus(t.Goal.Total(), t.Achieved.Total())
	_, err = s.DB.Exec(ctx, `
    INSERT INTO targets (id, employee_id, type, start_date, end_date,
      goal_jobs_fetched, goal_jobs_applied, achieved_jobs_fetched, achieved_jobs_applied,
      profile_breakdown, status, created_by, updated_by, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    ON CONFLICT (id) DO UPDATE SET
      employee_id = EXCLUDED.employee_id,
      type = EXCLUDED.type,
      start_date = EXCLUDED.start_date,
      end_date = EXCLUDED.end_date,
      goal_jobs_fetched = EXCLUDED.goal_jobs_fetched,
      goal_jobs_applied = EXCLUDED.goal_jobs_applied,
      achieved_jobs_fetched = EXCLUDED.achieved_jobs_fetched,
      achieved_jobs_applied = EXCLUDED.achieved_jobs_applied,
      profile_breakdown = EXCLUDED.profile_breakdown,
      status = EXCLUDED.status,
      created_by = EXCLUDED.created_by,
      updated_by = EXCLUDED.updated_by,
      updated_at = EXCLUDED.updated_at
  `, t.ID, t.EmployeeID, string(t.Type), t.StartDate, t.EndDate,
		t.Goal.JobsFetched, t.Goal.JobsApplied, t.Achieved.JobsFetched, t.Achieved.JobsApplied,
		breakdown, string(status), t.CreatedBy, t.UpdatedBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save target: %w", err)
	}
	return nil
}

func (s *Store) DeleteTarget(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM targets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &tracking.NotFoundError{Kind: "target", ID: id}
	}
	return nil
}

func (s *Store) QueryTargets(ctx context.Context, filter tracking.TargetFilter) ([]tracking.Target, error) {
	query := `SELECT ` + targetColumns + ` FROM targets`
	var where []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.EmployeeID != "" {
		add("employee_id = $%d", filter.EmployeeID)
	}
	if filter.CreatedBy != "" {
		add("created_by = $%d", filter.CreatedBy)
	}
	if filter.Type != "" {
		add("type = $%d", string(filter.Type))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if !filter.From.IsZero() {
		add("end_date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("start_date <= $%d", filter.To)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date DESC, id"

	rows, err := s.DB.Query(ctx, query, args...)
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

func scanEvent(row pgx.Row) (tracking.AchievementEvent, error) {
	var e tracking.AchievementEvent
	var details []byte
	err := row.Scan(&e.ID, &e.TargetID, &e.EmployeeID, &e.ProfileID, &e.Date, &details,
		&e.Metrics.JobsFetched, &e.Metrics.JobsApplied, &e.Metrics.ResponseRate, &e.Metrics.InterviewRate,
		&e.Supersedes, &e.SupersededBy, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return tracking.AchievementEvent{}, err
	}
	e.JobDetails = []tracking.JobDetail{}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.JobDetails); err != nil {
			return tracking.AchievementEvent{}, fmt.Errorf("decode job details: %w", err)
		}
	}
	return e, nil
}

func (s *Store) AppendAchievementEvent(ctx context.Context, e tracking.AchievementEvent) error {
	details, err := json.Marshal(nonNilDetails(e.JobDetails))
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO achievement_events (id, target_id, employee_id, profile_id, event_date, job_details,
      jobs_fetched, jobs_applied, response_rate, interview_rate, supersedes, created_by, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
  `, e.ID, e.TargetID, e.EmployeeID, e.ProfileID, e.Date, details,
		e.Metrics.JobsFetched, e.Metrics.JobsApplied, e.Metrics.ResponseRate, e.Metrics.InterviewRate,
		nullIfEmpty(e.Supersedes), e.CreatedBy, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *Store) LoadEvent(ctx context.Context, id string) (tracking.AchievementEvent, error) {
	e, err := scanEvent(s.DB.QueryRow(ctx, `SELECT `+eventColumns+` FROM achievement_events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return tracking.AchievementEvent{}, &tracking.NotFoundError{Kind: "event", ID: id}
	}
	if err != nil {
		return tracking.AchievementEvent{}, fmt.Errorf("load event: %w", err)
	}
	return e, nil
}

func (s *Store) SaveEvent(ctx context.Context, e tracking.AchievementEvent) error {
	details, err := json.Marshal(nonNilDetails(e.JobDetails))
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE achievement_events
    SET job_details = $2, jobs_fetched = $3, jobs_applied = $4,
        response_rate = $5, interview_rate = $6, superseded_by = $7
    WHERE id = $1
  `, e.ID, details, e.Metrics.JobsFetched, e.Metrics.JobsApplied,
		e.Metrics.ResponseRate, e.Metrics.InterviewRate, nullIfEmpty(e.SupersededBy))
	if err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &tracking.NotFoundError{Kind: "event", ID: e.ID}
	}
	return nil
}

func (s *Store) QueryEvents(ctx context.Context, filter tracking.EventFilter) ([]tracking.AchievementEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM achievement_events`
	var where []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.EmployeeID != "" {
		add("employee_id = $%d", filter.EmployeeID)
	}
	if filter.ProfileID != "" {
		add("profile_id = $%d", filter.ProfileID)
	}
	if filter.TargetID != "" {
		add("target_id = $%d", filter.TargetID)
	}
	if !filter.From.IsZero() {
		add("event_date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("event_date <= $%d", filter.To)
	}
	if !filter.IncludeSuperseded {
		where = append(where, "superseded_by IS NULL")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY event_date DESC, created_at DESC, id"

	rows, err := s.DB.Query(ctx, query, args...)
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

func scanProfile(row pgx.Row) (tracking.Profile, error) {
	var p tracking.Profile
	var status string
	var assignments []byte
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Company, &status, &assignments,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return tracking.Profile{}, err
	}
	p.Status = tracking.ProfileStatus(status)
	p.Assignments = []tracking.Assignment{}
	if len(assignments) > 0 {
		if err := json.Unmarshal(assignments, &p.Assignments); err != nil {
			return tracking.Profile{}, fmt.Errorf("decode assignments: %w", err)
		}
	}
	tracking.RecomputeProfile(&p)
	return p, nil
}

func (s *Store) LoadProfile(ctx context.Context, id string) (tracking.Profile, error) {
	p, err := scanProfile(s.DB.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
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
	_, err = s.DB.Exec(ctx, `
    INSERT INTO profiles (id, name, email, phone, company, status, assignments, created_by, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    ON CONFLICT (id) DO UPDATE SET
      name = EXCLUDED.name,
      email = EXCLUDED.email,
      phone = EXCLUDED.phone,
      company = EXCLUDED.company,
      status = EXCLUDED.status,
      assignments = EXCLUDED.assignments,
      updated_at = EXCLUDED.updated_at
  `, p.ID, p.Name, p.Email, p.Phone, p.Company, string(p.Status), raw, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &tracking.NotFoundError{Kind: "profile", ID: id}
	}
	return nil
}

func (s *Store) QueryProfiles(ctx context.Context, filter tracking.ProfileFilter) ([]tracking.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	var where []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.EmployeeID != "" {
		needle, err := json.Marshal([]map[string]string{{"employeeId": filter.EmployeeID}})
		if err != nil {
			return nil, err
		}
		args = append(args, needle)
		where = append(where, fmt.Sprintf("assignments @> $%d::jsonb", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := s.DB.Query(ctx, query, args...)
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

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nonNilBreakdown(in []tracking.ProfileProgress) []tracking.ProfileProgress {
	if in == nil {
		return []tracking.ProfileProgress{}
	}
	return in
}

func nonNilDetails(in []tracking.JobDetail) []tracking.JobDetail {
	if in == nil {
		return []tracking.JobDetail{}
	}
	return in
}
