package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"leadtrack/internal/domain/audit"
	"leadtrack/internal/domain/tracking"
	eventhandler "leadtrack/internal/transport/http/handlers/events"
)

func jobs(statuses ...string) []map[string]string {
	out := make([]map[string]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, map[string]string{"jobTitle": "Go Developer", "company": "Acme", "source": "board", "status": s})
	}
	return out
}

func TestTargetAndLedgerJourney(t *testing.T) {
	h := newHarness(t)

	var target tracking.Target
	h.expect(http.StatusCreated, http.MethodPost, "/api/v1/targets", "mgr-1", monthlyTarget("emp-1", 10, 5), &target)
	if target.Status != tracking.StatusPending || target.CompletionRate != 0 {
		t.Fatalf("expected fresh pending target, got %s %.2f", target.Status, target.CompletionRate)
	}

	h.expect(http.StatusForbidden, http.MethodPost, "/api/v1/targets", "emp-1", monthlyTarget("emp-1", 1, 1), nil)

	eventBody := map[string]any{
		"profileId":  "profile-1",
		"date":       "2026-03-02T00:00:00Z",
		"jobDetails": jobs("applied", "interview", "fetched"),
	}
	headers := map[string]string{"Idempotency-Key": "append-1"}
	resp, raw := h.do(http.MethodPost, "/api/v1/targets/"+target.ID+"/events", "emp-1", eventBody, headers)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected event created, got %d: %s", resp.StatusCode, raw)
	}
	var first struct {
		Data eventhandler.AppendResult `json:"data"`
	}
	if err := json.Unmarshal(raw, &first); err != nil {
		t.Fatalf("decode append: %v", err)
	}
	if first.Data.Target == nil || first.Data.Target.Achieved != (tracking.Counts{JobsFetched: 1, JobsApplied: 2}) {
		t.Fatalf("expected target achievements to follow the event, got %+v", first.Data.Target)
	}
	if first.Data.Target.Status != tracking.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", first.Data.Target.Status)
	}

	resp, raw = h.do(http.MethodPost, "/api/v1/targets/"+target.ID+"/events", "emp-1", eventBody, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected idempotent replay, got %d: %s", resp.StatusCode, raw)
	}
	var replay struct {
		Data eventhandler.AppendResult `json:"data"`
	}
	if err := json.Unmarshal(raw, &replay); err != nil {
		t.Fatalf("decode replay: %v", err)
	}
	if replay.Data.Event.ID != first.Data.Event.ID {
		t.Fatalf("replay returned a different event: %s vs %s", replay.Data.Event.ID, first.Data.Event.ID)
	}

	eventBody["profileId"] = "profile-2"
	resp, _ = h.do(http.MethodPost, "/api/v1/targets/"+target.ID+"/events", "emp-1", eventBody, headers)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected idempotency conflict, got %d", resp.StatusCode)
	}

	var events []tracking.AchievementEvent
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/events", "emp-1", nil, &events)
	if len(events) != 1 {
		t.Fatalf("expected exactly one stored event, got %d", len(events))
	}

	var patched tracking.Target
	h.expect(http.StatusOK, http.MethodPatch, "/api/v1/targets/"+target.ID, "emp-1",
		map[string]any{"goal": map[string]int{"jobsFetched": 100}, "status": "completed"}, &patched)
	if patched.Goal.JobsFetched != 10 || patched.Status != tracking.StatusInProgress {
		t.Fatalf("expected employee goal change to be dropped, got goal %+v status %s", patched.Goal, patched.Status)
	}

	h.expect(http.StatusForbidden, http.MethodGet, "/api/v1/targets?employeeId=emp-2", "emp-1", nil, nil)
	h.expect(http.StatusNotFound, http.MethodGet, "/api/v1/events/"+first.Data.Event.ID, "emp-2", nil, nil)

	var summary tracking.TargetSummary
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/targets/summary", "mgr-1", nil, &summary)
	if summary.CompletionRate != 20 {
		t.Fatalf("expected weighted completion 20, got %.2f", summary.CompletionRate)
	}

	var eventSummary tracking.EventSummary
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/events/summary?employeeId=emp-1", "mgr-1", nil, &eventSummary)
	if eventSummary.TotalJobsApplied != 2 || eventSummary.AvgInterviewRate != 50 {
		t.Fatalf("unexpected event summary %+v", eventSummary)
	}
}

func TestCorrectionSupersedesWithoutTouchingTarget(t *testing.T) {
	h := newHarness(t)

	var target tracking.Target
	h.expect(http.StatusCreated, http.MethodPost, "/api/v1/targets", "mgr-1", monthlyTarget("emp-1", 10, 10), &target)

	var original eventhandler.AppendResult
	h.expect(http.StatusCreated, http.MethodPost, "/api/v1/targets/"+target.ID+"/events", "emp-1", map[string]any{
		"profileId": "p1", "date": "2026-03-03T00:00:00Z", "jobDetails": jobs("applied"),
	}, &original)

	var correction eventhandler.AppendResult
	h.expect(http.StatusCreated, http.MethodPost, "/api/v1/targets/"+target.ID+"/events", "emp-1", map[string]any{
		"profileId": "p1", "date": "2026-03-03T00:00:00Z", "jobDetails": jobs("interview"), "supersedes": original.Event.ID,
	}, &correction)
	if correction.Target != nil {
		t.Fatal("corrections must not re-apply counts to the target")
	}

	var events []tracking.AchievementEvent
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/events?targetId="+target.ID, "mgr-1", nil, &events)
	if len(events) != 1 || events[0].ID != correction.Event.ID {
		t.Fatalf("expected only the correction to be listed, got %+v", events)
	}
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/events?includeSuperseded=true&targetId="+target.ID, "mgr-1", nil, &events)
	if len(events) != 2 {
		t.Fatalf("expected both events with includeSuperseded, got %d", len(events))
	}

	h.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/targets/"+target.ID+"/events", "emp-1", map[string]any{
		"profileId": "p1", "date": "2026-03-03T00:00:00Z", "jobDetails": jobs("applied"), "supersedes": original.Event.ID,
	}, nil)
}

func TestValidationAndAuthErrors(t *testing.T) {
	h := newHarness(t)

	h.expect(http.StatusUnauthorized, http.MethodGet, "/api/v1/targets", "", nil, nil)

	body := monthlyTarget("emp-1", 1, 1)
	body["endDate"] = "2026-02-01T00:00:00Z"
	env := h.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/targets", "mgr-1", body, nil)
	if env.Error == nil || env.Error.Code != "validation_error" || env.Error.Details["fields"] == nil {
		t.Fatalf("expected field-level validation error, got %+v", env.Error)
	}

	h.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/targets", "mgr-1", map[string]any{"unknown": true}, nil)
	h.expect(http.StatusNotFound, http.MethodPost, "/api/v1/targets", "mgr-1", monthlyTarget("ghost", 1, 1), nil)
	h.expect(http.StatusBadRequest, http.MethodGet, "/api/v1/targets?from=2026-05-01&to=2026-04-01", "mgr-1", nil, nil)
	h.expect(http.StatusNotFound, http.MethodGet, "/api/v1/targets/missing", "mgr-1", nil, nil)
}

func TestReportsAndAudit(t *testing.T) {
	h := newHarness(t)

	var target tracking.Target
	h.expect(http.StatusCreated, http.MethodPost, "/api/v1/targets", "mgr-1", monthlyTarget("emp-1", 4, 4), &target)
	h.expect(http.StatusOK, http.MethodPost, "/api/v1/targets/"+target.ID+"/profiles/p1/achievements", "emp-1",
		map[string]int{"jobsFetched": 2, "jobsApplied": 2}, nil)

	resp, raw := h.do(http.MethodGet, "/api/v1/reports/employees/emp-1?format=pdf", "mgr-1", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected pdf report, got %d: %s", resp.StatusCode, raw)
	}
	if resp.Header.Get("Content-Type") != "application/pdf" || !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Fatalf("expected a pdf document, got %q", resp.Header.Get("Content-Type"))
	}

	var team struct {
		Employees []tracking.EmployeeSummary `json:"employees"`
	}
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/reports/team", "mgr-1", nil, &team)
	if len(team.Employees) != 1 || team.Employees[0].CompletionRate != 50 {
		t.Fatalf("unexpected team report %+v", team.Employees)
	}
	h.expect(http.StatusForbidden, http.MethodGet, "/api/v1/reports/team", "emp-1", nil, nil)

	var events []audit.Event
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/audit/events?action=target.create", "adm-1", nil, &events)
	if len(events) != 1 || events[0].ActorID != "mgr-1" {
		t.Fatalf("expected one target.create audit event, got %+v", events)
	}
	h.expect(http.StatusForbidden, http.MethodGet, "/api/v1/audit/events", "mgr-1", nil, nil)

	resp, raw = h.do(http.MethodGet, "/api/v1/audit/events/export", "adm-1", nil, nil)
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(raw, []byte("id,actor_id")) {
		t.Fatalf("expected csv export, got %d: %s", resp.StatusCode, raw)
	}
}

func TestProfileAssignmentJourney(t *testing.T) {
	h := newHarness(t)

	var profile tracking.Profile
	h.expect(http.StatusCreated, http.MethodPost, "/api/v1/profiles", "mgr-1", map[string]any{"name": "Acme Corp", "email": "lead@acme.test"}, &profile)
	if profile.Status != tracking.ProfileNew {
		t.Fatalf("expected default status new, got %s", profile.Status)
	}
	h.expect(http.StatusForbidden, http.MethodPost, "/api/v1/profiles", "emp-1", map[string]any{"name": "Nope"}, nil)

	path := "/api/v1/profiles/" + profile.ID
	h.expect(http.StatusOK, http.MethodPost, path+"/assignments", "mgr-1", map[string]string{"employeeId": "emp-1"}, nil)
	h.expect(http.StatusBadRequest, http.MethodPost, path+"/assignments", "mgr-1", map[string]string{"employeeId": "emp-1"}, nil)

	sub := map[string]any{"employeeId": "emp-1", "month": 3, "year": 2026, "targetAmount": 10}
	h.expect(http.StatusCreated, http.MethodPost, path+"/targets", "mgr-1", sub, &profile)
	h.expect(http.StatusBadRequest, http.MethodPost, path+"/targets", "mgr-1", sub, nil)

	subID := profile.Assignments[0].Targets[0].ID
	h.expect(http.StatusOK, http.MethodPatch, path+"/targets/"+subID, "emp-1",
		map[string]int{"achievedAmount": 10, "targetAmount": 50}, &profile)
	got := profile.Assignments[0].Targets[0]
	if got.TargetAmount != 10 || got.AchievedAmount != 10 || got.Status != tracking.StatusCompleted {
		t.Fatalf("expected employee patch narrowed to achievedAmount, got %+v", got)
	}

	var visible []tracking.Profile
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/profiles", "emp-2", nil, &visible)
	if len(visible) != 0 {
		t.Fatalf("expected emp-2 to see no profiles, got %d", len(visible))
	}
	h.expect(http.StatusNotFound, http.MethodGet, path, "emp-2", nil, nil)
}

func TestMeAndHealth(t *testing.T) {
	h := newHarness(t)

	var me struct {
		Employee    *tracking.Employee  `json:"employee"`
		Permissions map[string][]string `json:"permissions"`
	}
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/me", "emp-1", nil, &me)
	if me.Employee == nil || me.Employee.Name != "Ada" {
		t.Fatalf("expected directory record, got %+v", me.Employee)
	}
	if _, ok := me.Permissions["reports"]; ok {
		t.Fatal("employees hold no report grants")
	}

	resp, _ := h.do(http.MethodGet, "/healthz", "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %d", resp.StatusCode)
	}
	resp, _ = h.do(http.MethodGet, "/readyz", "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz: %d", resp.StatusCode)
	}
	h.expect(http.StatusOK, http.MethodGet, "/metrics", "", nil, nil)
}

func TestDateOnlyWindowIncludesWholeDay(t *testing.T) {
	h := newHarness(t)

	var target tracking.Target
	h.expect(http.StatusCreated, http.MethodPost, "/api/v1/targets", "mgr-1", monthlyTarget("emp-1", 10, 10), &target)
	h.expect(http.StatusCreated, http.MethodPost, "/api/v1/targets/"+target.ID+"/events", "emp-1", map[string]any{
		"profileId": "p1", "date": "2026-03-02T10:00:00Z", "jobDetails": jobs("applied"),
	}, nil)

	var events []tracking.AchievementEvent
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/events?from=2026-03-02&to=2026-03-02", "emp-1", nil, &events)
	if len(events) != 1 {
		t.Fatalf("expected the event inside a single-day window, got %d", len(events))
	}
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/events?from=2026-03-03&to=2026-03-03", "emp-1", nil, &events)
	if len(events) != 0 {
		t.Fatalf("expected no events on the next day, got %d", len(events))
	}

	var summary tracking.EventSummary
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/events/summary?from=2026-03-02&to=2026-03-02", "mgr-1", nil, &summary)
	if summary.TotalJobsApplied != 1 {
		t.Fatalf("expected the summary to count the event, got %+v", summary)
	}
}

func TestProfileDeleteAndEmployeeDirectory(t *testing.T) {
	h := newHarness(t)

	var profile tracking.Profile
	h.expect(http.StatusCreated, http.MethodPost, "/api/v1/profiles", "mgr-1", map[string]any{"name": "Umbrella"}, &profile)
	path := "/api/v1/profiles/" + profile.ID
	h.expect(http.StatusForbidden, http.MethodDelete, path, "emp-1", nil, nil)
	h.expect(http.StatusOK, http.MethodDelete, path, "mgr-1", nil, nil)
	h.expect(http.StatusNotFound, http.MethodGet, path, "mgr-1", nil, nil)
	h.expect(http.StatusNotFound, http.MethodDelete, path, "mgr-1", nil, nil)

	var staff []tracking.Employee
	h.expect(http.StatusOK, http.MethodGet, "/api/v1/employees?role=EMPLOYEE", "mgr-1", nil, &staff)
	if len(staff) != 2 || staff[0].Name != "Ada" || staff[1].Name != "Bob" {
		t.Fatalf("expected Ada and Bob, got %+v", staff)
	}
	h.expect(http.StatusBadRequest, http.MethodGet, "/api/v1/employees?role=OWNER", "mgr-1", nil, nil)
	h.expect(http.StatusForbidden, http.MethodGet, "/api/v1/employees", "emp-1", nil, nil)
}
