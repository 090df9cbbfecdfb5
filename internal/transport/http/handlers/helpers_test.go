package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadtrack/internal/app/server"
	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/tracking"
	"leadtrack/internal/platform/config"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	tokens map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Config{
		Environment:        "test",
		StorageDriver:      config.DriverMemory,
		JWTSecret:          testSecret,
		TokenTTL:           time.Hour,
		ManagerTargetScope: "all",
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
	}
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	h := &harness{t: t, srv: httptest.NewServer(app.Router), tokens: map[string]string{}}
	t.Cleanup(h.srv.Close)

	for _, emp := range []tracking.Employee{
		{ID: "emp-1", Name: "Ada", Email: "ada@example.com", Role: auth.RoleEmployee},
		{ID: "emp-2", Name: "Bob", Email: "bob@example.com", Role: auth.RoleEmployee},
		{ID: "mgr-1", Name: "Meg", Email: "meg@example.com", Role: auth.RoleManager},
		{ID: "adm-1", Name: "Ali", Email: "ali@example.com", Role: auth.RoleAdmin},
	} {
		if _, err := app.Tracking.RegisterEmployee(context.Background(), emp); err != nil {
			t.Fatalf("register %s: %v", emp.ID, err)
		}
		token, err := auth.GenerateToken(testSecret, auth.Identity{ID: emp.ID, Role: emp.Role}, time.Hour)
		if err != nil {
			t.Fatalf("token %s: %v", emp.ID, err)
		}
		h.tokens[emp.ID] = token
	}
	return h
}

func (h *harness) do(method, path, as string, body any, headers map[string]string) (*http.Response, []byte) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, reader)
	if err != nil {
		h.t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := h.tokens[as]; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := h.srv.Client().Do(req)
	if err != nil {
		h.t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("failed to read response: %v", err)
	}
	return resp, raw
}

// expect sends a request, asserts the status and decodes the envelope's
// data into out when out is non-nil.
func (h *harness) expect(want int, method, path, as string, body any, out any) envelope {
	h.t.Helper()
	resp, raw := h.do(method, path, as, body, nil)
	if resp.StatusCode != want {
		h.t.Fatalf("%s %s: expected status %d, got %d: %s", method, path, want, resp.StatusCode, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.t.Fatalf("failed to decode response: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			h.t.Fatalf("failed to decode data: %v", err)
		}
	}
	return env
}

func monthlyTarget(employeeID string, fetched, applied int) map[string]any {
	return map[string]any{
		"employeeId": employeeID,
		"type":       "monthly",
		"startDate":  "2026-03-01T00:00:00Z",
		"endDate":    "2026-03-31T00:00:00Z",
		"goal":       map[string]int{"jobsFetched": fetched, "jobsApplied": applied},
	}
}
