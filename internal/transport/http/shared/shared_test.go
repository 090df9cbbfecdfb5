package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/tracking"
)

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &tracking.ValidationError{Issues: []tracking.Issue{{Field: "goal", Reason: "bad"}}}, http.StatusBadRequest, "validation_error"},
		{"forbidden", &tracking.AuthorizationError{Role: auth.RoleEmployee, Action: "delete targets"}, http.StatusForbidden, "forbidden"},
		{"not found", fmt.Errorf("load: %w", &tracking.NotFoundError{Kind: "target", ID: "t1"}), http.StatusNotFound, "not_found"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "targets_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tc.err, "targets_failed", "req-1")
			assert.Equal(t, tc.status, rec.Code)

			var body struct {
				Error struct {
					Code    string         `json:"code"`
					Details map[string]any `json:"details"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Error.Code)
			if tc.name == "validation" {
				assert.Contains(t, body.Error.Details, "fields")
			}
		})
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	assert.NoError(t, DecodeJSON(strings.NewReader(`{"name":"a"}`), &dst))
	assert.Error(t, DecodeJSON(strings.NewReader(`{"name":"a","extra":1}`), &dst))
	assert.Error(t, DecodeJSON(strings.NewReader(`{"name":"a"}{"name":"b"}`), &dst))
}

func TestValidatorCollectsQueryIssues(t *testing.T) {
	v := NewValidator()
	from := v.OptionalDate("from", "2026-05-10")
	to := v.OptionalDate("to", "2026-05-01")
	v.DateOrder("from", from, "to", to)
	v.Enum("type", "hourly", []string{"daily", "weekly"})
	v.OptionalDate("bad", "yesterday")

	require.True(t, v.HasIssues())
	fields := []string{}
	for _, issue := range v.Issues() {
		fields = append(fields, issue.Field)
	}
	assert.Equal(t, []string{"bad", "from", "to", "type"}, fields)

	rec := httptest.NewRecorder()
	assert.True(t, v.Reject(rec, "req"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidatorPage(t *testing.T) {
	v := NewValidator()
	page := v.Page(httptest.NewRequest(http.MethodGet, "/?limit=900&offset=20", nil), 100, 500)
	assert.False(t, v.HasIssues())
	assert.Equal(t, Page{Limit: 500, Offset: 20}, page)

	v = NewValidator()
	page = v.Page(httptest.NewRequest(http.MethodGet, "/?limit=zero&offset=-1", nil), 100, 500)
	assert.Equal(t, Page{Limit: 100}, page)
	require.Len(t, v.Issues(), 2)
	assert.Equal(t, "limit", v.Issues()[0].Field)
}

func TestParseEndDateCoversDay(t *testing.T) {
	end, err := ParseEndDate("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 23, 59, 59, 999999999, time.UTC), end)

	exact, err := ParseEndDate("2026-03-02T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), exact)

	_, err = ParseEndDate("tomorrow")
	assert.Error(t, err)
}
