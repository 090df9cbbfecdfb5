package shared

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"leadtrack/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects query-string problems so a request reports all of
// them at once. Body payloads are validated by the domain.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: strings.TrimSpace(field), Reason: reason})
}

func (v *Validator) Enum(field, value string, allowed []string) {
	if value == "" {
		return
	}
	for _, candidate := range allowed {
		if value == candidate {
			return
		}
	}
	v.Add(field, "must be one of "+strings.Join(allowed, ", "))
}

// OptionalDate parses a query date; empty input yields the zero time.
func (v *Validator) OptionalDate(field, raw string) time.Time {
	return v.date(field, raw, ParseDate)
}

// OptionalEndDate parses the closing date of a window, inclusive of the
// whole day when no time is given.
func (v *Validator) OptionalEndDate(field, raw string) time.Time {
	return v.date(field, raw, ParseEndDate)
}

func (v *Validator) date(field, raw string, parse func(string) (time.Time, error)) time.Time {
	parsed, err := parse(strings.TrimSpace(raw))
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD or RFC3339 format")
		return time.Time{}
	}
	return parsed
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() {
		return
	}
	if end.Before(start) {
		v.Add(startField, "must be on or before "+endField)
		v.Add(endField, "must be on or after "+startField)
	}
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make([]ValidationIssue, len(v.issues))
	copy(out, v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": issues},
		requestID,
	)
}
