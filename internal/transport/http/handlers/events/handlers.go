package eventhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leadtrack/internal/domain/audit"
	"leadtrack/internal/domain/policy"
	"leadtrack/internal/domain/tracking"
	"leadtrack/internal/platform/metrics"
	"leadtrack/internal/transport/http/api"
	"leadtrack/internal/transport/http/middleware"
	"leadtrack/internal/transport/http/shared"
)

const endpointAppend = "events.append"

type Handler struct {
	Service     *tracking.Service
	Table       *policy.Table
	Audit       *audit.Service
	Metrics     *metrics.Collector
	Idempotency middleware.Idempotency
}

func NewHandler(service *tracking.Service, table *policy.Table, auditSvc *audit.Service, collector *metrics.Collector, idem middleware.Idempotency) *Handler {
	return &Handler{Service: service, Table: table, Audit: auditSvc, Metrics: collector, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(policy.ResourceEvents, policy.ActionCreate, h.Table)).Post("/targets/{targetID}/events", h.handleAppend)
	r.With(middleware.RequirePermission(policy.ResourceEvents, policy.ActionRead, h.Table)).Get("/events", h.handleList)
	r.With(middleware.RequirePermission(policy.ResourceStats, policy.ActionRead, h.Table)).Get("/events/summary", h.handleSummary)
	r.With(middleware.RequirePermission(policy.ResourceEvents, policy.ActionRead, h.Table)).Get("/events/{eventID}", h.handleGet)
	r.With(middleware.RequirePermission(policy.ResourceEvents, policy.ActionCreate, h.Table)).Post("/events/{eventID}/job-details", h.handleAppendJobDetails)
}

// AppendResult is the body of an event append. Warnings lists follow-up
// steps that failed after the event itself was stored.
type AppendResult struct {
	Event    tracking.AchievementEvent `json:"event"`
	Target   *tracking.Target          `json:"target,omitempty"`
	Warnings []string                  `json:"warnings,omitempty"`
}

func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	targetID := chi.URLParam(r, "targetID")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	idempotencyKey := r.Header.Get("Idempotency-Key")
	endpoint := endpointAppend + ":" + targetID
	requestHash := middleware.RequestHash(body)
	if idempotencyKey != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.ID, endpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used for a different request", reqID)
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err, "requestId", reqID)
		}
		if found {
			api.Success(w, json.RawMessage(stored), reqID)
			return
		}
	}

	var input tracking.EventInput
	if err := shared.DecodeJSON(bytes.NewReader(body), &input); err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	input.TargetID = targetID

	result := AppendResult{}
	event, err := h.Service.AppendEvent(r.Context(), input, user)
	if err != nil {
		if event.ID == "" {
			shared.WriteError(w, err, "event_append_failed", reqID)
			return
		}
		slog.Warn("event stored with incomplete supersede", "err", err, "eventId", event.ID)
		result.Warnings = append(result.Warnings, "superseded event was not marked")
	}
	result.Event = event
	h.Metrics.Mutation("event.append")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "event.append", "achievement_event", event.ID),
		map[string]any{"targetId": targetID, "profileId": event.ProfileID, "supersedes": event.Supersedes})

	// Corrections leave the target untouched; counts from the original
	// event were already applied.
	delta := tracking.Counts{JobsFetched: event.Metrics.JobsFetched, JobsApplied: event.Metrics.JobsApplied}
	if event.Supersedes == "" && delta.Total() > 0 {
		target, err := h.Service.RecordProfileAchievement(r.Context(), targetID, event.ProfileID, delta, user)
		if err != nil {
			slog.Warn("event stored but target not updated", "err", err, "eventId", event.ID, "targetId", targetID)
			result.Warnings = append(result.Warnings, "target achievements were not updated: "+err.Error())
		} else {
			result.Target = &target
			h.Metrics.Mutation("target.achievement")
		}
	}

	if idempotencyKey != "" && h.Idempotency != nil {
		encoded, err := json.Marshal(result)
		if err != nil {
			slog.Warn("idempotency encode failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), user.ID, endpoint, idempotencyKey, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "err", err, "requestId", reqID)
		}
	}

	if len(result.Warnings) > 0 {
		api.MultiStatus(w, result, reqID)
		return
	}
	api.Created(w, result, reqID)
}

func parseFilter(r *http.Request) (tracking.EventFilter, *shared.Validator) {
	q := r.URL.Query()
	v := shared.NewValidator()
	filter := tracking.EventFilter{
		EmployeeID:        q.Get("employeeId"),
		ProfileID:         q.Get("profileId"),
		TargetID:          q.Get("targetId"),
		From:              v.OptionalDate("from", q.Get("from")),
		To:                v.OptionalEndDate("to", q.Get("to")),
		IncludeSuperseded: q.Get("includeSuperseded") == "true",
	}
	v.DateOrder("from", filter.From, "to", filter.To)
	return filter, v
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	filter, v := parseFilter(r)
	if v.Reject(w, reqID) {
		return
	}
	events, err := h.Service.ListEvents(r.Context(), filter, user)
	if err != nil {
		shared.WriteError(w, err, "events_list_failed", reqID)
		return
	}
	api.Success(w, events, reqID)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	filter, v := parseFilter(r)
	if v.Reject(w, reqID) {
		return
	}
	summary, err := h.Service.SummarizeEventWindow(r.Context(), filter, user)
	if err != nil {
		shared.WriteError(w, err, "events_summary_failed", reqID)
		return
	}
	api.Success(w, summary, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	event, err := h.Service.GetEvent(r.Context(), chi.URLParam(r, "eventID"), user)
	if err != nil {
		shared.WriteError(w, err, "event_get_failed", reqID)
		return
	}
	api.Success(w, event, reqID)
}

func (h *Handler) handleAppendJobDetails(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload struct {
		JobDetails []tracking.JobDetail `json:"jobDetails"`
	}
	if err := shared.DecodeJSON(r.Body, &payload); err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	eventID := chi.URLParam(r, "eventID")
	event, err := h.Service.AppendJobDetails(r.Context(), eventID, payload.JobDetails, user)
	if err != nil {
		shared.WriteError(w, err, "job_details_append_failed", reqID)
		return
	}
	h.Metrics.Mutation("event.job_details")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "event.job_details", "achievement_event", eventID),
		map[string]any{"added": len(payload.JobDetails)})
	api.Success(w, event, reqID)
}
