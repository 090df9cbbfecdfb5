package targethandler

import (
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

type Handler struct {
	Service *tracking.Service
	Table   *policy.Table
	Audit   *audit.Service
	Metrics *metrics.Collector
}

func NewHandler(service *tracking.Service, table *policy.Table, auditSvc *audit.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Table: table, Audit: auditSvc, Metrics: collector}
}

// RegisterRoutes mounts flat paths so the event handler can share the
// /targets prefix.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(policy.ResourceTargets, policy.ActionCreate, h.Table)).Post("/targets", h.handleCreate)
	r.With(middleware.RequirePermission(policy.ResourceTargets, policy.ActionRead, h.Table)).Get("/targets", h.handleList)
	r.With(middleware.RequirePermission(policy.ResourceStats, policy.ActionRead, h.Table)).Get("/targets/summary", h.handleSummary)
	r.With(middleware.RequirePermission(policy.ResourceTargets, policy.ActionRead, h.Table)).Get("/targets/{targetID}", h.handleGet)
	r.With(middleware.RequirePermission(policy.ResourceTargets, policy.ActionUpdate, h.Table)).Patch("/targets/{targetID}", h.handleUpdate)
	r.With(middleware.RequirePermission(policy.ResourceTargets, policy.ActionDelete, h.Table)).Delete("/targets/{targetID}", h.handleDelete)
	r.With(middleware.RequirePermission(policy.ResourceTargets, policy.ActionUpdate, h.Table)).Post("/targets/{targetID}/profiles/{profileID}/achievements", h.handleRecordAchievement)
}

// ParseFilter reads the target list query shared by listing, summaries
// and reports.
func ParseFilter(r *http.Request) (tracking.TargetFilter, *shared.Validator) {
	q := r.URL.Query()
	v := shared.NewValidator()
	filter := tracking.TargetFilter{
		EmployeeID: q.Get("employeeId"),
		CreatedBy:  q.Get("createdBy"),
		Type:       tracking.TargetType(q.Get("type")),
		Status:     tracking.TargetStatus(q.Get("status")),
		From:       v.OptionalDate("from", q.Get("from")),
		To:         v.OptionalEndDate("to", q.Get("to")),
	}
	v.Enum("type", string(filter.Type), []string{"daily", "weekly", "monthly", "yearly"})
	v.Enum("status", string(filter.Status), []string{"pending", "in_progress", "completed"})
	v.DateOrder("from", filter.From, "to", filter.To)
	return filter, v
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload tracking.TargetDefinition
	if err := shared.DecodeJSON(r.Body, &payload); err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	target, err := h.Service.CreateTarget(r.Context(), payload, user)
	if err != nil {
		shared.WriteError(w, err, "target_create_failed", reqID)
		return
	}
	h.Metrics.Mutation("target.create")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "target.create", "target", target.ID), payload)
	api.Created(w, target, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	filter, v := ParseFilter(r)
	if v.Reject(w, reqID) {
		return
	}
	targets, err := h.Service.ListTargets(r.Context(), filter, user)
	if err != nil {
		shared.WriteError(w, err, "targets_list_failed", reqID)
		return
	}
	api.Success(w, targets, reqID)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	filter, v := ParseFilter(r)
	if v.Reject(w, reqID) {
		return
	}
	summary, err := h.Service.SummarizeTargets(r.Context(), filter, user)
	if err != nil {
		shared.WriteError(w, err, "targets_summary_failed", reqID)
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
	target, err := h.Service.GetTarget(r.Context(), chi.URLParam(r, "targetID"), user)
	if err != nil {
		shared.WriteError(w, err, "target_get_failed", reqID)
		return
	}
	api.Success(w, target, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var patch tracking.TargetPatch
	if err := shared.DecodeJSON(r.Body, &patch); err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	targetID := chi.URLParam(r, "targetID")
	target, err := h.Service.UpdateTarget(r.Context(), targetID, patch, user)
	if err != nil {
		shared.WriteError(w, err, "target_update_failed", reqID)
		return
	}
	h.Metrics.Mutation("target.update")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "target.update", "target", targetID), map[string]any{"fields": patch.Fields()})
	api.Success(w, target, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	targetID := chi.URLParam(r, "targetID")
	if err := h.Service.DeleteTarget(r.Context(), targetID, user); err != nil {
		shared.WriteError(w, err, "target_delete_failed", reqID)
		return
	}
	h.Metrics.Mutation("target.delete")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "target.delete", "target", targetID), nil)
	api.Success(w, map[string]string{"id": targetID}, reqID)
}

func (h *Handler) handleRecordAchievement(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var delta tracking.Counts
	if err := shared.DecodeJSON(r.Body, &delta); err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	targetID := chi.URLParam(r, "targetID")
	profileID := chi.URLParam(r, "profileID")
	target, err := h.Service.RecordProfileAchievement(r.Context(), targetID, profileID, delta, user)
	if err != nil {
		shared.WriteError(w, err, "achievement_record_failed", reqID)
		return
	}
	h.Metrics.Mutation("target.achievement")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "target.achievement", "target", targetID),
		map[string]any{"profileId": profileID, "delta": delta})
	api.Success(w, target, reqID)
}
