package profilehandler

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

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/profiles", func(r chi.Router) {
		r.With(middleware.RequirePermission(policy.ResourceProfiles, policy.ActionCreate, h.Table)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(policy.ResourceProfiles, policy.ActionRead, h.Table)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(policy.ResourceProfiles, policy.ActionRead, h.Table)).Get("/{profileID}", h.handleGet)
		r.With(middleware.RequirePermission(policy.ResourceProfiles, policy.ActionUpdate, h.Table)).Put("/{profileID}", h.handleUpdate)
		r.With(middleware.RequirePermission(policy.ResourceProfiles, policy.ActionDelete, h.Table)).Delete("/{profileID}", h.handleDelete)
		r.With(middleware.RequirePermission(policy.ResourceProfiles, policy.ActionAssign, h.Table)).Post("/{profileID}/assignments", h.handleAssign)
		r.With(middleware.RequirePermission(policy.ResourceProfiles, policy.ActionAssign, h.Table)).Post("/{profileID}/targets", h.handleAddTarget)
		r.With(middleware.RequirePermission(policy.ResourceProfiles, policy.ActionUpdate, h.Table)).Patch("/{profileID}/targets/{subTargetID}", h.handleUpdateTarget)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload tracking.ProfileInput
	if err := shared.DecodeJSON(r.Body, &payload); err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	profile, err := h.Service.CreateProfile(r.Context(), payload, user)
	if err != nil {
		shared.WriteError(w, err, "profile_create_failed", reqID)
		return
	}
	h.Metrics.Mutation("profile.create")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "profile.create", "profile", profile.ID), payload)
	api.Created(w, profile, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	profileID := chi.URLParam(r, "profileID")
	if err := h.Service.DeleteProfile(r.Context(), profileID, user); err != nil {
		shared.WriteError(w, err, "profile_delete_failed", reqID)
		return
	}
	h.Metrics.Mutation("profile.delete")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "profile.delete", "profile", profileID), nil)
	api.Success(w, map[string]string{"id": profileID}, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	v := shared.NewValidator()
	filter := tracking.ProfileFilter{EmployeeID: q.Get("employeeId"), Status: tracking.ProfileStatus(q.Get("status"))}
	v.Enum("status", string(filter.Status), []string{"new", "contacted", "qualified", "proposal", "negotiation", "closed"})
	if v.Reject(w, reqID) {
		return
	}
	profiles, err := h.Service.ListProfiles(r.Context(), filter, user)
	if err != nil {
		shared.WriteError(w, err, "profiles_list_failed", reqID)
		return
	}
	api.Success(w, profiles, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	profile, err := h.Service.GetProfile(r.Context(), chi.URLParam(r, "profileID"), user)
	if err != nil {
		shared.WriteError(w, err, "profile_get_failed", reqID)
		return
	}
	api.Success(w, profile, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload tracking.ProfileInput
	if err := shared.DecodeJSON(r.Body, &payload); err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	profileID := chi.URLParam(r, "profileID")
	profile, err := h.Service.UpdateProfile(r.Context(), profileID, payload, user)
	if err != nil {
		shared.WriteError(w, err, "profile_update_failed", reqID)
		return
	}
	h.Metrics.Mutation("profile.update")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "profile.update", "profile", profileID), payload)
	api.Success(w, profile, reqID)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload struct {
		EmployeeID string `json:"employeeId"`
	}
	if err := shared.DecodeJSON(r.Body, &payload); err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	profileID := chi.URLParam(r, "profileID")
	profile, err := h.Service.AssignProfile(r.Context(), profileID, payload.EmployeeID, user)
	if err != nil {
		shared.WriteError(w, err, "profile_assign_failed", reqID)
		return
	}
	h.Metrics.Mutation("profile.assign")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "profile.assign", "profile", profileID), payload)
	api.Success(w, profile, reqID)
}

func (h *Handler) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload tracking.AssignmentTargetInput
	if err := shared.DecodeJSON(r.Body, &payload); err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	profileID := chi.URLParam(r, "profileID")
	profile, err := h.Service.AddAssignmentTarget(r.Context(), profileID, payload, user)
	if err != nil {
		shared.WriteError(w, err, "profile_target_add_failed", reqID)
		return
	}
	h.Metrics.Mutation("profile.target.add")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "profile.target.add", "profile", profileID), payload)
	api.Created(w, profile, reqID)
}

func (h *Handler) handleUpdateTarget(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var patch tracking.AssignmentTargetPatch
	if err := shared.DecodeJSON(r.Body, &patch); err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	profileID := chi.URLParam(r, "profileID")
	subTargetID := chi.URLParam(r, "subTargetID")
	profile, err := h.Service.UpdateAssignmentTarget(r.Context(), profileID, subTargetID, patch, user)
	if err != nil {
		shared.WriteError(w, err, "profile_target_update_failed", reqID)
		return
	}
	h.Metrics.Mutation("profile.target.update")
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "profile.target.update", "profile", profileID),
		map[string]any{"subTargetId": subTargetID, "patch": patch})
	api.Success(w, profile, reqID)
}
