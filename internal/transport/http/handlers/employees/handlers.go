package employeehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leadtrack/internal/domain/audit"
	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/policy"
	"leadtrack/internal/domain/tracking"
	"leadtrack/internal/transport/http/api"
	"leadtrack/internal/transport/http/middleware"
	"leadtrack/internal/transport/http/shared"
)

type Handler struct {
	Service *tracking.Service
	Table   *policy.Table
	Audit   *audit.Service
}

func NewHandler(service *tracking.Service, table *policy.Table, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Table: table, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(policy.ResourceEmployees, policy.ActionCreate, h.Table)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(policy.ResourceEmployees, policy.ActionRead, h.Table)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(policy.ResourceEmployees, policy.ActionRead, h.Table)).Get("/{employeeID}", h.handleGet)
	})
}

// handleMe reports the caller's identity, its grants, and the directory
// record when one exists.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var employee *tracking.Employee
	emp, err := h.Service.LoadEmployee(r.Context(), user.ID)
	switch {
	case err == nil:
		employee = &emp
	case !errors.Is(err, tracking.ErrNotFound):
		shared.WriteError(w, err, "me_failed", reqID)
		return
	}

	grants := map[string][]string{}
	for _, resource := range []string{
		policy.ResourceTargets, policy.ResourceEvents, policy.ResourceProfiles,
		policy.ResourceReports, policy.ResourceStats, policy.ResourceAudit, policy.ResourceEmployees,
	} {
		if actions := h.Table.Actions(user.Role, resource); len(actions) > 0 {
			grants[resource] = actions
		}
	}

	api.Success(w, map[string]any{
		"user":        user,
		"employee":    employee,
		"permissions": grants,
	}, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	role := r.URL.Query().Get("role")
	v := shared.NewValidator()
	v.Enum("role", role, []string{string(auth.RoleEmployee), string(auth.RoleManager), string(auth.RoleAdmin)})
	if v.Reject(w, reqID) {
		return
	}
	employees, err := h.Service.ListEmployees(r.Context(), tracking.EmployeeFilter{Role: auth.Role(role)}, user)
	if err != nil {
		shared.WriteError(w, err, "employees_list_failed", reqID)
		return
	}
	api.Success(w, employees, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.RequireUser(w, r); !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	emp, err := h.Service.LoadEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, err, "employee_get_failed", reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload tracking.Employee
	if err := shared.DecodeJSON(r.Body, &payload); err != nil {
		shared.InvalidPayload(w, err, reqID)
		return
	}
	if payload.ID != "" {
		if _, err := h.Service.LoadEmployee(r.Context(), payload.ID); err == nil {
			api.Fail(w, http.StatusConflict, "employee_exists", "employee id already exists", reqID)
			return
		}
	}
	emp, err := h.Service.RegisterEmployee(r.Context(), payload)
	if err != nil {
		shared.WriteError(w, err, "employee_create_failed", reqID)
		return
	}
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "employee.create", "employee", emp.ID), map[string]any{"role": emp.Role})
	api.Created(w, emp, reqID)
}
