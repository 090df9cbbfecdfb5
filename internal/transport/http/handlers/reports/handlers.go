package reportshandler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"leadtrack/internal/domain/audit"
	"leadtrack/internal/domain/policy"
	"leadtrack/internal/domain/reports"
	"leadtrack/internal/transport/http/api"
	"leadtrack/internal/transport/http/middleware"
	"leadtrack/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Table   *policy.Table
	Audit   *audit.Service
}

func NewHandler(service *reports.Service, table *policy.Table, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Table: table, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(policy.ResourceReports, policy.ActionRead, h.Table)).Get("/employees/{employeeID}", h.handleEmployeeReport)
		r.With(middleware.RequirePermission(policy.ResourceReports, policy.ActionRead, h.Table)).Get("/team", h.handleTeamReport)
	})
}

func parseWindow(r *http.Request) (reports.Window, *shared.Validator) {
	v := shared.NewValidator()
	window := reports.Window{
		From: v.OptionalDate("from", r.URL.Query().Get("from")),
		To:   v.OptionalEndDate("to", r.URL.Query().Get("to")),
	}
	v.DateOrder("from", window.From, "to", window.To)
	return window, v
}

func (h *Handler) handleEmployeeReport(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	window, v := parseWindow(r)
	format := r.URL.Query().Get("format")
	v.Enum("format", format, []string{"json", "pdf"})
	if v.Reject(w, reqID) {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	report, err := h.Service.EmployeeReport(r.Context(), employeeID, window, user)
	if err != nil {
		shared.WriteError(w, err, "report_failed", reqID)
		return
	}
	if format != "pdf" {
		api.Success(w, report, reqID)
		return
	}

	if err := h.Service.CanExport(user); err != nil {
		shared.WriteError(w, err, "report_export_failed", reqID)
		return
	}
	var buf bytes.Buffer
	if err := reports.RenderEmployeePDF(&buf, report); err != nil {
		shared.WriteError(w, fmt.Errorf("render report: %w", err), "report_render_failed", reqID)
		return
	}
	h.Audit.Record(r.Context(), shared.AuditEvent(r, user, "report.export", "employee", employeeID), map[string]any{"format": "pdf"})

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=performance-%s.pdf", employeeID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("report write failed", "err", err, "requestId", reqID)
	}
}

func (h *Handler) handleTeamReport(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	window, v := parseWindow(r)
	if v.Reject(w, reqID) {
		return
	}
	report, err := h.Service.TeamReport(r.Context(), window, user)
	if err != nil {
		shared.WriteError(w, err, "team_report_failed", reqID)
		return
	}
	api.Success(w, report, reqID)
}
