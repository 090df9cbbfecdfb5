package audithandler

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"leadtrack/internal/domain/audit"
	"leadtrack/internal/domain/policy"
	"leadtrack/internal/transport/http/api"
	"leadtrack/internal/transport/http/middleware"
	"leadtrack/internal/transport/http/shared"
)

const exportLimit = 10000

type Handler struct {
	Service *audit.Service
	Table   *policy.Table
}

func NewHandler(service *audit.Service, table *policy.Table) *Handler {
	return &Handler{Service: service, Table: table}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.With(middleware.RequirePermission(policy.ResourceAudit, policy.ActionRead, h.Table)).Get("/events", h.handleListEvents)
		r.With(middleware.RequirePermission(policy.ResourceAudit, policy.ActionExport, h.Table)).Get("/events/export", h.handleExportEvents)
	})
}

func parseFilter(r *http.Request) audit.Filter {
	q := r.URL.Query()
	return audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
		ActorID:    q.Get("actorId"),
	}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.RequireUser(w, r); !ok {
		return
	}
	v := shared.NewValidator()
	page := v.Page(r, 100, 500)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	events, err := h.Service.List(r.Context(), parseFilter(r), page.Limit, page.Offset)
	if err != nil {
		slog.Error("audit list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.RequireUser(w, r); !ok {
		return
	}
	events, err := h.Service.List(r.Context(), parseFilter(r), exportLimit, 0)
	if err != nil {
		slog.Error("audit export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actor_id", "actor_role", "action", "entity_type", "entity_id", "request_id", "details", "created_at"}); err != nil {
		slog.Warn("audit export header failed", "err", err)
	}
	for _, evt := range events {
		row := []string{
			strconv.FormatInt(evt.ID, 10), evt.ActorID, evt.ActorRole, evt.Action,
			evt.EntityType, evt.EntityID, evt.RequestID, string(evt.Details), evt.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			slog.Warn("audit export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("audit export flush failed", "err", err)
	}
}
