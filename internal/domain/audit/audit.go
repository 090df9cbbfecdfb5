package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"leadtrack/internal/platform/querier"
)

type Event struct {
	ID         int64           `json:"id"`
	ActorID    string          `json:"actorId"`
	ActorRole  string          `json:"actorRole"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
}

// Sink stores audit events. List may return nothing for sinks that only
// write, such as the log sink.
type Sink interface {
	Write(ctx context.Context, evt Event) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error)
}

// Service records mutations best effort: a failing sink is logged and
// never fails the caller.
type Service struct {
	sink Sink
}

func New(sink Sink) *Service {
	return &Service{sink: sink}
}

func (s *Service) Record(ctx context.Context, evt Event, details any) {
	if s == nil || s.sink == nil {
		return
	}
	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			slog.Warn("audit details encode failed", "err", err, "action", evt.Action)
		} else {
			evt.Details = payload
		}
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}
	if err := s.sink.Write(ctx, evt); err != nil {
		slog.Warn("audit write failed", "err", err, "action", evt.Action, "entityId", evt.EntityID)
	}
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	if s == nil || s.sink == nil {
		return []Event{}, nil
	}
	return s.sink.List(ctx, filter, limit, offset)
}

type LogSink struct {
	Logger *slog.Logger
}

func (l LogSink) Write(_ context.Context, evt Event) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("audit",
		"action", evt.Action,
		"entityType", evt.EntityType,
		"entityId", evt.EntityID,
		"actorId", evt.ActorID,
		"actorRole", evt.ActorRole,
		"requestId", evt.RequestID,
	)
	return nil
}

func (LogSink) List(context.Context, Filter, int, int) ([]Event, error) {
	return []Event{}, nil
}

type PostgresSink struct {
	DB querier.Querier
}

func (p PostgresSink) Write(ctx context.Context, evt Event) error {
	var details any
	if len(evt.Details) > 0 {
		details = []byte(evt.Details)
	}
	_, err := p.DB.Exec(ctx, `
    INSERT INTO audit_log (actor_id, actor_role, action, entity_type, entity_id, request_id, details, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
  `, evt.ActorID, evt.ActorRole, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, details, evt.CreatedAt)
	return err
}

func (p PostgresSink) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query, args := buildQuery(filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := p.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		var details []byte
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.ActorRole, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &details, &evt.CreatedAt); err != nil {
			return nil, err
		}
		evt.Details = details
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildQuery(filter Filter) (string, []any) {
	query := "SELECT id, actor_id, actor_role, action, entity_type, entity_id, request_id, details, created_at FROM audit_log WHERE 1=1"
	var args []any
	for _, cond := range []struct {
		column string
		value  string
	}{
		{"action", filter.Action},
		{"entity_type", filter.EntityType},
		{"entity_id", filter.EntityID},
		{"actor_id", filter.ActorID},
	} {
		if cond.value == "" {
			continue
		}
		args = append(args, cond.value)
		query += fmt.Sprintf(" AND %s = $%d", cond.column, len(args))
	}
	return query, args
}
