package shared

import (
	"net/http"

	"leadtrack/internal/domain/audit"
	"leadtrack/internal/domain/auth"
	"leadtrack/internal/transport/http/api"
	"leadtrack/internal/transport/http/middleware"
)

// RequireUser returns the caller or writes a 401.
func RequireUser(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return auth.Identity{}, false
	}
	return user, true
}

func AuditEvent(r *http.Request, user auth.Identity, action, entityType, entityID string) audit.Event {
	return audit.Event{
		ActorID:    user.ID,
		ActorRole:  string(user.Role),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
	}
}
