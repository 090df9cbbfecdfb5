package middleware

import (
	"net/http"

	"leadtrack/internal/domain/policy"
	"leadtrack/internal/transport/http/api"
)

// RequirePermission gates a route on the same permission table the
// services consult.
func RequirePermission(resource, action string, table *policy.Table) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !table.Allows(user.Role, resource, action) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
