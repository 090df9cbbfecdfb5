package middleware

import (
	"context"
	"net/http"
	"strings"

	"leadtrack/internal/domain/auth"
)

// Auth attaches the bearer token's identity to the request. Requests
// without a valid token pass through anonymous; RequirePermission rejects
// them where a route needs an identity.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUser(r.Context(), claims.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithUser(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyUser, identity)
}

func GetUser(ctx context.Context) (auth.Identity, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.Identity)
	return user, ok
}
