package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/princekumarofficial/course-admin-service/internal/auth"
	"github.com/princekumarofficial/course-admin-service/internal/types"
	"github.com/princekumarofficial/course-admin-service/internal/utils/response"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// AuthMiddleware resolves the bearer token and stores the principal in the
// request context
func AuthMiddleware(resolver auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Authorization header required")))
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Invalid authorization header format")))
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Token not provided")))
				return
			}

			principal, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				slog.Debug("token rejected", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Invalid token")))
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects principals without the admin role. It must run after
// AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := GetPrincipalFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
				errors.New("user not authenticated")))
			return
		}

		if !principal.IsAdmin() {
			response.WriteJSON(w, http.StatusForbidden, response.GeneralError(
				errors.New("admin access required")))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AdminOnly chains AuthMiddleware and RequireAdmin
func AdminOnly(resolver auth.Resolver) func(http.Handler) http.Handler {
	authenticate := AuthMiddleware(resolver)
	return func(next http.Handler) http.Handler {
		return authenticate(RequireAdmin(next))
	}
}

func WithPrincipal(ctx context.Context, principal types.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// GetPrincipalFromContext extracts the principal from the request context
func GetPrincipalFromContext(ctx context.Context) (types.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(types.Principal)
	return principal, ok
}
