package middleware

import (
	"net/http"
	"slices"

	"storefront/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the user has admin role
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{domain.RoleAdmin}, logger)
}

// RequireRole middleware ensures the user has one of the specified roles
func RequireRole(allowedRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roles, ok := GetUserRoles(r.Context())
			if !ok {
				logger.Warn("Roles not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			allowed := slices.ContainsFunc(allowedRoles, func(role string) bool {
				return slices.Contains(roles, role)
			})

			if !allowed {
				logger.Warn("User role not authorized",
					zap.Strings("roles", roles),
					zap.Strings("allowed_roles", allowedRoles),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelfOrAdmin lets the request through when the user id in URL
// parameter param is the caller's own id, or the caller is an admin.
func RequireSelfOrAdmin(param string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target, err := uuid.Parse(chi.URLParam(r, param))
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, "invalid user ID")
				return
			}

			if !CanActFor(r.Context(), target) {
				caller, _ := GetUserID(r.Context())
				logger.Warn("Caller attempted to act for another user",
					zap.String("user_id", caller.String()),
					zap.String("target_user_id", target.String()),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
