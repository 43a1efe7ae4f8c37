package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
)

// TokenValidator verifies a bearer token and returns its claims
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// AuthMiddleware validates bearer tokens and stores the caller's id and roles in the context
func AuthMiddleware(validator TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := validator.ValidateToken(parts[1])
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, service.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			ctx := WithIdentity(r.Context(), claims.UserID, claims.Roles)

			logger.Debug("User authenticated",
				zap.String("user_id", claims.UserID.String()),
				zap.Strings("roles", claims.Roles),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns a context carrying the authenticated user
func WithIdentity(ctx context.Context, userID uuid.UUID, roles []string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRolesKey, roles)
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserRoles extracts the caller's roles from request context
func GetUserRoles(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(UserRolesKey).([]string)
	return roles, ok
}

// HasRole reports whether the authenticated caller carries role
func HasRole(ctx context.Context, role string) bool {
	roles, _ := GetUserRoles(ctx)
	return slices.Contains(roles, role)
}

// CanActFor reports whether the caller is userID or an admin
func CanActFor(ctx context.Context, userID uuid.UUID) bool {
	if HasRole(ctx, domain.RoleAdmin) {
		return true
	}
	caller, ok := GetUserID(ctx)
	return ok && caller == userID
}
