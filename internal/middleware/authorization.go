package middleware

import (
	"net/http"

	"shopkeeper/internal/domain"

	"go.uber.org/zap"
)

// RequireAdmin restricts a route to the shop owner
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, domain.RoleAdmin)
}

// RequireRole ensures the user has one of the allowed roles
func RequireRole(logger *zap.Logger, allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithErrorCode(w, http.StatusForbidden, "forbidden", "insufficient permissions", nil)
				return
			}

			for _, allowedRole := range allowedRoles {
				if role == allowedRole {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("User role not authorized",
				zap.String("role", role),
				zap.Strings("allowed_roles", allowedRoles),
				zap.String("path", r.URL.Path),
			)
			RespondWithErrorCode(w, http.StatusForbidden, "forbidden", "insufficient permissions", nil)
		})
	}
}
