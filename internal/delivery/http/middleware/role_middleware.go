package middleware

import (
	"context"
	"net/http"

	"scan-review-service/internal/domain/entity"
	"scan-review-service/pkg/response"

	"github.com/google/uuid"
)

// ProfileResolver maps a caller to their stored profile
type ProfileResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
}

// RequireRole checks the caller's role from the profile directory, never from token claims.
// Must run after AuthMiddleware.
func RequireRole(resolver ProfileResolver, allowed ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "User information not found")
				return
			}

			profile, err := resolver.Resolve(r.Context(), userID)
			if err != nil {
				response.InternalServerError(w, "Failed to resolve profile")
				return
			}

			for _, role := range allowed {
				if profile.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "You don't have permission to access this resource")
		})
	}
}

// RequireDoctor is a convenience middleware for doctor-only endpoints
func RequireDoctor(resolver ProfileResolver) func(http.Handler) http.Handler {
	return RequireRole(resolver, entity.RoleDoctor)
}
