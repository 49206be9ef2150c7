package middleware

import (
	"context"
	"net/http"
	"strings"

	"scan-review-service/pkg/jwt"
	"scan-review-service/pkg/response"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "user_email"
)

// TokenVerifier validates identity-provider access tokens
type TokenVerifier interface {
	ValidateToken(tokenString string) (*jwt.Identity, error)
}

// RevocationChecker reports whether a token id was revoked. Optional.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	denylist RevocationChecker
	log      *logrus.Logger
}

// NewAuthMiddleware builds the bearer token check. denylist may be nil when Redis is not configured.
func NewAuthMiddleware(verifier TokenVerifier, denylist RevocationChecker, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		denylist: denylist,
		log:      log,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		identity, err := m.verifier.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if m.denylist != nil && identity.TokenID != "" {
			revoked, err := m.denylist.IsRevoked(r.Context(), identity.TokenID)
			if err != nil {
				m.log.Warnf("Failed to check token revocation: %+v", err)
				response.InternalServerError(w, "Failed to validate token")
				return
			}
			if revoked {
				response.Unauthorized(w, "Token has been revoked")
				return
			}
		}

		ctx := context.WithValue(r.Context(), UserIDKey, identity.UserID)
		ctx = context.WithValue(ctx, UserEmailKey, identity.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmailFromContext extracts user email from context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}
