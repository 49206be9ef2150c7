package jwt

import (
	"errors"
	"time"

	"scan-review-service/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrInvalidSubject = errors.New("token subject is not a user id")
	ErrMissingSecret  = errors.New("JWT_SECRET is not set")
)

// Claims mirrors the access tokens issued by the identity provider. The
// provider's own role claim is never trusted; roles come from profiles.
type Claims struct {
	Email     string `json:"email,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity is what a verified token says about the caller
type Identity struct {
	UserID    uuid.UUID
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

type JWTService struct {
	config config.JWTConfig
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{config: cfg}
}

// GenerateAccessToken signs a token in the identity provider's format. Used by
// the admin CLI for local development and by tests.
func (s *JWTService) GenerateAccessToken(userID uuid.UUID, email string, ttl time.Duration) (string, string, error) {
	if s.config.Secret == "" {
		return "", "", ErrMissingSecret
	}

	tokenID := uuid.New().String()
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", "", err
	}

	return signedToken, tokenID, nil
}

// ValidateToken rejects every token when no secret is configured; an empty
// HMAC key would accept signatures anyone can produce.
func (s *JWTService) ValidateToken(tokenString string) (*Identity, error) {
	if s.config.Secret == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, ErrInvalidSubject
	}

	identity := &Identity{
		UserID:  userID,
		Email:   claims.Email,
		TokenID: claims.ID,
	}
	if identity.TokenID == "" {
		identity.TokenID = claims.SessionID
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}
