package jwt

import (
	"testing"
	"time"

	"scan-review-service/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "secret"})
	userID := uuid.New()

	token, tokenID, err := svc.GenerateAccessToken(userID, "p@example.org", time.Hour)
	require.NoError(t, err)

	identity, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "p@example.org", identity.Email)
	assert.Equal(t, tokenID, identity.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), identity.ExpiresAt, time.Minute)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "secret"})

	expired, _, err := svc.GenerateAccessToken(uuid.New(), "", -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err)

	foreign, _, err := NewJWTService(config.JWTConfig{Secret: "other"}).GenerateAccessToken(uuid.New(), "", time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.Error(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
	})
	signed, err := noExpiry.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "service_role",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err = badSubject.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidSubject)
}

func TestJWTService_SessionIDFallback(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "secret"})
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: "session-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	identity, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "session-1", identity.TokenID)
}

func TestJWTService_EmptySecretRejectsEverything(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: ""})

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte(""))
	require.NoError(t, err)

	identity, err := svc.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, identity)

	_, _, err = svc.GenerateAccessToken(uuid.New(), "", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}
