package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/core/internal/domain/staff"
	"github.com/retailops/core/internal/infrastructure/config"
)

func newTestValidator() *TokenValidator {
	return NewTokenValidator(config.JWTConfig{
		Secret: "0123456789abcdef0123456789abcdef",
		Issuer: "retailops-backend",
	})
}

func testSession() staff.Session {
	return staff.Session{
		UserID: uuid.New(),
		Name:   "Bola Eze",
		Role:   staff.RoleReceptionist,
	}
}

func TestTokenValidator_RoundTrip(t *testing.T) {
	v := newTestValidator()
	session := testSession()

	token, err := v.Sign(session, time.Hour)
	require.NoError(t, err)

	got, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, "Bola Eze", got.Name)
	assert.Equal(t, staff.RoleReceptionist, got.Role)
	assert.False(t, got.ExpiresAt.IsZero())
}

func TestTokenValidator_ExpiredToken(t *testing.T) {
	v := newTestValidator()

	token, err := v.Sign(testSession(), -time.Minute)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenValidator_WrongSecret(t *testing.T) {
	v := newTestValidator()
	other := NewTokenValidator(config.JWTConfig{
		Secret: "ffffffffffffffffffffffffffffffff",
		Issuer: "retailops-backend",
	})

	token, err := other.Sign(testSession(), time.Hour)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenValidator_WrongIssuer(t *testing.T) {
	v := newTestValidator()
	other := NewTokenValidator(config.JWTConfig{
		Secret: "0123456789abcdef0123456789abcdef",
		Issuer: "someone-else",
	})

	token, err := other.Sign(testSession(), time.Hour)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenValidator_UnknownRole(t *testing.T) {
	v := newTestValidator()
	session := testSession()
	session.Role = staff.Role("janitor")

	token, err := v.Sign(session, time.Hour)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestTokenValidator_GarbageToken(t *testing.T) {
	v := newTestValidator()

	_, err := v.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenValidator_RejectsUnsignedAlgorithm(t *testing.T) {
	v := newTestValidator()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "retailops-backend",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: uuid.New().String(),
		Role:   "admin",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
