package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/retailops/core/internal/domain/staff"
	"github.com/retailops/core/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrUnknownRole      = errors.New("unknown staff role in claims")
)

// Claims represents the staff session claims carried in tokens issued by the
// backend. This service never mints tokens, it only verifies them.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenValidator verifies backend-issued staff session tokens
type TokenValidator struct {
	secret []byte
	issuer string
}

// NewTokenValidator creates a new token validator
func NewTokenValidator(cfg config.JWTConfig) *TokenValidator {
	return &TokenValidator{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// Validate verifies the token signature and claims and returns the staff
// session it represents
func (v *TokenValidator) Validate(tokenString string) (staff.Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return staff.Session{}, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return staff.Session{}, ErrTokenNotYetValid
		default:
			return staff.Session{}, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return staff.Session{}, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return staff.Session{}, ErrMissingUserID
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return staff.Session{}, ErrInvalidClaims
	}
	role := staff.Role(claims.Role)
	if !role.IsValid() {
		return staff.Session{}, ErrUnknownRole
	}

	session := staff.Session{
		UserID: userID,
		Name:   claims.Username,
		Role:   role,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// Sign mints a token for the given session. Only used by tests and local
// development tooling; production tokens come from the backend.
func (v *TokenValidator) Sign(session staff.Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    v.issuer,
			Subject:   session.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   session.UserID.String(),
		Username: session.Name,
		Role:     session.Role.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
