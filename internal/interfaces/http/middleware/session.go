package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/retailops/core/internal/domain/staff"
	"github.com/retailops/core/internal/infrastructure/auth"
	"github.com/retailops/core/internal/infrastructure/logger"
	"github.com/retailops/core/internal/interfaces/http/dto"
)

// Session context keys
const (
	SessionKey    = "staff_session"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// SessionAuth validates the backend-issued bearer token and stores the staff
// session in the gin context. Requests without a valid token are rejected
// with 401.
func SessionAuth(validator *auth.TokenValidator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, log, nil, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, log, nil, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			abortUnauthorized(c, log, nil, "Missing token")
			return
		}

		session, err := validator.Validate(tokenString)
		if err != nil {
			abortUnauthorized(c, log, err, "Token validation failed")
			return
		}

		c.Set(SessionKey, session)

		// Propagate the user ID into the request context for log correlation
		ctx := c.Request.Context()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), session.UserID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRoles rejects the request with 403 unless the session role is one of
// the given roles. Must run after SessionAuth.
func RequireRoles(roles ...staff.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
			return
		}
		if !session.HasAnyRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse("FORBIDDEN", "Your role does not permit this operation"))
			return
		}
		c.Next()
	}
}

// GetSession retrieves the staff session from the gin context
func GetSession(c *gin.Context) (staff.Session, bool) {
	v, exists := c.Get(SessionKey)
	if !exists {
		return staff.Session{}, false
	}
	session, ok := v.(staff.Session)
	return session, ok
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	if log != nil {
		log.Warn("authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path))
	}

	code := dto.ErrCodeUnauthorized
	responseMessage := "Authentication required"
	if errors.Is(err, auth.ErrExpiredToken) {
		code = dto.ErrCodeTokenExpired
		responseMessage = "Token has expired"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, responseMessage))
}
