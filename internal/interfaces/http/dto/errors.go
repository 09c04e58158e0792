package dto

import (
	"net/http"

	"github.com/retailops/core/internal/domain/shared"
)

// Error codes used by the HTTP layer on top of the domain codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeTokenExpired is used when the session token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeDuplicateRequest is used when an idempotency key is replayed
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	// ErrCodeUpstream is used when the retail backend rejects or is unreachable
	ErrCodeUpstream = "UPSTREAM_ERROR"
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	shared.CodeValidation:        http.StatusBadRequest,
	shared.CodeInvalidAmount:     http.StatusBadRequest,
	shared.CodeIllegalTransition: http.StatusConflict,
	shared.CodeMissingAssignment: http.StatusUnprocessableEntity,
	shared.CodeNotFound:          http.StatusNotFound,
	shared.CodeForbidden:         http.StatusForbidden,

	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeDuplicateRequest: http.StatusConflict,
	ErrCodeUpstream:         http.StatusBadGateway,
	ErrCodeInternal:         http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
