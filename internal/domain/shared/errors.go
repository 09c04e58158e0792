package shared

import "errors"

// Error codes used across the domain. Callers branch on these rather than on
// message text, so the HTTP layer can map each kind to a distinct response.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeIllegalTransition = "ILLEGAL_TRANSITION"
	CodeMissingAssignment = "MISSING_ASSIGNMENT"
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION_ERROR
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewInvalidAmountError creates an INVALID_AMOUNT error
func NewInvalidAmountError(message string) *DomainError {
	return NewDomainError(CodeInvalidAmount, message)
}

// NewIllegalTransitionError creates an ILLEGAL_TRANSITION error
func NewIllegalTransitionError(message string) *DomainError {
	return NewDomainError(CodeIllegalTransition, message)
}

// NewMissingAssignmentError creates a MISSING_ASSIGNMENT error
func NewMissingAssignmentError(message string) *DomainError {
	return NewDomainError(CodeMissingAssignment, message)
}

// NewNotFoundError creates a NOT_FOUND error
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// IsCode reports whether err is a DomainError carrying the given code
func IsCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Common domain errors
var (
	ErrNotFound  = NewDomainError(CodeNotFound, "Resource not found")
	ErrForbidden = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)
