package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Cause returns the wrapped error, or nil
func (e *DomainError) Cause() error {
	return e.cause
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the underlying cause for logging
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error codes
const (
	CodeCredentialMissing  = "CREDENTIAL_MISSING"
	CodeCredentialInvalid  = "CREDENTIAL_INVALID"
	CodeRoleForbidden      = "ROLE_FORBIDDEN"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	CodeNotFound           = "NOT_FOUND"
	CodeForbiddenOperation = "FORBIDDEN_OPERATION"
	CodeUpstreamError      = "UPSTREAM_ERROR"
	CodeServerError        = "SERVER_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAPIKeyMissing      = "API_KEY_MISSING"
	CodeAPIKeyInvalid      = "API_KEY_INVALID"
)

// Common domain errors
var (
	ErrCredentialMissing  = NewDomainError(CodeCredentialMissing, "Authentication token is missing.")
	ErrCredentialInvalid  = NewDomainError(CodeCredentialInvalid, "Invalid or expired token.")
	ErrRoleForbidden      = NewDomainError(CodeRoleForbidden, "Forbidden. Admin access required.")
	ErrInvalidInput       = NewDomainError(CodeInvalidInput, "Invalid input.")
	ErrDuplicateIdentity  = NewDomainError(CodeDuplicateIdentity, "Email already registered.")
	ErrNotFound           = NewDomainError(CodeNotFound, "Not found.")
	ErrForbiddenOperation = NewDomainError(CodeForbiddenOperation, "Operation not allowed for this account.")
	ErrUpstream           = NewDomainError(CodeUpstreamError, "Failed to generate response")
	ErrServer             = NewDomainError(CodeServerError, "Internal server error.")
	ErrInvalidCredentials = NewDomainError(CodeInvalidCredentials, "Invalid email or password.")
	ErrAPIKeyMissing      = NewDomainError(CodeAPIKeyMissing, "API key is missing.")
	ErrAPIKeyInvalid      = NewDomainError(CodeAPIKeyInvalid, "Invalid API key.")
)
