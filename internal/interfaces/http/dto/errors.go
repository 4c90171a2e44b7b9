package dto

import (
	"net/http"

	"github.com/aigate/backend/internal/domain/shared"
)

// Transport-only error codes
const (
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeInvalidJSON is used when the body is not valid JSON
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeRateLimited is used when a rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMITED"
	// ErrCodeBodyTooLarge is used when the body exceeds the configured limit
	ErrCodeBodyTooLarge = "BODY_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Access control
	shared.CodeCredentialMissing:  http.StatusUnauthorized,
	shared.CodeCredentialInvalid:  http.StatusForbidden,
	shared.CodeRoleForbidden:      http.StatusForbidden,
	shared.CodeInvalidCredentials: http.StatusUnauthorized,
	shared.CodeAPIKeyMissing:      http.StatusUnauthorized,
	shared.CodeAPIKeyInvalid:      http.StatusForbidden,

	// Input
	shared.CodeInvalidInput:      http.StatusBadRequest,
	shared.CodeDuplicateIdentity: http.StatusBadRequest,
	ErrCodeValidation:            http.StatusBadRequest,
	ErrCodeInvalidJSON:           http.StatusBadRequest,

	// Resources
	shared.CodeNotFound:           http.StatusNotFound,
	shared.CodeForbiddenOperation: http.StatusForbidden,

	// Failures
	shared.CodeUpstreamError: http.StatusInternalServerError,
	shared.CodeServerError:   http.StatusInternalServerError,

	// Transport limits
	ErrCodeRateLimited:  http.StatusTooManyRequests,
	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
