package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aigate/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeCredentialMissing, http.StatusUnauthorized},
		{shared.CodeCredentialInvalid, http.StatusForbidden},
		{shared.CodeRoleForbidden, http.StatusForbidden},
		{shared.CodeInvalidCredentials, http.StatusUnauthorized},
		{shared.CodeAPIKeyMissing, http.StatusUnauthorized},
		{shared.CodeAPIKeyInvalid, http.StatusForbidden},
		{shared.CodeInvalidInput, http.StatusBadRequest},
		{shared.CodeDuplicateIdentity, http.StatusBadRequest},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeForbiddenOperation, http.StatusForbidden},
		{shared.CodeUpstreamError, http.StatusInternalServerError},
		{shared.CodeServerError, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeBodyTooLarge, http.StatusRequestEntityTooLarge},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(shared.CodeNotFound, "User not found.", "req-1").
		WithDetails("record not found")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "NOT_FOUND",
			"message": "User not found.",
			"request_id": "req-1",
			"details": "record not found"
		}
	}`, string(data))
}

func TestSuccessResponseJSON(t *testing.T) {
	data, err := json.Marshal(NewSuccessResponse(struct {
		Message string `json:"message"`
	}{Message: "Logout successful."}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true, "data": {"message": "Logout successful."}}`, string(data))
}

func TestValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-2", []ValidationDetail{
		{Field: "email", Message: "This field is required"},
	})

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-2", resp.Error.RequestID)
	require.Len(t, resp.Error.ValidationErrors, 1)
	assert.Equal(t, "email", resp.Error.ValidationErrors[0].Field)
}

func TestWithDetails_NoError(t *testing.T) {
	resp := NewSuccessResponse(nil).WithDetails("ignored")
	assert.Nil(t, resp.Error)
}
